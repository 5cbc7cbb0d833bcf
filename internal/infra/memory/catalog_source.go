package memory

import (
	"context"

	"quiz-progression-service/internal/domain"
)

// StaticCatalog is a catalog source backed by a slice (useful for tests/demos).
type StaticCatalog struct {
	quizzes []domain.Quiz
}

func NewStaticCatalog(quizzes ...domain.Quiz) *StaticCatalog {
	return &StaticCatalog{quizzes: quizzes}
}

func (c *StaticCatalog) LoadQuizzes(_ context.Context) ([]domain.Quiz, error) {
	return append([]domain.Quiz(nil), c.quizzes...), nil
}
