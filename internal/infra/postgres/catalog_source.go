package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-progression-service/internal/domain"
)

// CatalogSource loads quiz JSONB documents from Postgres.
type CatalogSource struct {
	pool *pgxpool.Pool
}

func NewCatalogSource(pool *pgxpool.Pool) *CatalogSource {
	return &CatalogSource{pool: pool}
}

func (s *CatalogSource) LoadQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM quizzes ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("load quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []domain.Quiz
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		var quiz domain.Quiz
		if err := json.Unmarshal(raw, &quiz); err != nil {
			return nil, fmt.Errorf("unmarshal quiz: %w", err)
		}
		quizzes = append(quizzes, quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load quizzes: %w", err)
	}
	return quizzes, nil
}

// SaveQuizzes upserts the given quizzes, keeping their order as position.
func (s *CatalogSource) SaveQuizzes(ctx context.Context, quizzes []domain.Quiz) error {
	batch := &pgx.Batch{}
	for i, quiz := range quizzes {
		raw, err := json.Marshal(quiz)
		if err != nil {
			return fmt.Errorf("marshal quiz %s: %w", quiz.ID, err)
		}
		batch.Queue(`
			INSERT INTO quizzes (id, position, data, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (id) DO UPDATE
			SET position = EXCLUDED.position, data = EXCLUDED.data, updated_at = now()`,
			quiz.ID, i, raw)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for _, quiz := range quizzes {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("save quiz %s: %w", quiz.ID, err)
		}
	}
	return nil
}
