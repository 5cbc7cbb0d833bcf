// Package catalog loads quiz definitions for registration with the engine.
package catalog

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"quiz-progression-service/internal/domain"
)

// Source provides the full set of quizzes at startup.
type Source interface {
	LoadQuizzes(ctx context.Context) ([]domain.Quiz, error)
}

type document struct {
	Quizzes []domain.Quiz `yaml:"quizzes"`
}

// Parse decodes a YAML catalog. Unknown fields are rejected so typos in
// content files surface at startup.
func Parse(data []byte) ([]domain.Quiz, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return doc.Quizzes, nil
}

// FileSource reads a YAML catalog from disk.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) LoadQuizzes(_ context.Context) ([]domain.Quiz, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}
