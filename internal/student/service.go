package student

import (
	"context"
	"errors"
	"fmt"
)

// Repo is the slice of the repository the service needs.
type Repo interface {
	List(ctx context.Context) ([]Record, error)
	Insert(ctx context.Context, rec Record) (Record, error)
	Update(ctx context.Context, rec Record) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

// Service holds the student record operations. Any live session may
// add, edit, or delete records; there is no per-record ownership.
type Service struct {
	repo Repo
}

// NewService creates a service backed by a repository.
func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

// List returns all records.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	return s.repo.List(ctx)
}

// Add validates and inserts a record. Age must be non-negative.
func (s *Service) Add(ctx context.Context, rec Record) (Record, error) {
	if rec.Age < 0 {
		return Record{}, errors.New("age must be non-negative")
	}
	out, err := s.repo.Insert(ctx, rec)
	if err != nil {
		return Record{}, fmt.Errorf("insert record: %w", err)
	}
	return out, nil
}

// Edit rewrites the record with rec.ID. Editing a missing id is a
// silent no-op: no error, no record created.
func (s *Service) Edit(ctx context.Context, rec Record) error {
	if rec.Age < 0 {
		return errors.New("age must be non-negative")
	}
	if _, err := s.repo.Update(ctx, rec); err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

// Delete removes the record by id. Deleting a missing id is a silent no-op.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}
