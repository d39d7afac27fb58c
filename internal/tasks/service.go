package tasks

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
)

// Service applies boundary validation and hands single statements to the
// repository. It keeps no state between calls.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]Task, error) {
	return s.repo.List(ctx)
}

// Create trims text and inserts it as an open task.
func (s *Service) Create(ctx context.Context, text string) (Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Task{}, &ValidationError{Field: "text", Message: msgTextRequired}
	}
	return s.repo.Create(ctx, text)
}

// SetCompleted succeeds whether or not a row matched id.
func (s *Service) SetCompleted(ctx context.Context, id int64, completed bool) error {
	if id <= 0 {
		return ErrInvalidID
	}
	n, err := s.repo.SetCompleted(ctx, id, completed)
	if err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "task_set_completed",
		slog.Int64("id", id),
		slog.Bool("completed", completed),
		slog.Int64("rows", n),
	)
	return nil
}

// Delete succeeds whether or not a row matched id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "task_deleted", slog.Int64("id", id), slog.Int64("rows", n))
	return nil
}

// Reset replaces the store contents with SampleTasks.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.repo.Reset(ctx, SampleTasks); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "tasks_seeded", slog.Int("count", len(SampleTasks)))
	return nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// ParseID accepts a positive base-10 integer.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
