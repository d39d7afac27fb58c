// Package view keeps the client-side picture of the task list. The picture
// is only ever replaced by a fresh List from the server; mutations never
// edit it in place.
package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/s1natex/taskflow/internal/client"
)

var ErrEmptyText = errors.New("task text is empty")

// API is the subset of client.Client the view needs.
type API interface {
	List(ctx context.Context) ([]client.Task, error)
	Create(ctx context.Context, text string) error
	SetCompleted(ctx context.Context, id int64, completed bool) error
	Delete(ctx context.Context, id int64) error
	Seed(ctx context.Context) error
}

type Snapshot struct {
	Tasks     []client.Task
	Active    int
	Completed int
	FetchedAt time.Time
}

// Stats renders the counter line shown above the list.
func (s Snapshot) Stats() string {
	if len(s.Tasks) == 0 {
		return "No tasks yet. Add one to get started!"
	}
	noun := "tasks"
	if s.Active == 1 {
		noun = "task"
	}
	return fmt.Sprintf("%d active %s • %d completed", s.Active, noun, s.Completed)
}

// Index returns the position of id in the snapshot, or -1.
func (s Snapshot) Index(id int64) int {
	for i, t := range s.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

type Syncer struct {
	api API
	now func() time.Time
}

func NewSyncer(api API) *Syncer {
	return &Syncer{api: api, now: time.Now}
}

func (s *Syncer) Load(ctx context.Context) (Snapshot, error) {
	list, err := s.api.List(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{Tasks: list, FetchedAt: s.now()}
	for _, t := range list {
		if t.Completed {
			snap.Completed++
		} else {
			snap.Active++
		}
	}
	return snap, nil
}

func (s *Syncer) Add(ctx context.Context, text string) (Snapshot, error) {
	if strings.TrimSpace(text) == "" {
		return Snapshot{}, ErrEmptyText
	}
	return s.mutate(ctx, func(ctx context.Context) error { return s.api.Create(ctx, text) })
}

// Toggle flips the completion flag the task had when it was last fetched.
func (s *Syncer) Toggle(ctx context.Context, t client.Task) (Snapshot, error) {
	return s.mutate(ctx, func(ctx context.Context) error { return s.api.SetCompleted(ctx, t.ID, !t.Completed) })
}

func (s *Syncer) Remove(ctx context.Context, id int64) (Snapshot, error) {
	return s.mutate(ctx, func(ctx context.Context) error { return s.api.Delete(ctx, id) })
}

func (s *Syncer) Reset(ctx context.Context) (Snapshot, error) {
	return s.mutate(ctx, s.api.Seed)
}

func (s *Syncer) mutate(ctx context.Context, op func(context.Context) error) (Snapshot, error) {
	if err := op(ctx); err != nil {
		return Snapshot{}, err
	}
	return s.Load(ctx)
}
