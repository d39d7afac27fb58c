package tasks

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Repository is the task store. Mutations report the number of rows they
// touched; zero is not an error.
type Repository interface {
	List(ctx context.Context) ([]Task, error)
	Create(ctx context.Context, text string) (Task, error)
	SetCompleted(ctx context.Context, id int64, completed bool) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	Reset(ctx context.Context, rows []NewTask) error
	Ping(ctx context.Context) error
	Close() error
}

// InMemoryRepo keeps tasks in a map. The sequence survives Reset and
// Delete so ids are never handed out twice.
type InMemoryRepo struct {
	mu    sync.Mutex
	seq   int64
	store map[int64]Task
	now   func() time.Time
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		store: make(map[int64]Task),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *InMemoryRepo) Create(ctx context.Context, text string) (t Task, err error) {
	_, done := startOp(ctx, "memory", "create")
	defer func() { done(err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insertLocked(NewTask{Text: text}), nil
}

func (r *InMemoryRepo) insertLocked(n NewTask) Task {
	r.seq++
	t := Task{
		ID:        r.seq,
		Text:      n.Text,
		Completed: n.Completed,
		CreatedAt: r.now(),
	}
	r.store[t.ID] = t
	return t
}

func (r *InMemoryRepo) List(ctx context.Context) (out []Task, err error) {
	_, done := startOp(ctx, "memory", "list")
	defer func() { done(err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	out = make([]Task, 0, len(r.store))
	for _, t := range r.store {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b Task) int {
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}

func (r *InMemoryRepo) SetCompleted(ctx context.Context, id int64, completed bool) (n int64, err error) {
	_, done := startOp(ctx, "memory", "set_completed")
	defer func() { done(err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.store[id]
	if !ok {
		return 0, nil
	}
	t.Completed = completed
	r.store[id] = t
	return 1, nil
}

func (r *InMemoryRepo) Delete(ctx context.Context, id int64) (n int64, err error) {
	_, done := startOp(ctx, "memory", "delete")
	defer func() { done(err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[id]; !ok {
		return 0, nil
	}
	delete(r.store, id)
	return 1, nil
}

func (r *InMemoryRepo) Reset(ctx context.Context, rows []NewTask) (err error) {
	_, done := startOp(ctx, "memory", "reset")
	defer func() { done(err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.store)
	for _, n := range rows {
		r.insertLocked(n)
	}
	return nil
}

func (r *InMemoryRepo) Ping(context.Context) error { return nil }

func (r *InMemoryRepo) Close() error { return nil }
