package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newTestServer() (*chi.Mux, *InMemoryRepo) {
	repo := NewInMemoryRepo()
	r := chi.NewRouter()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	RegisterRoutes(r, NewService(repo, logger), RouteOptions{EnableSeed: true, Logger: logger})
	return r, repo
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errResponse {
	t.Helper()
	var e errResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("failed to parse error JSON: %v (body=%s)", err, rec.Body.String())
	}
	return e
}

func mustList(t *testing.T, repo Repository) []Task {
	t.Helper()
	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	return list
}

func TestPostTasks_Success(t *testing.T) {
	r, repo := newTestServer()

	rec := do(t, r, http.MethodPost, "/tasks", `{"text":"  Buy milk  "}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d, body=%s", rec.Code, rec.Body.String())
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"success":true}` {
		t.Errorf("unexpected body %s", got)
	}

	list := mustList(t, repo)
	if len(list) != 1 {
		t.Fatalf("expected 1 task, got %d", len(list))
	}
	if list[0].Text != "Buy milk" {
		t.Errorf("expected trimmed text, got %q", list[0].Text)
	}
	if list[0].Completed {
		t.Errorf("new tasks should default to Completed=false")
	}
	if list[0].CreatedAt.IsZero() {
		t.Errorf("expected CreatedAt to be set")
	}
}

func TestPostTasks_TextRequired(t *testing.T) {
	cases := map[string]string{
		"empty":      `{"text":""}`,
		"whitespace": `{"text":"   \t "}`,
		"absent":     `{}`,
		"null":       `{"text":null}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			r, repo := newTestServer()

			rec := do(t, r, http.MethodPost, "/tasks", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d, body=%s", rec.Code, rec.Body.String())
			}
			if e := decodeError(t, rec); e.Error != "Task text is required" {
				t.Errorf("expected error 'Task text is required', got %q", e.Error)
			}
			if n := len(mustList(t, repo)); n != 0 {
				t.Errorf("expected no rows inserted, got %d", n)
			}
		})
	}
}

func TestPostTasks_InvalidJSON(t *testing.T) {
	r, repo := newTestServer()

	rec := do(t, r, http.MethodPost, "/tasks", `{"text":`) // truncated/invalid JSON
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d, body=%s", rec.Code, rec.Body.String())
	}
	if e := decodeError(t, rec); e.Error != "invalid JSON" {
		t.Errorf("expected error 'invalid JSON', got %q", e.Error)
	}
	if n := len(mustList(t, repo)); n != 0 {
		t.Errorf("expected no rows inserted, got %d", n)
	}
}

func TestPostTasks_WrongType(t *testing.T) {
	r, repo := newTestServer()

	rec := do(t, r, http.MethodPost, "/tasks", `{"text":42}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d, body=%s", rec.Code, rec.Body.String())
	}
	e := decodeError(t, rec)
	if len(e.Details) == 0 || e.Details[0].Field != "text" {
		t.Errorf("expected details pointing at text, got %+v", e.Details)
	}
	if n := len(mustList(t, repo)); n != 0 {
		t.Errorf("expected no rows inserted, got %d", n)
	}
}

func TestGetTasks_DescendingByID(t *testing.T) {
	r, repo := newTestServer()
	ctx := context.Background()

	a, _ := repo.Create(ctx, "A")
	b, _ := repo.Create(ctx, "B")

	rec := do(t, r, http.MethodGet, "/tasks", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d, body=%s", rec.Code, rec.Body.String())
	}

	var list []Task
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(list))
	}
	if list[0].ID != b.ID || list[1].ID != a.ID {
		t.Errorf("expected [B, A], got %+v", list)
	}
}

func TestGetTasks_EmptyIsArray(t *testing.T) {
	r, _ := newTestServer()

	rec := do(t, r, http.MethodGet, "/tasks", "")
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("expected [], got %s", got)
	}
}

func TestGetTasks_JSONShape(t *testing.T) {
	r, repo := newTestServer()
	_, _ = repo.Create(context.Background(), "shape")

	rec := do(t, r, http.MethodGet, "/tasks", "")
	var raw []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	for _, k := range []string{"id", "text", "completed", "createdAt"} {
		if _, ok := raw[0][k]; !ok {
			t.Errorf("expected key %q in %v", k, raw[0])
		}
	}
}

func TestPatchTask_TogglesOnlyThatRow(t *testing.T) {
	r, repo := newTestServer()
	ctx := context.Background()
	a, _ := repo.Create(ctx, "A")
	b, _ := repo.Create(ctx, "B")

	rec := do(t, r, http.MethodPatch, "/tasks/"+itoa(a.ID), `{"completed":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d, body=%s", rec.Code, rec.Body.String())
	}

	for _, task := range mustList(t, repo) {
		switch task.ID {
		case a.ID:
			if !task.Completed {
				t.Errorf("expected A completed")
			}
		case b.ID:
			if task.Completed {
				t.Errorf("expected B untouched")
			}
		}
	}
}

func TestPatchTask_MissingIDIsSuccess(t *testing.T) {
	r, repo := newTestServer()
	_, _ = repo.Create(context.Background(), "A")

	rec := do(t, r, http.MethodPatch, "/tasks/999", `{"completed":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d, body=%s", rec.Code, rec.Body.String())
	}
	if mustList(t, repo)[0].Completed {
		t.Errorf("expected no row changed")
	}
}

func TestPatchAndDelete_BadID(t *testing.T) {
	for _, id := range []string{"abc", "0", "-3", "1.5", "12abc"} {
		for _, method := range []string{http.MethodPatch, http.MethodDelete} {
			t.Run(method+" "+id, func(t *testing.T) {
				r, repo := newTestServer()
				created, _ := repo.Create(context.Background(), "keep me")

				rec := do(t, r, method, "/tasks/"+id, `{"completed":true}`)
				if rec.Code != http.StatusBadRequest {
					t.Fatalf("expected status 400, got %d, body=%s", rec.Code, rec.Body.String())
				}
				if e := decodeError(t, rec); e.Error != "Invalid task ID" {
					t.Errorf("expected 'Invalid task ID', got %q", e.Error)
				}
				list := mustList(t, repo)
				if len(list) != 1 || list[0] != created {
					t.Errorf("store changed: %+v", list)
				}
			})
		}
	}
}

func TestPatchTask_BodyMustCarryBoolean(t *testing.T) {
	for _, body := range []string{`{}`, `{"completed":"yes"}`, `[]`, `nope`} {
		r, repo := newTestServer()
		created, _ := repo.Create(context.Background(), "A")

		rec := do(t, r, http.MethodPatch, "/tasks/"+itoa(created.ID), body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected status 400, got %d", body, rec.Code)
		}
		if mustList(t, repo)[0].Completed {
			t.Errorf("body %s: row changed", body)
		}
	}
}

func TestDeleteTask_RemovesAndNeverReusesID(t *testing.T) {
	r, repo := newTestServer()
	ctx := context.Background()
	a, _ := repo.Create(ctx, "A")
	b, _ := repo.Create(ctx, "B")

	rec := do(t, r, http.MethodDelete, "/tasks/"+itoa(b.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d, body=%s", rec.Code, rec.Body.String())
	}
	list := mustList(t, repo)
	if len(list) != 1 || list[0].ID != a.ID {
		t.Fatalf("expected only A left, got %+v", list)
	}

	rec = do(t, r, http.MethodPost, "/tasks", `{"text":"C"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if c := mustList(t, repo)[0]; c.ID <= b.ID {
		t.Errorf("id %d reused or went backwards (deleted %d)", c.ID, b.ID)
	}
}

func TestDeleteTask_MissingIDIsSuccess(t *testing.T) {
	r, _ := newTestServer()

	rec := do(t, r, http.MethodDelete, "/tasks/42", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d, body=%s", rec.Code, rec.Body.String())
	}
}

func TestSeed_LeavesFiveFixedTasks(t *testing.T) {
	r, repo := newTestServer()
	_, _ = repo.Create(context.Background(), "stale")

	for i := 0; i < 2; i++ {
		rec := do(t, r, http.MethodPost, "/tasks/seed", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d, body=%s", rec.Code, rec.Body.String())
		}
		var resp successResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse JSON: %v", err)
		}
		if !resp.Success || resp.Message != "Database seeded with 5 sample tasks!" {
			t.Errorf("unexpected response %+v", resp)
		}

		list := mustList(t, repo)
		if len(list) != 5 {
			t.Fatalf("expected 5 tasks, got %d", len(list))
		}
		if active, completed := Counts(list); active != 2 || completed != 3 {
			t.Errorf("expected 3 completed / 2 active, got %d / %d", completed, active)
		}
	}
}

func TestSeed_DisabledRouteIsAbsent(t *testing.T) {
	r := chi.NewRouter()
	RegisterRoutes(r, NewService(NewInMemoryRepo(), nil), RouteOptions{})

	rec := do(t, r, http.MethodPost, "/tasks/seed", "")
	if rec.Code == http.StatusOK {
		t.Fatalf("seed route should not be mounted")
	}
}

func TestStoreFault_Returns500WithMessage(t *testing.T) {
	r := chi.NewRouter()
	repo := &faultyRepo{err: errors.New("connection refused")}
	RegisterRoutes(r, NewService(repo, nil), RouteOptions{EnableSeed: true,
		Logger: slog.New(slog.NewJSONHandler(io.Discard, nil))})

	reqs := []struct{ method, path, body string }{
		{http.MethodGet, "/tasks", ""},
		{http.MethodPost, "/tasks", `{"text":"x"}`},
		{http.MethodPatch, "/tasks/1", `{"completed":true}`},
		{http.MethodDelete, "/tasks/1", ""},
		{http.MethodGet, "/tasks/export?format=csv", ""},
	}
	for _, rq := range reqs {
		rec := do(t, r, rq.method, rq.path, rq.body)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("%s %s: expected 500, got %d", rq.method, rq.path, rec.Code)
			continue
		}
		if e := decodeError(t, rec); !strings.Contains(e.Error, "connection refused") {
			t.Errorf("%s %s: expected store message, got %q", rq.method, rq.path, e.Error)
		}
	}

	rec := do(t, r, http.MethodPost, "/tasks/seed", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("seed: expected 500, got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"success":false`)) {
		t.Errorf("seed: expected success=false, got %s", rec.Body.String())
	}
}

func TestExport_Formats(t *testing.T) {
	r, repo := newTestServer()
	_, _ = repo.Create(context.Background(), "export me")

	cases := map[string]string{
		"":     "application/json",
		"json": "application/json",
		"csv":  "text/csv",
		"pdf":  "application/pdf",
	}
	for format, ctype := range cases {
		rec := do(t, r, http.MethodGet, "/tasks/export?format="+format, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("format %q: expected 200, got %d, body=%s", format, rec.Code, rec.Body.String())
		}
		if got := rec.Header().Get("Content-Type"); got != ctype {
			t.Errorf("format %q: expected %s, got %s", format, ctype, got)
		}
	}

	rec := do(t, r, http.MethodGet, "/tasks/export?format=xml", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown format, got %d", rec.Code)
	}
}

type faultyRepo struct{ err error }

func (f *faultyRepo) List(context.Context) ([]Task, error)         { return nil, f.err }
func (f *faultyRepo) Create(context.Context, string) (Task, error) { return Task{}, f.err }
func (f *faultyRepo) SetCompleted(context.Context, int64, bool) (int64, error) {
	return 0, f.err
}
func (f *faultyRepo) Delete(context.Context, int64) (int64, error) { return 0, f.err }
func (f *faultyRepo) Reset(context.Context, []NewTask) error       { return f.err }
func (f *faultyRepo) Ping(context.Context) error                   { return f.err }
func (f *faultyRepo) Close() error                                 { return nil }

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
