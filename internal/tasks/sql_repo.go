package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SQLRepo is the Repository over database/sql. Every method runs a single
// statement except Reset, which runs one transaction.
type SQLRepo struct {
	db  *sql.DB
	d   dialect
	now func() time.Time
}

// OpenSQLRepo opens driver ("sqlite", "postgres" or "mysql") at dsn and
// checks the connection.
func OpenSQLRepo(ctx context.Context, driver, dsn string) (*SQLRepo, error) {
	d, err := lookupDialect(driver)
	if err != nil {
		return nil, err
	}
	dsn, err = d.normalizeDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.name, err)
	}
	if d.driver == "sqlite" {
		// Reasonable pragmas for an app server
		if _, err := db.ExecContext(ctx, `
			PRAGMA journal_mode=WAL;
			PRAGMA synchronous=NORMAL;
			PRAGMA foreign_keys=ON;
		`); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite pragmas: %w", err)
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.name, err)
	}
	return &SQLRepo{
		db:  db,
		d:   d,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (r *SQLRepo) Close() error { return r.db.Close() }

func (r *SQLRepo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

// EnsureSchema creates the tasks table when it is missing.
func (r *SQLRepo) EnsureSchema(ctx context.Context) error {
	for _, stmt := range r.d.schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (r *SQLRepo) Create(ctx context.Context, text string) (t Task, err error) {
	ctx, done := startOp(ctx, r.d.name, "create")
	defer func() { done(err) }()

	t, err = r.insert(ctx, r.db, NewTask{Text: text})
	if err != nil {
		return Task{}, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *SQLRepo) insert(ctx context.Context, q execQuerier, n NewTask) (Task, error) {
	now := r.now()
	t := Task{Text: n.Text, Completed: n.Completed, CreatedAt: now}

	const stmt = `INSERT INTO tasks (text, completed, created_at) VALUES (?, ?, ?)`
	args := []any{n.Text, n.Completed, r.d.encodeTS(now)}

	if r.d.returning {
		if err := q.QueryRowContext(ctx, r.d.rebind(stmt+` RETURNING id`), args...).Scan(&t.ID); err != nil {
			return Task{}, err
		}
		return t, nil
	}

	res, err := q.ExecContext(ctx, r.d.rebind(stmt), args...)
	if err != nil {
		return Task{}, err
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return Task{}, err
	}
	return t, nil
}

func (r *SQLRepo) List(ctx context.Context) (out []Task, err error) {
	ctx, done := startOp(ctx, r.d.name, "list")
	defer func() { done(err) }()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, text, completed, created_at
		FROM tasks
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	out = make([]Task, 0)
	for rows.Next() {
		var t Task
		var created any
		if err := rows.Scan(&t.ID, &t.Text, &t.Completed, &created); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if t.CreatedAt, err = decodeTS(created); err != nil {
			return nil, fmt.Errorf("task %d: %w", t.ID, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return out, nil
}

func (r *SQLRepo) SetCompleted(ctx context.Context, id int64, completed bool) (n int64, err error) {
	ctx, done := startOp(ctx, r.d.name, "set_completed")
	defer func() { done(err) }()

	res, err := r.db.ExecContext(ctx, r.d.rebind(`UPDATE tasks SET completed = ? WHERE id = ?`), completed, id)
	if err != nil {
		return 0, fmt.Errorf("update task %d: %w", id, err)
	}
	return rowsAffected(res)
}

func (r *SQLRepo) Delete(ctx context.Context, id int64) (n int64, err error) {
	ctx, done := startOp(ctx, r.d.name, "delete")
	defer func() { done(err) }()

	res, err := r.db.ExecContext(ctx, r.d.rebind(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return 0, fmt.Errorf("delete task %d: %w", id, err)
	}
	return rowsAffected(res)
}

// Reset replaces every row with rows. DELETE rather than TRUNCATE keeps the
// id sequence moving forward.
func (r *SQLRepo) Reset(ctx context.Context, rows []NewTask) (err error) {
	ctx, done := startOp(ctx, r.d.name, "reset")
	defer func() { done(err) }()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reset: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("reset: clear: %w", err)
	}
	for _, n := range rows {
		if _, err = r.insert(ctx, tx, n); err != nil {
			return fmt.Errorf("reset: insert %q: %w", n.Text, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("reset: commit: %w", err)
	}
	return nil
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Helper to build DSN like: file:/absolute/path?_pragma=busy_timeout(5000)
func SQLiteFileDSN(path string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return "file:" + filepath.ToSlash(abs) + "?_pragma=busy_timeout(5000)", nil
}
