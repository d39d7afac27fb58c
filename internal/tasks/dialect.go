package tasks

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// dialect holds what differs between the SQL backends. Queries are written
// with '?' placeholders and rebound per dialect.
type dialect struct {
	name      string
	driver    string
	schema    []string
	returning bool
	dollar    bool
	encodeTS  func(time.Time) any
}

var dialects = map[string]dialect{
	"sqlite": {
		name:   "sqlite",
		driver: "sqlite",
		schema: []string{`
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	text TEXT NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
)`},
		encodeTS: func(t time.Time) any { return t.UTC().Format(time.RFC3339Nano) },
	},
	"postgres": {
		name:   "postgresql",
		driver: "pgx",
		schema: []string{`
CREATE TABLE IF NOT EXISTS tasks (
	id BIGSERIAL PRIMARY KEY,
	text TEXT NOT NULL,
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`},
		returning: true,
		dollar:    true,
		encodeTS:  func(t time.Time) any { return t.UTC() },
	},
	"mysql": {
		name:   "mysql",
		driver: "mysql",
		schema: []string{`
CREATE TABLE IF NOT EXISTS tasks (
	id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
	text TEXT NOT NULL,
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	created_at DATETIME(6) NOT NULL
)`},
		encodeTS: func(t time.Time) any { return t.UTC() },
	},
}

func lookupDialect(driver string) (dialect, error) {
	d, ok := dialects[strings.ToLower(driver)]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
	return d, nil
}

func (d dialect) rebind(q string) string {
	if !d.dollar {
		return q
	}
	var b strings.Builder
	n := 0
	for _, c := range q {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// normalizeDSN forces settings the repository relies on.
func (d dialect) normalizeDSN(dsn string) (string, error) {
	if d.driver != "mysql" {
		return dsn, nil
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
}

// decodeTS accepts whatever the driver hands back for created_at.
func decodeTS(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case []byte:
		return parseTS(string(t))
	case string:
		return parseTS(t)
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unexpected created_at type %T", v)
	}
}

func parseTS(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable created_at %q", s)
}
