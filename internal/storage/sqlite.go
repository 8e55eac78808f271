//go:build sqlite
// +build sqlite

package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"humancron/internal/schedule"
	"humancron/internal/task"
	logx "humancron/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Load(ctx context.Context) ([]*task.Task, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label, frequency, payload, enabled, created_at, last_run_at FROM tasks ORDER BY rowid`)
	if err != nil {
		s.log.Warn("task table unreadable, starting empty", logx.Err(err))
		return []*task.Task{}, nil
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		var (
			t       task.Task
			freq    string
			payload sql.NullString
			enabled int
			created string
			lastRun sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Label, &freq, &payload, &enabled, &created, &lastRun); err != nil {
			s.log.Warn("task row skipped", logx.Err(err))
			continue
		}
		var rule schedule.Rule
		if err := json.Unmarshal([]byte(freq), &rule); err != nil {
			s.log.Warn("task row has bad frequency, skipped", logx.String("id", t.ID), logx.Err(err))
			continue
		}
		t.Rule = rule
		t.Enabled = enabled != 0
		if at, err := time.Parse(time.RFC3339, created); err == nil {
			t.CreatedAt = at
		}
		if lastRun.Valid {
			if at, err := time.Parse(time.RFC3339, lastRun.String); err == nil {
				t.LastRunAt = &at
			}
		}
		if payload.Valid && payload.String != "" {
			_ = json.Unmarshal([]byte(payload.String), &t.Payload)
		}
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}

func (s *sqliteStore) Save(ctx context.Context, tasks []*task.Task) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Full-set replace: the Store contract is a wholesale overwrite.
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return err
	}
	for _, t := range tasks {
		freq, err := json.Marshal(t.Rule)
		if err != nil {
			return err
		}
		var payload any
		if t.Payload != nil {
			b, err := json.Marshal(t.Payload)
			if err != nil {
				return err
			}
			payload = string(b)
		}
		var lastRun any
		if t.LastRunAt != nil {
			lastRun = t.LastRunAt.Format(time.RFC3339Nano)
		}
		enabled := 0
		if t.Enabled {
			enabled = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tasks(id, label, frequency, payload, enabled, created_at, last_run_at)
			 VALUES(?,?,?,?,?,?,?)`,
			t.ID, t.Label, string(freq), payload, enabled, t.CreatedAt.Format(time.RFC3339Nano), lastRun,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}
