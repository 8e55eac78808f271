package storage

import (
	"context"
	"errors"
	"time"

	"humancron/internal/task"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free JSON file backend
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store persists the full task set as one document.
//
// Load returns an empty slice when no prior state exists or the stored
// state is unreadable; corruption degrades to "start with zero tasks"
// rather than propagating. Save overwrites prior state wholesale.
type Store interface {
	Load(ctx context.Context) ([]*task.Task, error)
	Save(ctx context.Context, tasks []*task.Task) error
	Close() error
}
