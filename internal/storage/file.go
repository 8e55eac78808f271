package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"humancron/internal/task"
	logx "humancron/pkg/logx"
)

// fileStore is a dependency-free persistence backend: the whole task set
// lives in one JSON document, rewritten on every save via tmp+rename so a
// crash mid-write never leaves a half-written file behind.
type fileStore struct {
	log logx.Logger

	mu   sync.Mutex
	path string
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &fileStore{log: log, path: path}, nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) Load(ctx context.Context) ([]*task.Task, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("task file unreadable, starting empty", logx.String("path", s.path), logx.Err(err))
		}
		return []*task.Task{}, nil
	}

	var tasks []*task.Task
	if err := json.Unmarshal(b, &tasks); err != nil {
		s.log.Warn("task file corrupt, starting empty", logx.String("path", s.path), logx.Err(err))
		return []*task.Task{}, nil
	}
	return tasks, nil
}

func (s *fileStore) Save(ctx context.Context, tasks []*task.Task) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if tasks == nil {
		tasks = []*task.Task{}
	}
	b, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
