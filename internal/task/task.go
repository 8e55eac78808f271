// Package task defines the scheduled task model.
package task

import (
	"time"

	"github.com/google/uuid"

	"humancron/internal/schedule"
)

// Task is one scheduled unit of work. The scheduler owns stored tasks
// exclusively; everything handed to the outside world is a Clone.
type Task struct {
	ID        string         `json:"id"`
	Label     string         `json:"label"`
	Rule      schedule.Rule  `json:"frequency"`
	Payload   map[string]any `json:"payload,omitempty"`
	Enabled   bool           `json:"enabled"`
	CreatedAt time.Time      `json:"createdAt"`
	LastRunAt *time.Time     `json:"lastRunAt,omitempty"`
}

// New builds an enabled task with a fresh id. Instants are kept at
// millisecond resolution so they survive the persistence round trip intact.
func New(label string, rule schedule.Rule, payload map[string]any) *Task {
	return &Task{
		ID:        uuid.NewString(),
		Label:     label,
		Rule:      rule,
		Payload:   payload,
		Enabled:   true,
		CreatedAt: time.Now().Truncate(time.Millisecond),
	}
}

// Clone returns a deep copy safe to hand to callers and subscribers.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	cp := *t
	if t.Payload != nil {
		cp.Payload = make(map[string]any, len(t.Payload))
		for k, v := range t.Payload {
			cp.Payload[k] = v
		}
	}
	if t.LastRunAt != nil {
		at := *t.LastRunAt
		cp.LastRunAt = &at
	}
	return &cp
}
