package scheduler

import (
	"context"
	"sync"
	"time"

	"humancron/internal/eventbus"
	"humancron/internal/metrics"
	"humancron/internal/phrase"
	"humancron/internal/schedule"
	"humancron/internal/storage"
	"humancron/internal/task"
	logx "humancron/pkg/logx"
)

const defaultTick = 500 * time.Millisecond

// Config controls the scheduler loop.
type Config struct {
	Tick time.Duration // due-check resolution; default 500ms
}

// Scheduler owns the in-memory task set and the periodic due-check loop.
//
// All public operations and the tick body serialize on one mutex, so a tick
// never observes a partially-mutated task and a mutation never observes a
// partially-advanced rule. The loop is timer-chained: the next tick is armed
// only after the previous tick body, including its persistence save, has
// fully completed. Slow persistence throttles ticks instead of overlapping
// them.
type Scheduler struct {
	log logx.Logger
	bus eventbus.Bus
	met *metrics.Metrics

	mu    sync.Mutex
	tick  time.Duration
	tasks []*task.Task
	store storage.Store // nil when persistence is disabled

	stopCh   chan struct{}
	stopDone chan struct{}
}

func New(cfg Config, store storage.Store, bus eventbus.Bus, met *metrics.Metrics, log logx.Logger) *Scheduler {
	tick := cfg.Tick
	if tick <= 0 {
		tick = defaultTick
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Scheduler{
		log:   log,
		bus:   bus,
		met:   met,
		tick:  tick,
		store: store,
	}
}

// Init loads the persisted task set. Load failures degrade to an empty set
// inside the store, so Init only fails on programmer error.
func (s *Scheduler) Init(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	tasks, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()
	s.updateTaskGauge(len(tasks))
	s.log.Info("tasks loaded", logx.Int("count", len(tasks)))
	return nil
}

// Start launches the tick loop. It is a no-op if already running.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.stopCh != nil {
		s.mu.Unlock()
		return
	}
	stopCh := make(chan struct{})
	stopDone := make(chan struct{})
	s.stopCh = stopCh
	s.stopDone = stopDone
	s.mu.Unlock()

	go func() {
		defer close(stopDone)
		timer := time.NewTimer(s.interval())
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			case <-timer.C:
				s.runTick(ctx, time.Now())
				timer.Reset(s.interval())
			}
		}
	}()
}

// Stop halts the loop and waits for an in-flight tick (and its save) to
// finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	stopCh := s.stopCh
	stopDone := s.stopDone
	s.stopCh = nil
	s.stopDone = nil
	s.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-stopDone
}

// Apply updates runtime-tunable settings. The new tick interval takes
// effect when the next tick is armed.
func (s *Scheduler) Apply(cfg Config) {
	tick := cfg.Tick
	if tick <= 0 {
		tick = defaultTick
	}
	s.mu.Lock()
	s.tick = tick
	s.mu.Unlock()
}

func (s *Scheduler) interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// Add parses the phrase against the call-time clock, builds the task and
// appends it to the store. The parser never fails; unparseable phrases
// fall back to a 10-second interval.
func (s *Scheduler) Add(ctx context.Context, label, when string, payload map[string]any) (*task.Task, error) {
	now := time.Now().Truncate(time.Millisecond)
	intent := phrase.Parse(when, now)
	due := schedule.FirstDue(intent, now).Truncate(time.Millisecond)
	t := task.New(label, schedule.FromIntent(intent, due), payload)

	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	count := len(s.tasks)
	s.saveLocked(ctx)
	snapshot := t.Clone()
	s.mu.Unlock()

	s.updateTaskGauge(count)
	s.log.Info("task added",
		logx.String("id", t.ID),
		logx.String("label", label),
		logx.String("kind", string(t.Rule.Kind)),
		logx.Time("next", due))
	return snapshot, nil
}

// Remove deletes a task by id. Unknown ids are a silent no-op.
func (s *Scheduler) Remove(ctx context.Context, id string) {
	s.mu.Lock()
	kept := s.tasks[:0]
	removed := false
	for _, t := range s.tasks {
		if t.ID == id {
			removed = true
			continue
		}
		kept = append(kept, t)
	}
	s.tasks = kept
	count := len(s.tasks)
	if removed {
		s.saveLocked(ctx)
	}
	s.mu.Unlock()

	if removed {
		s.updateTaskGauge(count)
		s.log.Info("task removed", logx.String("id", id))
	}
}

// Toggle flips a task's enabled flag. Unknown ids are a silent no-op.
// Re-enabling a fired Once task is allowed; its instant is in the past,
// so it fires again on the next tick and disables itself once more.
func (s *Scheduler) Toggle(ctx context.Context, id string, enabled bool) {
	s.mu.Lock()
	var found bool
	for _, t := range s.tasks {
		if t.ID == id {
			t.Enabled = enabled
			found = true
			break
		}
	}
	if found {
		s.saveLocked(ctx)
	}
	s.mu.Unlock()

	if found {
		s.log.Info("task toggled", logx.String("id", id), logx.Bool("enabled", enabled))
	}
}

// List returns a snapshot copy of the task set in insertion order.
func (s *Scheduler) List() []*task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.Clone())
	}
	return out
}

// runTick fires every enabled task whose due instant has been reached, in
// insertion order, then persists once if anything fired.
func (s *Scheduler) runTick(ctx context.Context, now time.Time) {
	started := time.Now()
	now = now.Truncate(time.Millisecond)

	s.mu.Lock()
	fired := 0
	for _, t := range s.tasks {
		if !t.Enabled {
			continue
		}
		if t.Rule.NextDue().After(now) {
			continue
		}

		lastRun := now
		t.LastRunAt = &lastRun
		// Snapshot before advancing: subscribers see the task as it fired.
		snapshot := t.Clone()

		if t.Rule.Kind == schedule.KindOnce {
			t.Enabled = false
		} else {
			t.Rule = schedule.Advance(t.Rule)
		}
		fired++

		s.log.Info("task fired", logx.String("id", t.ID), logx.String("label", t.Label))
		if s.bus != nil {
			s.bus.Publish(eventbus.Firing{Task: snapshot, FiredAt: now})
		}
	}
	if fired > 0 {
		s.saveLocked(ctx)
	}
	s.mu.Unlock()

	if s.met != nil {
		s.met.TickSeconds.Observe(time.Since(started).Seconds())
		s.met.Firings.Add(float64(fired))
	}
}

// saveLocked persists the current set. Failures are logged and counted;
// the in-memory state stays authoritative and the loop keeps running.
func (s *Scheduler) saveLocked(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, s.tasks); err != nil {
		if s.met != nil {
			s.met.SaveFailures.Inc()
		}
		s.log.Error("task save failed, in-memory state kept", logx.Err(err))
	}
}

// Resave forces a persistence write of the current set (used by the
// janitor's periodic safety-net save).
func (s *Scheduler) Resave(ctx context.Context) {
	s.mu.Lock()
	s.saveLocked(ctx)
	s.mu.Unlock()
}

// PruneSpent removes disabled Once tasks whose instant passed more than
// retention ago. retention <= 0 keeps everything.
func (s *Scheduler) PruneSpent(ctx context.Context, retention time.Duration, now time.Time) int {
	if retention <= 0 {
		return 0
	}
	cutoff := now.Add(-retention)

	s.mu.Lock()
	kept := s.tasks[:0]
	pruned := 0
	for _, t := range s.tasks {
		if t.Rule.Kind == schedule.KindOnce && !t.Enabled && t.Rule.At.Before(cutoff) {
			pruned++
			continue
		}
		kept = append(kept, t)
	}
	s.tasks = kept
	count := len(s.tasks)
	if pruned > 0 {
		s.saveLocked(ctx)
	}
	s.mu.Unlock()

	if pruned > 0 {
		s.updateTaskGauge(count)
		s.log.Info("spent tasks pruned", logx.Int("count", pruned))
	}
	return pruned
}

func (s *Scheduler) updateTaskGauge(n int) {
	if s.met != nil {
		s.met.Tasks.Set(float64(n))
	}
}
