// Package janitor runs background maintenance on a cron schedule:
// pruning spent one-shot tasks past their retention window and forcing a
// periodic safety-net save of the task set.
package janitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"humancron/internal/scheduler"
	logx "humancron/pkg/logx"
)

const defaultSpec = "@every 1h"

type Config struct {
	Spec      string        // cron spec or @every descriptor; default "@every 1h"
	Retention time.Duration // 0 keeps spent one-shot tasks forever
}

type Service struct {
	log   logx.Logger
	cfg   Config
	sched *scheduler.Scheduler
	c     *cron.Cron
}

func New(cfg Config, sched *scheduler.Scheduler, log logx.Logger) (*Service, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	spec := strings.TrimSpace(cfg.Spec)
	if spec == "" {
		spec = defaultSpec
	}
	cfg.Spec = spec

	// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(spec); err != nil {
		return nil, fmt.Errorf("janitor.spec: %w", err)
	}

	s := &Service{
		log:   log,
		cfg:   cfg,
		sched: sched,
		c:     cron.New(cron.WithParser(parser)),
	}
	if _, err := s.c.AddFunc(spec, s.sweep); err != nil {
		return nil, fmt.Errorf("janitor.spec: %w", err)
	}
	return s, nil
}

func (s *Service) Start() {
	s.c.Start()
	s.log.Info("janitor started", logx.String("spec", s.cfg.Spec), logx.Duration("retention", s.cfg.Retention))
}

// Stop halts the cron schedule and waits for a running sweep to finish.
func (s *Service) Stop(ctx context.Context) {
	done := s.c.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (s *Service) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pruned := s.sched.PruneSpent(ctx, s.cfg.Retention, time.Now())
	if pruned == 0 {
		// Nothing changed; still resave so on-disk state heals from any
		// earlier failed tick save.
		s.sched.Resave(ctx)
	}
	s.log.Debug("janitor sweep done", logx.Int("pruned", pruned))
}
