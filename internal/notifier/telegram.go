// Package notifier delivers firing notifications to external sinks.
//
// The only built-in sink is telegram: one chat message per firing, behind a
// bounded queue and a rate limiter so a burst of firings can never block
// the scheduler or flood the chat.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"humancron/internal/eventbus"
	"humancron/internal/task"
	logx "humancron/pkg/logx"
)

type TelegramConfig struct {
	Token      string
	ChatID     int64
	RatePerSec int // default 1
}

// Telegram is a bus subscriber that forwards firings to one chat.
type Telegram struct {
	log     logx.Logger
	cfg     TelegramConfig
	bot     *tele.Bot
	limiter *rate.Limiter

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewTelegram(cfg TelegramConfig, log logx.Logger) (*Telegram, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat_id is not set")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	// Send-only: the bot never polls for updates.
	b, err := tele.NewBot(tele.Settings{Token: cfg.Token})
	if err != nil {
		return nil, err
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	return &Telegram{
		log:     log,
		cfg:     cfg,
		bot:     b,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// Start subscribes to the bus and begins delivering in the background.
// Firings arriving faster than the limiter allows are dropped, never queued
// without bound; the bus already applies the same policy upstream.
func (n *Telegram) Start(ctx context.Context, bus eventbus.Bus) {
	n.runMu.Lock()
	defer n.runMu.Unlock()
	if n.running {
		return
	}
	n.running = true

	rctx, cancel := context.WithCancel(ctx)
	n.cancel = cancel

	sub, unsubscribe := bus.Subscribe(64)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer unsubscribe()
		for {
			select {
			case <-rctx.Done():
				return
			case f, ok := <-sub:
				if !ok {
					return
				}
				if !n.limiter.Allow() {
					n.log.Debug("telegram notification dropped (rate limited)",
						logx.String("task", f.Task.ID))
					continue
				}
				n.send(f.Task)
			}
		}
	}()
}

func (n *Telegram) Stop() {
	n.runMu.Lock()
	cancel := n.cancel
	n.cancel = nil
	n.running = false
	n.runMu.Unlock()

	if cancel != nil {
		cancel()
	}
	n.wg.Wait()
}

func (n *Telegram) send(t *task.Task) {
	chat := &tele.Chat{ID: n.cfg.ChatID}
	msg := formatFiring(t)
	if _, err := n.bot.Send(chat, msg, &tele.SendOptions{DisableWebPagePreview: true}); err != nil {
		n.log.Warn("telegram send failed", logx.String("task", t.ID), logx.Err(err))
	}
}

func formatFiring(t *task.Task) string {
	var b strings.Builder
	b.WriteString("⏰ ")
	b.WriteString(t.Label)
	if t.LastRunAt != nil {
		fmt.Fprintf(&b, "\n%s", t.LastRunAt.Format("2006-01-02 15:04:05"))
	}
	return b.String()
}
