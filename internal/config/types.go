package config

// Config is the daemon's full configuration.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Server    ServerConfig    `json:"server"`
	Logging   LoggingConfig   `json:"logging"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Storage   *StorageConfig  `json:"storage,omitempty"`
	Notifier  *NotifierConfig `json:"notifier,omitempty"`
	Janitor   *JanitorConfig  `json:"janitor,omitempty"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `json:"addr"` // default ":4000"

	// Server timeouts (Go duration strings). WriteTimeout defaults to 0
	// (disabled) so SSE streams are not cut off.
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string     `json:"level"`
	Console bool       `json:"console"`
	File    FileConfig `json:"file"`
}

type FileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// SchedulerConfig controls the due-check loop.
type SchedulerConfig struct {
	// Tick is the loop resolution (Go duration string). Default "500ms".
	Tick string `json:"tick,omitempty"`
}

// StorageConfig controls the persistence layer.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./data/tasks.json" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// NotifierConfig controls optional firing sinks beyond SSE.
type NotifierConfig struct {
	Telegram *TelegramConfig `json:"telegram,omitempty"`
}

// TelegramConfig configures the telegram firing sink.
type TelegramConfig struct {
	Enabled    bool   `json:"enabled"`
	Token      string `json:"token"`
	ChatID     int64  `json:"chat_id"`
	RatePerSec int    `json:"rate_per_sec,omitempty"` // default 1
}

// JanitorConfig controls background maintenance.
//
// Spec is a cron expression or @every descriptor (robfig/cron syntax).
// Retention prunes disabled one-shot tasks whose instant is older than the
// window; empty keeps them forever.
type JanitorConfig struct {
	Enabled   bool   `json:"enabled"`
	Spec      string `json:"spec,omitempty"` // default "@every 1h"
	Retention string `json:"retention,omitempty"`
}
