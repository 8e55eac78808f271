package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{
		"server": {"addr": ":4100", "read_timeout": "5s"},
		"logging": {"level": "debug", "console": true, "file": {"enabled": false, "path": ""}},
		"scheduler": {"tick": "250ms"},
		"storage": {"driver": "file", "path": "./tasks.json"},
		"janitor": {"enabled": true, "spec": "@every 30m", "retention": "168h"}
	}`)

	m := NewManager(path)
	cfg, err := m.Load()
	require.NoError(t, err)
	require.Equal(t, ":4100", cfg.Server.Addr)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "250ms", cfg.Scheduler.Tick)
	require.NotNil(t, cfg.Storage)
	require.Equal(t, "file", cfg.Storage.Driver)
	require.NotNil(t, cfg.Janitor)
	require.Equal(t, "@every 30m", cfg.Janitor.Spec)
	require.Nil(t, cfg.Notifier)

	// Load commits: Get returns the same config afterwards.
	require.Same(t, cfg, m.Get())
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", `
server:
  addr: ":4200"
logging:
  level: info
  console: true
  file:
    enabled: false
    path: ""
scheduler:
  tick: 1s
notifier:
  telegram:
    enabled: true
    token: "t0k"
    chat_id: 42
`)

	m := NewManager(path)
	cfg, err := m.Load()
	require.NoError(t, err)
	require.Equal(t, ":4200", cfg.Server.Addr)
	require.Equal(t, "1s", cfg.Scheduler.Tick)
	require.NotNil(t, cfg.Notifier)
	require.NotNil(t, cfg.Notifier.Telegram)
	require.Equal(t, int64(42), cfg.Notifier.Telegram.ChatID)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{
		"server": {"addr": ":4000"},
		"logging": {"level": "info", "console": true, "file": {"enabled": false, "path": ""}},
		"scheduler": {},
		"surprise": true
	}`)

	_, err := NewManager(path).Parse()
	require.Error(t, err)
	require.Contains(t, err.Error(), "surprise")
}

func TestParseRejectsTrailingData(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{"server":{"addr":":4000"},"logging":{"level":"info","console":true,"file":{"enabled":false,"path":""}},"scheduler":{}} {"extra":1}`)

	_, err := NewManager(path).Parse()
	require.Error(t, err)
}

func TestParseMissingFile(t *testing.T) {
	t.Parallel()
	_, err := NewManager(filepath.Join(t.TempDir(), "nope.json")).Parse()
	require.Error(t, err)
}

func TestPublishDropsOldestWhenFull(t *testing.T) {
	t.Parallel()
	m := NewManager("unused")
	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)

	first := &Config{}
	second := &Config{Server: ServerConfig{Addr: ":9"}}
	m.publish(first)
	m.publish(second)

	// The stale config was displaced; the subscriber sees the newest.
	got := <-ch
	require.Equal(t, ":9", got.Server.Addr)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()
	m := NewManager("unused")
	ch := m.Subscribe(1)
	m.Unsubscribe(ch)
	_, open := <-ch
	require.False(t, open)

	// Unsubscribing an unknown channel is a no-op.
	m.Unsubscribe(make(chan *Config))
	m.Unsubscribe(nil)
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()

	d, err := ParseDurationField("scheduler.tick", "500ms")
	require.NoError(t, err)
	require.Equal(t, 500*time.Millisecond, d)

	d, err = ParseDurationField("scheduler.tick", "  ")
	require.NoError(t, err)
	require.Zero(t, d)

	_, err = ParseDurationField("scheduler.tick", "fast")
	require.Error(t, err)

	_, err = ParseDurationField("scheduler.tick", "-1s")
	require.Error(t, err)

	d, err = ParseDurationOrDefault("scheduler.tick", "", 500*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, 500*time.Millisecond, d)

	d, err = ParseDurationOrDefault("scheduler.tick", "2s", 500*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, d)
}
