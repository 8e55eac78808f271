package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"humancron/internal/schedule"
	"humancron/internal/task"
	logx "humancron/pkg/logx"
)

func openTestStore(t *testing.T) (Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "tasks.json")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	require.NoError(t, err)
	return st, path
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()
	st, _ := openTestStore(t)
	ctx := context.Background()

	lastRun := time.Now().Truncate(time.Millisecond).Add(-time.Minute)
	once := task.New("dentista", schedule.Rule{
		Kind: schedule.KindOnce,
		At:   time.Date(2024, 5, 7, 9, 0, 0, 0, time.Local),
	}, map[string]any{"note": "sala 3"})
	once.Enabled = false
	once.LastRunAt = &lastRun

	weekly := task.New("relatório", schedule.Rule{
		Kind:    schedule.KindWeekly,
		Weekday: time.Friday,
		Hour:    17,
		Minute:  30,
		NextAt:  time.Date(2024, 5, 10, 17, 30, 0, 0, time.Local),
	}, nil)

	require.NoError(t, st.Save(ctx, []*task.Task{once, weekly}))

	got, err := st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, once.ID, got[0].ID)
	require.Equal(t, "dentista", got[0].Label)
	require.Equal(t, schedule.KindOnce, got[0].Rule.Kind)
	require.True(t, got[0].Rule.At.Equal(once.Rule.At))
	require.False(t, got[0].Enabled)
	require.NotNil(t, got[0].LastRunAt)
	require.True(t, got[0].LastRunAt.Equal(lastRun))
	require.Equal(t, "sala 3", got[0].Payload["note"])

	require.Equal(t, schedule.KindWeekly, got[1].Rule.Kind)
	require.Equal(t, time.Friday, got[1].Rule.Weekday)
	require.True(t, got[1].Rule.NextAt.Equal(weekly.Rule.NextAt))
	require.True(t, got[1].CreatedAt.Equal(weekly.CreatedAt))
}

func TestFileStoreMissingFileLoadsEmpty(t *testing.T) {
	t.Parallel()
	st, _ := openTestStore(t)
	got, err := st.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestFileStoreCorruptFileLoadsEmpty(t *testing.T) {
	t.Parallel()
	st, path := openTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	got, err := st.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	t.Parallel()
	st, _ := openTestStore(t)
	ctx := context.Background()

	a := task.New("a", schedule.Rule{Kind: schedule.KindInterval, Every: time.Second, NextAt: time.Now()}, nil)
	b := task.New("b", schedule.Rule{Kind: schedule.KindInterval, Every: time.Second, NextAt: time.Now()}, nil)
	require.NoError(t, st.Save(ctx, []*task.Task{a, b}))
	require.NoError(t, st.Save(ctx, []*task.Task{b}))

	got, err := st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, b.ID, got[0].ID)
}

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none"} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		require.NoError(t, err)
		require.Nil(t, st)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	_, err := Open(Config{Driver: "etcd", Path: "x"}, logx.Nop())
	require.Error(t, err)
}
