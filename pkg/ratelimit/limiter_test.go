package ratelimit

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitclaude/gitclaude/pkg/errors"
	"github.com/gitclaude/gitclaude/pkg/observability"
)

// admitAndRecord admits event and records the run when it is allowed.
func admitAndRecord(t *testing.T, l *Limiter, event string) Decision {
	t.Helper()
	ctx := context.Background()
	d, err := l.Admit(ctx, event, true)
	require.NoError(t, err)
	if d.ShouldRun() {
		require.NoError(t, l.Record(ctx, d.Batch))
	}
	return d
}

func TestLimiter_DebounceSequence(t *testing.T) {
	ctx := context.Background()
	clock := NewManualClock(t0)
	l := New(NewMemoryStore(), Debounce{Window: 30 * time.Second}, WithClock(clock))

	d := admitAndRecord(t, l, "post-commit:aaaaaaa")
	assert.Equal(t, KindRun, d.Kind)

	clock.Advance(10 * time.Second)
	d, err := l.Admit(ctx, "post-commit:bbbbbbb", true)
	require.NoError(t, err)
	assert.Equal(t, KindDebounce, d.Kind)
	assert.Equal(t, 20*time.Second, d.Remaining)
}

func TestLimiter_DryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	l := New(store, Batch{Window: time.Minute}, WithClock(NewManualClock(t0)))

	_, err := l.Admit(ctx, "e1", false)
	require.NoError(t, err)

	_, found, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLimiter_BatchCycle(t *testing.T) {
	ctx := context.Background()
	clock := NewManualClock(t0)
	store := NewMemoryStore()
	l := New(store, Batch{Window: time.Minute}, WithClock(clock))

	d, err := l.Admit(ctx, "e1", true)
	require.NoError(t, err)
	assert.Equal(t, KindBatch, d.Kind)

	clock.Advance(30 * time.Second)
	d, err = l.Admit(ctx, "e2", true)
	require.NoError(t, err)
	assert.Equal(t, KindBatch, d.Kind)

	st, _, _ := store.Load(ctx)
	assert.Equal(t, []string{"e1", "e2"}, st.PendingBatch)

	clock.Advance(30 * time.Second)
	d, err = l.Admit(ctx, "e3", true)
	require.NoError(t, err)
	assert.Equal(t, KindRun, d.Kind)
	assert.Equal(t, []string{"e1", "e2", "e3"}, d.Batch)

	st, _, _ = store.Load(ctx)
	assert.Equal(t, []string{"e1", "e2"}, st.PendingBatch, "admitting a flush keeps the batch")
	assert.Nil(t, st.LastRun)

	require.NoError(t, l.Record(ctx, d.Batch))
	st, _, _ = store.Load(ctx)
	assert.Empty(t, st.PendingBatch)
	assert.Nil(t, st.BatchOpenedAt)
	assert.Equal(t, 1, st.RunsThisHour)
}

func TestLimiter_RecordKeepsEventsQueuedAfterFlush(t *testing.T) {
	ctx := context.Background()
	clock := NewManualClock(t0)
	store := NewMemoryStore()
	l := New(store, Batch{Window: time.Minute}, WithClock(clock))

	_, err := l.Admit(ctx, "e1", true)
	require.NoError(t, err)
	clock.Advance(time.Minute)

	d, err := l.Admit(ctx, "e2", true)
	require.NoError(t, err)
	require.Equal(t, KindRun, d.Kind)

	// another process enqueues before the flush is recorded
	st, _, _ := store.Load(ctx)
	require.NoError(t, store.Save(ctx, Enqueue(st, "e3", clock.Now())))

	require.NoError(t, l.Record(ctx, d.Batch))
	st, _, _ = store.Load(ctx)
	assert.Equal(t, []string{"e3"}, st.PendingBatch)
	require.NotNil(t, st.BatchOpenedAt)
	assert.Equal(t, clock.Now(), *st.BatchOpenedAt)
}

func TestLimiter_RunIsNotRecordedUntilRecord(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	l := New(store, Debounce{Window: time.Minute}, WithClock(NewManualClock(t0)))

	d, err := l.Admit(ctx, "e1", true)
	require.NoError(t, err)
	assert.Equal(t, KindRun, d.Kind)

	_, found, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLimiter_NilStrategyIsConfigError(t *testing.T) {
	l := New(NewMemoryStore(), nil)
	_, err := l.Admit(context.Background(), "e1", true)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrConfig))
}

func TestLimiter_SkipDoesNotRecord(t *testing.T) {
	ctx := context.Background()
	clock := NewManualClock(t0)
	store := NewMemoryStore()
	l := New(store, Cooldown{Window: time.Minute}, WithClock(clock))

	admitAndRecord(t, l, "e1")
	clock.Advance(10 * time.Second)

	d := admitAndRecord(t, l, "e2")
	assert.Equal(t, KindSkip, d.Kind)

	st, _, _ := store.Load(ctx)
	assert.Equal(t, t0, *st.LastRun)
	assert.Equal(t, 1, st.RunsThisHour)
}

func TestLimiter_CorruptStateFallsBackAndWarns(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.SetRaw([]byte("{not json"))

	var buf bytes.Buffer
	log := observability.NewLoggerTo(&buf, "warn", "console")
	l := New(store, Debounce{Window: time.Hour}, WithClock(NewManualClock(t0)), WithLogger(log))

	d := admitAndRecord(t, l, "e1")
	assert.Equal(t, KindRun, d.Kind)
	assert.Contains(t, buf.String(), "state unreadable")

	st, found, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, t0, *st.LastRun)
}

func TestLimiter_PeekAndReset(t *testing.T) {
	ctx := context.Background()
	clock := NewManualClock(t0)
	store := NewMemoryStore()
	l := New(store, Debounce{Window: time.Minute}, WithClock(clock))

	admitAndRecord(t, l, "e1")

	clock.Advance(15 * time.Second)
	d, st := l.Peek(ctx, "e2")
	assert.Equal(t, KindDebounce, d.Kind)
	assert.Equal(t, 1, st.RunsThisHour)

	require.NoError(t, l.Reset(ctx))
	d, _ = l.Peek(ctx, "e2")
	assert.Equal(t, KindRun, d.Kind)
}

func TestLimiter_LockHonoursContext(t *testing.T) {
	store := NewMemoryStore()
	unlock, err := store.Lock(context.Background())
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	l := New(store, None{})
	_, err = l.Admit(ctx, "e1", true)
	require.Error(t, err)
}

func TestLimiter_ConcurrentRecordsSerialise(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir())
	l := New(store, None{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.Admit(ctx, "e", true)
			assert.NoError(t, err)
			assert.NoError(t, l.Record(ctx, d.Batch))
		}()
	}
	wg.Wait()

	st, found, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 8, st.RunsThisHour)
}

func TestFileStore_JSONShape(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := NewFileStore(root)

	_, found, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Save(ctx, RecordRun(NewState(), t0)))

	data, err := os.ReadFile(filepath.Join(root, ".gitclaude", StateFile))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "2026-03-01T12:00:00Z", raw["last_run"])
	assert.EqualValues(t, 1, raw["runs_this_hour"])
	assert.Equal(t, []any{}, raw["pending_batch"])
	assert.NotContains(t, raw, "batch_opened_at")

	require.NoError(t, store.Delete(ctx))
	require.NoError(t, store.Delete(ctx))
	_, found, err = store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFileStore_ReadsMinimalFile(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".gitclaude"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, ".gitclaude", StateFile),
		[]byte(`{"last_run": null, "runs_this_hour": 0, "pending_batch": []}`),
		0o644,
	))

	st, found, err := NewFileStore(root).Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Nil(t, st.LastRun)
	assert.Equal(t, []string{}, st.PendingBatch)
}

func TestFileStore_CorruptFileIsError(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".gitclaude"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitclaude", StateFile), []byte("garbage"), 0o644))

	_, _, err := NewFileStore(root).Load(ctx)
	assert.Error(t, err)
}
