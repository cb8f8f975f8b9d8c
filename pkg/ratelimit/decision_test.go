package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitclaude/gitclaude/pkg/config"
	"github.com/gitclaude/gitclaude/pkg/errors"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ranAt(t time.Time) State {
	return RecordRun(NewState(), t)
}

func TestDecide_None(t *testing.T) {
	d := Decide(None{}, ranAt(t0), t0, "post-commit:abc1234")
	assert.Equal(t, KindRun, d.Kind)
}

func TestDecide_NilStrategyNeverRuns(t *testing.T) {
	d := Decide(nil, NewState(), t0, "e")
	assert.Equal(t, KindSkip, d.Kind)
	assert.Equal(t, "no rate limit strategy configured", d.Reason)
}

func TestDecide_FirstEventAlwaysRuns(t *testing.T) {
	for _, s := range []Strategy{
		Debounce{Window: time.Minute},
		Cooldown{Window: time.Minute},
		Smart{Window: time.Minute, MaxRunsPerHour: 3},
	} {
		t.Run(s.Name(), func(t *testing.T) {
			assert.True(t, Decide(s, NewState(), t0, "e").ShouldRun())
		})
	}
}

func TestDecide_DebounceRemaining(t *testing.T) {
	tests := []struct {
		window  time.Duration
		elapsed time.Duration
		kind    Kind
		remain  time.Duration
	}{
		{30 * time.Second, 10 * time.Second, KindDebounce, 20 * time.Second},
		{30 * time.Second, 29 * time.Second, KindDebounce, time.Second},
		{30 * time.Second, 30 * time.Second, KindRun, 0},
		{30 * time.Second, time.Hour, KindRun, 0},
		{0, 0, KindRun, 0},
	}

	for _, tt := range tests {
		d := Decide(Debounce{Window: tt.window}, ranAt(t0), t0.Add(tt.elapsed), "e")
		assert.Equal(t, tt.kind, d.Kind, "window %s elapsed %s", tt.window, tt.elapsed)
		assert.Equal(t, tt.remain, d.Remaining)
	}
}

func TestDecide_ClockBackwardsIsZeroElapsed(t *testing.T) {
	d := Decide(Debounce{Window: 30 * time.Second}, ranAt(t0), t0.Add(-time.Minute), "e")
	assert.Equal(t, KindDebounce, d.Kind)
	assert.Equal(t, 30*time.Second, d.Remaining)
}

func TestDecide_Cooldown(t *testing.T) {
	s := Cooldown{Window: 5 * time.Minute}

	d := Decide(s, ranAt(t0), t0.Add(50*time.Second), "e")
	require.Equal(t, KindSkip, d.Kind)
	assert.Equal(t, "cooldown active (4m10s remaining)", d.Reason)

	assert.True(t, Decide(s, ranAt(t0), t0.Add(5*time.Minute), "e").ShouldRun())
}

func TestDecide_SmartHourCap(t *testing.T) {
	s := Smart{Window: 30 * time.Second, MaxRunsPerHour: 3}

	st := NewState()
	for i := 0; i < 3; i++ {
		st = RecordRun(st, t0.Add(time.Duration(i)*10*time.Minute))
	}
	now := t0.Add(25 * time.Minute)

	d := Decide(s, st, now, "e")
	require.Equal(t, KindSkip, d.Kind)
	assert.Equal(t, "max 3 runs per hour reached", d.Reason)

	// The first run falls out of the trailing hour, so the cap lifts.
	later := t0.Add(61 * time.Minute)
	assert.Equal(t, 2, st.RunsInLastHour(later))
	assert.True(t, Decide(s, st, later, "e").ShouldRun())
}

func TestDecide_SmartBelowCapDebounces(t *testing.T) {
	s := Smart{Window: 30 * time.Second, MaxRunsPerHour: 10}

	d := Decide(s, ranAt(t0), t0.Add(5*time.Second), "e")
	assert.Equal(t, KindDebounce, d.Kind)
	assert.Equal(t, 25*time.Second, d.Remaining)
}

func TestDecide_SmartZeroMaxIsUncapped(t *testing.T) {
	st := NewState()
	for i := 0; i < 50; i++ {
		st = RecordRun(st, t0.Add(time.Duration(i)*time.Second))
	}
	d := Decide(Smart{MaxRunsPerHour: 0}, st, t0.Add(time.Minute), "e")
	assert.True(t, d.ShouldRun())
}

func TestDecide_BatchAccumulatesThenFlushes(t *testing.T) {
	s := Batch{Window: 2 * time.Minute}

	st := NewState()
	d := Decide(s, st, t0, "post-commit:aaaaaaa")
	require.Equal(t, KindBatch, d.Kind)
	st = Enqueue(st, "post-commit:aaaaaaa", t0)

	d = Decide(s, st, t0.Add(time.Minute), "post-commit:bbbbbbb")
	require.Equal(t, KindBatch, d.Kind)
	assert.Equal(t, time.Minute, d.Remaining)
	st = Enqueue(st, "post-commit:bbbbbbb", t0.Add(time.Minute))

	// A duplicate id is not queued twice.
	st = Enqueue(st, "post-commit:bbbbbbb", t0.Add(90*time.Second))
	assert.Equal(t, []string{"post-commit:aaaaaaa", "post-commit:bbbbbbb"}, st.PendingBatch)
	assert.Equal(t, t0, *st.BatchOpenedAt)

	d = Decide(s, st, t0.Add(2*time.Minute), "post-commit:ccccccc")
	require.Equal(t, KindRun, d.Kind)
	assert.Equal(t, []string{"post-commit:aaaaaaa", "post-commit:bbbbbbb", "post-commit:ccccccc"}, d.Batch)

	st = RecordRun(st, t0.Add(2*time.Minute))
	assert.Empty(t, st.PendingBatch)
	assert.Nil(t, st.BatchOpenedAt)
}

func TestDecide_BatchFlushDoesNotDuplicateCurrentEvent(t *testing.T) {
	st := Enqueue(NewState(), "e1", t0)
	d := Decide(Batch{Window: time.Minute}, st, t0.Add(time.Hour), "e1")
	assert.Equal(t, []string{"e1"}, d.Batch)
}

func TestDecide_DoesNotMutateState(t *testing.T) {
	st := Enqueue(NewState(), "e1", t0)
	before := append([]string(nil), st.PendingBatch...)

	Decide(Batch{Window: time.Minute}, st, t0.Add(time.Hour), "e2")
	assert.Equal(t, before, st.PendingBatch)
}

func TestRecordRun_PrunesTrailingHour(t *testing.T) {
	st := NewState()
	st = RecordRun(st, t0)
	st = RecordRun(st, t0.Add(30*time.Minute))
	st = RecordRun(st, t0.Add(70*time.Minute))

	assert.Equal(t, 2, st.RunsThisHour)
	assert.Len(t, st.RecentRuns, 2)
	assert.Equal(t, t0.Add(70*time.Minute), *st.LastRun)
}

func TestRunsInLastHour_LegacyState(t *testing.T) {
	last := t0
	st := State{LastRun: &last, RunsThisHour: 7}

	assert.Equal(t, 7, st.RunsInLastHour(t0.Add(10*time.Minute)))
	assert.Equal(t, 0, st.RunsInLastHour(t0.Add(2*time.Hour)))
	assert.Equal(t, 0, NewState().RunsInLastHour(t0))
}

func TestRecordRun_CarriesLegacyCount(t *testing.T) {
	last := t0
	st := State{LastRun: &last, RunsThisHour: 9, PendingBatch: []string{}}

	st = RecordRun(st, t0.Add(10*time.Minute))
	assert.Equal(t, 10, st.RunsThisHour)
	assert.Equal(t, 10, st.RunsInLastHour(t0.Add(10*time.Minute)))

	// the carried runs age out with the old last_run
	assert.Equal(t, 1, st.RunsInLastHour(t0.Add(61*time.Minute)))

	stale := State{LastRun: &last, RunsThisHour: 9}
	assert.Equal(t, 1, RecordRun(stale, t0.Add(2*time.Hour)).RunsThisHour)
}

func TestRecordRun_LegacyCountHitsSmartCap(t *testing.T) {
	last := t0
	st := RecordRun(State{LastRun: &last, RunsThisHour: 3}, t0.Add(time.Minute))

	d := Decide(Smart{Window: time.Second, MaxRunsPerHour: 4}, st, t0.Add(2*time.Minute), "e")
	assert.Equal(t, KindSkip, d.Kind)
}

func TestParseStrategy(t *testing.T) {
	cfg := config.DefaultRateLimitConfig()

	tests := []struct {
		name string
		want Strategy
	}{
		{"none", None{}},
		{"debounce", Debounce{Window: 30 * time.Second}},
		{"cooldown", Cooldown{Window: 5 * time.Minute}},
		{"batch", Batch{Window: 2 * time.Minute}},
		{"smart", Smart{Window: 30 * time.Second, MaxRunsPerHour: 10}},
		{"Smart", Smart{Window: 30 * time.Second, MaxRunsPerHour: 10}},
	}

	for _, tt := range tests {
		cfg.Strategy = tt.name
		got, err := ParseStrategy(cfg)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got)
	}

	cfg.Strategy = "sometimes"
	_, err := ParseStrategy(cfg)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrConfig))
	assert.Contains(t, err.Error(), "sometimes")
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "run", Decision{Kind: KindRun}.String())
	assert.Equal(t, "skip: nope", Decision{Kind: KindSkip, Reason: "nope"}.String())
	assert.Equal(t, "debounce (20s remaining)", Decision{Kind: KindDebounce, Remaining: 20 * time.Second}.String())
	assert.Equal(t, "run (flushing 2 batched events)", Decision{Kind: KindRun, Batch: []string{"a", "b"}}.String())
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "none", Describe(None{}))
	assert.Equal(t, "debounce(30s)", Describe(Debounce{Window: 30 * time.Second}))
	assert.Equal(t, "smart(30s, max 4/h)", Describe(Smart{Window: 30 * time.Second, MaxRunsPerHour: 4}))
}
