package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/sentinela-corte/internal/config"
	"github.com/andresuchdata/sentinela-corte/internal/domain"
)

type fakeDispatcher struct {
	mu         sync.Mutex
	sends      []time.Time
	revenue    bool
	sendErr    error
	revenueErr error
}

func (f *fakeDispatcher) Send(ctx context.Context, now time.Time) (*domain.Dispatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sends = append(f.sends, now)
	return &domain.Dispatch{GeneratedAt: now}, nil
}

func (f *fakeDispatcher) HadRevenue(ctx context.Context, now time.Time) (bool, error) {
	return f.revenue, f.revenueErr
}

func (f *fakeDispatcher) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestDaily(t *testing.T, dispatcher *fakeDispatcher, at time.Time) (*Daily, *clock, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "sentinela_corte_state.json")
	d, err := NewDaily(dispatcher, NewStateStore(path), config.ScheduleConfig{TargetTime: "08:00", PollSeconds: 1}, time.UTC)
	require.NoError(t, err)
	c := &clock{t: at}
	d.now = c.now
	return d, c, path
}

func at(y int, m time.Month, day, hh, mm int) time.Time {
	return time.Date(y, m, day, hh, mm, 0, 0, time.UTC)
}

func TestTickWaitsForTargetTime(t *testing.T) {
	f := &fakeDispatcher{revenue: true}
	d, _, _ := newTestDaily(t, f, at(2026, 10, 14, 7, 59))

	require.NoError(t, d.Tick(context.Background()))
	assert.Zero(t, f.sendCount())
	assert.Empty(t, d.State().LastSentDate)
}

func TestTickSendsOncePerDay(t *testing.T) {
	f := &fakeDispatcher{revenue: true}
	d, c, path := newTestDaily(t, f, at(2026, 10, 14, 8, 0))

	require.NoError(t, d.Tick(context.Background()))
	c.t = at(2026, 10, 14, 9, 30)
	require.NoError(t, d.Tick(context.Background()))

	assert.Equal(t, 1, f.sendCount())
	assert.Equal(t, "2026-10-14", d.State().LastSentDate)
	assert.Equal(t, State{LastSentDate: "2026-10-14"}, NewStateStore(path).Load())

	c.t = at(2026, 10, 15, 8, 1)
	require.NoError(t, d.Tick(context.Background()))
	assert.Equal(t, 2, f.sendCount())
}

func TestTickSkipsDayWithoutRevenue(t *testing.T) {
	f := &fakeDispatcher{revenue: false}
	d, _, _ := newTestDaily(t, f, at(2026, 10, 14, 8, 0))

	require.NoError(t, d.Tick(context.Background()))
	assert.Zero(t, f.sendCount())
	assert.Equal(t, "2026-10-14", d.State().LastSentDate)
}

func TestTickClosingAlwaysSends(t *testing.T) {
	f := &fakeDispatcher{revenue: false}
	d, _, _ := newTestDaily(t, f, at(2026, 11, 1, 8, 0))

	require.NoError(t, d.Tick(context.Background()))
	assert.Equal(t, 1, f.sendCount())
	assert.Equal(t, State{LastSentDate: "2026-11-01", LastClosingKey: "2026-10"}, d.State())
}

func TestTickClosingNotDuplicated(t *testing.T) {
	f := &fakeDispatcher{}
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, NewStateStore(path).Save(State{LastSentDate: "2026-10-31", LastClosingKey: "2026-10"}))

	d, err := NewDaily(f, NewStateStore(path), config.ScheduleConfig{TargetTime: "08:00"}, time.UTC)
	require.NoError(t, err)
	d.now = func() time.Time { return at(2026, 11, 1, 10, 0) }

	require.NoError(t, d.Tick(context.Background()))
	assert.Zero(t, f.sendCount())
	assert.Equal(t, "2026-11-01", d.State().LastSentDate)
}

func TestTickRetriesAfterFailure(t *testing.T) {
	f := &fakeDispatcher{revenue: true, sendErr: errors.New("smtp down")}
	d, _, _ := newTestDaily(t, f, at(2026, 10, 14, 8, 0))

	assert.Error(t, d.Tick(context.Background()))
	assert.Empty(t, d.State().LastSentDate)

	f.mu.Lock()
	f.sendErr = nil
	f.mu.Unlock()
	require.NoError(t, d.Tick(context.Background()))
	assert.Equal(t, 1, f.sendCount())

	f.revenueErr = errors.New("db down")
	d.now = func() time.Time { return at(2026, 10, 15, 8, 0) }
	assert.Error(t, d.Tick(context.Background()))
	assert.Equal(t, "2026-10-14", d.State().LastSentDate)
}

func TestStateStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	assert.Equal(t, State{}, NewStateStore(path).Load())
	assert.Equal(t, State{}, NewStateStore(filepath.Join(t.TempDir(), "missing.json")).Load())
}

func TestStateStoreFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, NewStateStore(path).Save(State{LastSentDate: "2026-11-01", LastClosingKey: "2026-10"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"last_sent_date":"2026-11-01","last_fechamento_key":"2026-10"}`, string(raw))
}

func TestNewDailyRejectsBadTargetTime(t *testing.T) {
	_, err := NewDaily(&fakeDispatcher{}, NewStateStore(filepath.Join(t.TempDir(), "s.json")), config.ScheduleConfig{TargetTime: "8h"}, time.UTC)
	assert.Error(t, err)
}

func TestRunTicksImmediatelyAndStops(t *testing.T) {
	f := &fakeDispatcher{revenue: true}
	d, _, _ := newTestDaily(t, f, at(2026, 10, 14, 8, 0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return f.sendCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("daily loop did not stop")
	}
	assert.Equal(t, 1, f.sendCount())
}
