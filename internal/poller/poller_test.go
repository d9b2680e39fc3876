package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"medease/internal/domain/medicines"
	"medease/internal/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeFetcher struct {
	mu   sync.Mutex
	list []medicines.Medicine
	err  error
	// hook corre dentro de ListMine (para simular Stop concurrente).
	hook func()
}

func (f *fakeFetcher) set(list []medicines.Medicine, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.list, f.err = list, err
}

func (f *fakeFetcher) ListMine(context.Context) ([]medicines.Medicine, error) {
	f.mu.Lock()
	list, err, hook := f.list, f.err, f.hook
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return list, err
}

type fakeSounder struct {
	mu     sync.Mutex
	starts int
	stops  int
	err    error
}

func (s *fakeSounder) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts++
	return s.err
}

func (s *fakeSounder) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
}

type fakeDisplay struct {
	mu      sync.Mutex
	showing []medicines.Medicine
	shows   int
	clears  int
}

func (d *fakeDisplay) Show(active []medicines.Medicine) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.showing = active
	d.shows++
}

func (d *fakeDisplay) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.showing = nil
	d.clears++
}

func (d *fakeDisplay) ids() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return ids(d.showing)
}

type manualTicker struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               { t.once.Do(func() { close(t.stopped) }) }

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type fixture struct {
	p       *Poller
	fetch   *fakeFetcher
	sound   *fakeSounder
	display *fakeDisplay
	clock   *clock
	ticker  *manualTicker
	invalid []error
	logs    *observer.ObservedLogs
}

func newFixture(t *testing.T, list []medicines.Medicine) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{
		fetch:   &fakeFetcher{list: list},
		sound:   &fakeSounder{},
		display: &fakeDisplay{},
		clock:   &clock{t: time.Date(2025, 6, 1, 8, 59, 30, 0, time.UTC)},
		ticker:  &manualTicker{ch: make(chan time.Time), stopped: make(chan struct{})},
		logs:    logs,
	}
	var mu sync.Mutex
	p, err := New(Options{
		Fetcher:   f.fetch,
		Sounder:   f.sound,
		Display:   f.display,
		Logger:    logger.FromZap(zap.New(core)),
		Now:       f.clock.Now,
		NewTicker: func(time.Duration) Ticker { return f.ticker },
		OnSessionInvalid: func(err error) {
			mu.Lock()
			defer mu.Unlock()
			f.invalid = append(f.invalid, err)
		},
	})
	require.NoError(t, err)
	f.p = p
	t.Cleanup(p.Stop)
	return f
}

func at(hh, mm, ss int) time.Time {
	return time.Date(2025, 6, 1, hh, mm, ss, 0, time.UTC)
}

func ids(list []medicines.Medicine) []string {
	out := make([]string, 0, len(list))
	for _, m := range list {
		out = append(out, m.ID)
	}
	return out
}

var (
	aspirin   = medicines.Medicine{ID: "m1", Name: "Aspirin", Time: "09:00"}
	ibuprofen = medicines.Medicine{ID: "m2", Name: "Ibuprofen", Time: "09:01"}
	vitaminD  = medicines.Medicine{ID: "m3", Name: "Vitamin D", Time: "09:00"}
)

func TestStart_ImmediatePollWithoutMatchKeepsPolling(t *testing.T) {
	f := newFixture(t, []medicines.Medicine{aspirin})
	require.NoError(t, f.p.Start(context.Background()))

	snap := f.p.Snapshot()
	assert.Equal(t, Polling, snap.State)
	assert.Empty(t, snap.Active)
	assert.Equal(t, 0, f.sound.starts)
}

func TestStart_Twice(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.p.Start(context.Background()))
	assert.ErrorIs(t, f.p.Start(context.Background()), ErrAlreadyRunning)
}

func TestPoll_NotRunning(t *testing.T) {
	f := newFixture(t, nil)
	assert.ErrorIs(t, f.p.Poll(context.Background()), ErrNotRunning)
}

func TestAlarm_RaisedAtMatchingMinute(t *testing.T) {
	f := newFixture(t, []medicines.Medicine{aspirin, ibuprofen})
	require.NoError(t, f.p.Start(context.Background()))

	f.clock.Set(at(9, 0, 5))
	require.NoError(t, f.p.Poll(context.Background()))

	snap := f.p.Snapshot()
	assert.Equal(t, AlarmActive, snap.State)
	assert.Equal(t, []string{"m1"}, ids(snap.Active))
	assert.Equal(t, []string{"m1"}, f.display.ids())
	assert.Equal(t, 1, f.sound.starts)
}

func TestAlarm_PersistsUntilAcknowledged(t *testing.T) {
	f := newFixture(t, []medicines.Medicine{aspirin})
	require.NoError(t, f.p.Start(context.Background()))

	f.clock.Set(at(9, 0, 0))
	require.NoError(t, f.p.Poll(context.Background()))

	// 09:01 ya no hay match, pero la alarma sigue.
	f.clock.Set(at(9, 1, 0))
	require.NoError(t, f.p.Poll(context.Background()))

	snap := f.p.Snapshot()
	assert.Equal(t, AlarmActive, snap.State)
	assert.Equal(t, []string{"m1"}, ids(snap.Active))
	assert.Equal(t, 0, f.sound.stops)

	acked := f.p.Acknowledge()
	assert.Equal(t, []string{"m1"}, ids(acked))

	snap = f.p.Snapshot()
	assert.Equal(t, Polling, snap.State)
	assert.Empty(t, snap.Active)
	assert.Equal(t, 1, f.sound.stops)
	assert.Empty(t, f.display.ids())
}

func TestAlarm_TwoMedicinesSameMinuteSingleAlarm(t *testing.T) {
	f := newFixture(t, []medicines.Medicine{aspirin, vitaminD})
	require.NoError(t, f.p.Start(context.Background()))

	f.clock.Set(at(9, 0, 0))
	require.NoError(t, f.p.Poll(context.Background()))

	assert.Equal(t, []string{"m1", "m3"}, ids(f.p.Snapshot().Active))
	assert.Equal(t, 1, f.sound.starts)
}

func TestAlarm_NewMatchMergesWithoutRestartingAudio(t *testing.T) {
	f := newFixture(t, []medicines.Medicine{aspirin, ibuprofen})
	require.NoError(t, f.p.Start(context.Background()))

	f.clock.Set(at(9, 0, 0))
	require.NoError(t, f.p.Poll(context.Background()))
	f.clock.Set(at(9, 1, 0))
	require.NoError(t, f.p.Poll(context.Background()))

	assert.Equal(t, []string{"m1", "m2"}, ids(f.p.Snapshot().Active))
	assert.Equal(t, []string{"m1", "m2"}, f.display.ids())
	assert.Equal(t, 2, f.display.shows)
	assert.Equal(t, 1, f.sound.starts)

	assert.Equal(t, []string{"m1", "m2"}, ids(f.p.Acknowledge()))
}

func TestAlarm_SameMinuteNotReRaisedAfterAck(t *testing.T) {
	f := newFixture(t, []medicines.Medicine{aspirin})
	require.NoError(t, f.p.Start(context.Background()))

	f.clock.Set(at(9, 0, 0))
	require.NoError(t, f.p.Poll(context.Background()))
	f.p.Acknowledge()

	f.clock.Set(at(9, 0, 40))
	require.NoError(t, f.p.Poll(context.Background()))
	assert.Equal(t, Polling, f.p.Snapshot().State)

	// Al día siguiente vuelve a disparar.
	f.clock.Set(at(9, 0, 0).AddDate(0, 0, 1))
	require.NoError(t, f.p.Poll(context.Background()))
	assert.Equal(t, AlarmActive, f.p.Snapshot().State)
}

func TestAcknowledge_NoAlarmIsNoop(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.p.Start(context.Background()))

	assert.Nil(t, f.p.Acknowledge())
	assert.Equal(t, 0, f.sound.stops)
	assert.Equal(t, Polling, f.p.Snapshot().State)
}

func TestAudioFailureStillShowsVisual(t *testing.T) {
	f := newFixture(t, []medicines.Medicine{aspirin})
	f.sound.err = errors.New("autoplay blocked")
	require.NoError(t, f.p.Start(context.Background()))

	f.clock.Set(at(9, 0, 0))
	require.NoError(t, f.p.Poll(context.Background()))

	assert.Equal(t, AlarmActive, f.p.Snapshot().State)
	assert.Equal(t, []string{"m1"}, f.display.ids())
	assert.Equal(t, 1, f.logs.FilterMessage("alarm audio failed; showing visual alarm only").Len())
}

func TestFetchFailure_StopsAndSignalsOnce(t *testing.T) {
	f := newFixture(t, []medicines.Medicine{aspirin})
	require.NoError(t, f.p.Start(context.Background()))

	f.clock.Set(at(9, 0, 0))
	require.NoError(t, f.p.Poll(context.Background()))

	expired := errors.New("401 unauthorized")
	f.fetch.set(nil, expired)
	assert.ErrorIs(t, f.p.Poll(context.Background()), expired)

	snap := f.p.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Empty(t, snap.Active)
	assert.Equal(t, 1, f.sound.stops)
	assert.Empty(t, f.display.ids())
	require.Len(t, f.invalid, 1)
	assert.ErrorIs(t, f.invalid[0], expired)

	assert.ErrorIs(t, f.p.Poll(context.Background()), ErrNotRunning)
	assert.Len(t, f.invalid, 1)

	select {
	case <-f.ticker.stopped:
	case <-time.After(time.Second):
		t.Fatal("ticker not stopped")
	}
}

func TestFetchFailure_OnFirstPoll(t *testing.T) {
	f := newFixture(t, nil)
	f.fetch.set(nil, errors.New("no token"))

	require.NoError(t, f.p.Start(context.Background()))
	assert.Equal(t, Idle, f.p.Snapshot().State)
	assert.Len(t, f.invalid, 1)
}

func TestStop_IdempotentAndSilences(t *testing.T) {
	f := newFixture(t, []medicines.Medicine{aspirin})
	require.NoError(t, f.p.Start(context.Background()))
	f.clock.Set(at(9, 0, 0))
	require.NoError(t, f.p.Poll(context.Background()))

	f.p.Stop()
	f.p.Stop()

	assert.Equal(t, Idle, f.p.Snapshot().State)
	assert.Equal(t, 1, f.sound.stops)
	assert.Empty(t, f.invalid)

	// Se puede volver a arrancar.
	require.NoError(t, f.p.Start(context.Background()))
	assert.Equal(t, Polling, f.p.Snapshot().State)
}

func TestStop_DiscardsInFlightPoll(t *testing.T) {
	f := newFixture(t, []medicines.Medicine{aspirin})
	require.NoError(t, f.p.Start(context.Background()))

	f.clock.Set(at(9, 0, 0))
	// Stop corre mientras el fetch está en vuelo.
	f.fetch.mu.Lock()
	f.fetch.hook = func() { f.p.Stop() }
	f.fetch.mu.Unlock()

	assert.ErrorIs(t, f.p.Poll(context.Background()), ErrStale)
	assert.Equal(t, Idle, f.p.Snapshot().State)
	assert.Equal(t, 0, f.sound.starts)
	assert.Empty(t, f.display.ids())
}

func TestLoop_PollsOnTick(t *testing.T) {
	f := newFixture(t, []medicines.Medicine{aspirin})
	require.NoError(t, f.p.Start(context.Background()))

	f.clock.Set(at(9, 0, 0))
	f.ticker.ch <- at(9, 0, 0)

	assert.Eventually(t, func() bool {
		return f.p.Snapshot().State == AlarmActive
	}, time.Second, 5*time.Millisecond)

	f.p.Stop()
	select {
	case <-f.ticker.stopped:
	case <-time.After(time.Second):
		t.Fatal("ticker not stopped")
	}
}

func TestContextCancel_DuringFetchIsNotSessionFailure(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.fetch.mu.Lock()
	f.fetch.err = context.Canceled
	f.fetch.hook = cancel
	f.fetch.mu.Unlock()

	require.NoError(t, f.p.Start(ctx))

	assert.Equal(t, Idle, f.p.Snapshot().State)
	assert.Empty(t, f.invalid)
	assert.Equal(t, 0, f.logs.FilterMessage("poller stopped: session invalid").Len())
}

func TestContextCancel_SilencesActiveAlarm(t *testing.T) {
	f := newFixture(t, []medicines.Medicine{aspirin})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, f.p.Start(ctx))

	f.clock.Set(at(9, 0, 0))
	require.NoError(t, f.p.Poll(context.Background()))
	require.Equal(t, AlarmActive, f.p.Snapshot().State)

	cancel()

	assert.Eventually(t, func() bool {
		return f.p.Snapshot().State == Idle
	}, time.Second, 5*time.Millisecond)
	select {
	case <-f.ticker.stopped:
	case <-time.After(time.Second):
		t.Fatal("ticker not stopped")
	}

	f.sound.mu.Lock()
	stops := f.sound.stops
	f.sound.mu.Unlock()
	assert.Equal(t, 1, stops)
	assert.Empty(t, f.display.ids())
	assert.Empty(t, f.invalid)

	require.NoError(t, f.p.Start(context.Background()))
	assert.Equal(t, Polling, f.p.Snapshot().State)
}

// snapshotDisplay lee el estado del poller desde sus callbacks.
type snapshotDisplay struct {
	p    *Poller
	seen []State
}

func (d *snapshotDisplay) Show([]medicines.Medicine) { d.seen = append(d.seen, d.p.Snapshot().State) }
func (d *snapshotDisplay) Clear()                    { d.seen = append(d.seen, d.p.Snapshot().State) }

func TestDisplay_CallbacksCanReadSnapshot(t *testing.T) {
	d := &snapshotDisplay{}
	c := &clock{t: at(9, 0, 0)}
	p, err := New(Options{
		Fetcher:   &fakeFetcher{list: []medicines.Medicine{aspirin}},
		Display:   d,
		Now:       c.Now,
		NewTicker: func(time.Duration) Ticker { return &manualTicker{ch: make(chan time.Time), stopped: make(chan struct{})} },
	})
	require.NoError(t, err)
	d.p = p

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = p.Start(context.Background())
		p.Acknowledge()
		p.Stop()
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("display callback deadlocked on Snapshot")
	}
	assert.Equal(t, []State{AlarmActive, Polling, Idle}, d.seen)
}
