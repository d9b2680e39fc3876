package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"medease/internal/domain/medicines"
	"medease/internal/platform/logger"
	"medease/internal/poller"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	list []medicines.Medicine
	err  error
}

func (f stubFetcher) ListMine(context.Context) ([]medicines.Medicine, error) {
	return f.list, f.err
}

type recordingMarker struct {
	mu  sync.Mutex
	ids []string
}

func (m *recordingMarker) MarkTaken(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, id)
	return nil
}

func (m *recordingMarker) taken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ids...)
}

// startPoller arranca un poller con reloj fijo a las 09:00 y devuelve el
// canal de sesión inválida como lo arma runWatch.
func startPoller(t *testing.T, ctx context.Context, f poller.Fetcher) (*poller.Poller, <-chan error) {
	t.Helper()
	invalid := make(chan error, 1)
	p, err := poller.New(poller.Options{
		Fetcher: f,
		Now:     func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) },
		OnSessionInvalid: func(err error) {
			select {
			case invalid <- err:
			default:
			}
		},
	})
	require.NoError(t, err)
	require.NoError(t, p.Start(ctx))
	t.Cleanup(p.Stop)
	return p, invalid
}

func TestWatchLoop_SessionFailureLogsOut(t *testing.T) {
	ctx := context.Background()
	p, invalid := startPoller(t, ctx, stubFetcher{err: errors.New("401 unauthorized")})

	out := &syncBuffer{}
	err := watchLoop(ctx, out, logger.NewNop(), p, &recordingMarker{}, make(chan struct{}), invalid)

	assert.ErrorIs(t, err, errLoggedOut)
	assert.Contains(t, out.String(), "logged out: 401 unauthorized")
}

func TestWatchLoop_EnterAcknowledgesAndMarksTaken(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	list := []medicines.Medicine{
		{ID: "m1", Name: "Aspirin", Time: "09:00"},
		{ID: "m2", Name: "Vitamin D", Time: "09:00"},
	}
	p, invalid := startPoller(t, ctx, stubFetcher{list: list})
	require.Equal(t, poller.AlarmActive, p.Snapshot().State)

	out := &syncBuffer{}
	marker := &recordingMarker{}
	lines := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- watchLoop(ctx, out, logger.NewNop(), p, marker, lines, invalid) }()

	lines <- struct{}{}
	assert.Eventually(t, func() bool {
		return len(marker.taken()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"m1", "m2"}, marker.taken())
	assert.Equal(t, poller.Polling, p.Snapshot().State)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch loop did not return")
	}
	assert.Contains(t, out.String(), "marked Aspirin as taken")
	assert.Contains(t, out.String(), "marked Vitamin D as taken")
}

func TestWatchLoop_ContextCancelIsNotLogout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p, invalid := startPoller(t, ctx, stubFetcher{list: []medicines.Medicine{{ID: "m1", Name: "Aspirin", Time: "09:00"}}})

	cancel()
	err := watchLoop(ctx, &syncBuffer{}, logger.NewNop(), p, &recordingMarker{}, make(chan struct{}), invalid)
	assert.NoError(t, err)

	assert.Eventually(t, func() bool {
		return p.Snapshot().State == poller.Idle
	}, time.Second, 5*time.Millisecond)
	select {
	case err := <-invalid:
		t.Fatalf("unexpected session invalid after cancel: %v", err)
	default:
	}
}
