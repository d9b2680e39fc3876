package main

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"medease/internal/domain/medicines"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestBellSounder_LoopsUntilStop(t *testing.T) {
	out := &syncBuffer{}
	b := &bellSounder{w: out, every: 5 * time.Millisecond}

	require.NoError(t, b.Start())
	require.NoError(t, b.Start())
	assert.Eventually(t, func() bool {
		return strings.Count(out.String(), "\a") >= 3
	}, time.Second, 5*time.Millisecond)

	b.Stop()
	b.Stop()
	n := strings.Count(out.String(), "\a")
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, strings.Count(out.String(), "\a"))
}

func TestBannerDisplay_ListsMedicines(t *testing.T) {
	var out bytes.Buffer
	d := bannerDisplay{w: &out, now: func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }}

	d.Show([]medicines.Medicine{
		{Name: "Aspirin", Dosage: "100mg", Time: "09:00"},
		{Name: "Vitamin D", Dosage: "1 tab", Time: "09:00"},
	})

	s := out.String()
	assert.Contains(t, s, "Aspirin (100mg) at 09:00")
	assert.Contains(t, s, "Vitamin D (1 tab) at 09:00")
	assert.Contains(t, s, "Press Enter")
}
