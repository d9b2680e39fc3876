package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"medease/internal/domain/medicines"
)

const bellEvery = 2 * time.Second

// bellSounder toca la campana de la terminal en loop hasta Stop.
type bellSounder struct {
	w     io.Writer
	every time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

func newBellSounder(w io.Writer) *bellSounder {
	return &bellSounder{w: w, every: bellEvery}
}

func (b *bellSounder) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stop != nil {
		return nil
	}
	if _, err := io.WriteString(b.w, "\a"); err != nil {
		return err
	}

	stop := make(chan struct{})
	b.stop = stop
	go func() {
		t := time.NewTicker(b.every)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				_, _ = io.WriteString(b.w, "\a")
			}
		}
	}()
	return nil
}

func (b *bellSounder) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stop != nil {
		close(b.stop)
		b.stop = nil
	}
}

// bannerDisplay imprime la alarma visual.
type bannerDisplay struct {
	w   io.Writer
	now func() time.Time
}

func (d bannerDisplay) Show(active []medicines.Medicine) {
	var sb strings.Builder
	sb.WriteString("\n==================== MEDICINE REMINDER ====================\n")
	fmt.Fprintf(&sb, "  %s\n", d.now().Format("Mon 02 Jan 15:04"))
	for _, m := range active {
		fmt.Fprintf(&sb, "  - %s (%s) at %s\n", m.Name, m.Dosage, m.Time)
	}
	sb.WriteString("  Press Enter to acknowledge.\n")
	sb.WriteString("===========================================================\n")
	_, _ = io.WriteString(d.w, sb.String())
}

func (d bannerDisplay) Clear() {
	_, _ = io.WriteString(d.w, "  alarm cleared\n")
}
