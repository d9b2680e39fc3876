// Package poller es el recordatorio del lado cliente: consulta las medicinas
// del usuario cada cierto intervalo y levanta una alarma (visual + audio)
// cuando alguna vence en el minuto actual. La alarma persiste hasta que el
// usuario la reconoce.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"medease/internal/domain/medicines"
	"medease/internal/platform/logger"
	"medease/internal/reminder"
)

const (
	DefaultInterval = time.Minute
	ledgerLayout    = "2006-01-02 15:04"
)

var (
	ErrAlreadyRunning = errors.New("poller already running")
	ErrNotRunning     = errors.New("poller not running")
	// ErrStale: el resultado llegó después de Stop y se descartó.
	ErrStale = errors.New("poll result discarded: poller stopped")
)

type State int

const (
	Idle State = iota
	Polling
	AlarmActive
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Polling:
		return "polling"
	case AlarmActive:
		return "alarm_active"
	default:
		return "unknown"
	}
}

// Fetcher trae las medicinas del usuario autenticado. Cualquier error (salvo
// la cancelación del ctx) se trata como sesión inválida.
type Fetcher interface {
	ListMine(ctx context.Context) ([]medicines.Medicine, error)
}

// Sounder reproduce el audio de la alarma en loop hasta Stop.
type Sounder interface {
	Start() error
	Stop()
}

// Display muestra u oculta la alarma visual.
type Display interface {
	Show(active []medicines.Medicine)
	Clear()
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

func newStdTicker(d time.Duration) Ticker { return stdTicker{t: time.NewTicker(d)} }

type Options struct {
	Fetcher Fetcher
	Sounder Sounder
	Display Display
	Logger  logger.Logger

	Interval  time.Duration
	Now       func() time.Time
	NewTicker func(time.Duration) Ticker

	// OnSessionInvalid se invoca una vez por sesión cuando falla un fetch,
	// después de detener el poller. Puede llamar a Stop o Start.
	OnSessionInvalid func(err error)
}

// Snapshot es una copia del estado observable.
type Snapshot struct {
	State  State
	Active []medicines.Medicine
}

// session agrupa todo lo mutable; se protege con Poller.mu.
type session struct {
	state  State
	active []medicines.Medicine
	// fired: medicine id -> minuto (ledgerLayout) en que ya disparó.
	fired  map[string]string
	gen    uint64
	cancel context.CancelFunc
}

type Poller struct {
	fetch   Fetcher
	sounder Sounder
	display Display
	log     logger.Logger

	interval  time.Duration
	now       func() time.Time
	newTicker func(time.Duration) Ticker
	onInvalid func(error)

	// fx serializa los efectos sobre Sounder y Display; se toma antes que mu.
	fx sync.Mutex
	mu sync.Mutex
	s  session
}

func New(opts Options) (*Poller, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("poller: fetcher is required")
	}
	p := &Poller{
		fetch:     opts.Fetcher,
		sounder:   opts.Sounder,
		display:   opts.Display,
		log:       opts.Logger,
		interval:  opts.Interval,
		now:       opts.Now,
		newTicker: opts.NewTicker,
		onInvalid: opts.OnSessionInvalid,
	}
	if p.sounder == nil {
		p.sounder = nopSounder{}
	}
	if p.display == nil {
		p.display = nopDisplay{}
	}
	if p.log == nil {
		p.log = logger.NewNop()
	}
	p.log = p.log.With(map[string]any{"component": "poller"})
	if p.interval <= 0 {
		p.interval = DefaultInterval
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.newTicker == nil {
		p.newTicker = newStdTicker
	}
	if p.onInvalid == nil {
		p.onInvalid = func(error) {}
	}
	return p, nil
}

// Start hace un poll inmediato y después uno por intervalo hasta Stop o
// hasta que ctx se cancele. Cancelar ctx equivale a Stop: apaga la alarma y
// no cuenta como sesión inválida.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.s.state != Idle {
		p.mu.Unlock()
		return ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.s = session{
		state:  Polling,
		fired:  map[string]string{},
		gen:    p.s.gen + 1,
		cancel: cancel,
	}
	gen := p.s.gen
	p.mu.Unlock()

	p.log.Info("poller started", map[string]any{"interval": p.interval.String()})

	switch err := p.poll(runCtx, gen); {
	case err == nil:
		go p.loop(runCtx, gen)
	case errors.Is(err, ErrStale):
		p.teardown(gen)
	}
	return nil
}

func (p *Poller) loop(ctx context.Context, gen uint64) {
	t := p.newTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			p.teardown(gen)
			return
		case <-t.C():
			err := p.poll(ctx, gen)
			if errors.Is(err, ErrStale) {
				p.teardown(gen)
				return
			}
			if err != nil || p.generation() != gen {
				return
			}
		}
	}
}

// teardown detiene la sesión gen si sigue siendo la actual.
func (p *Poller) teardown(gen uint64) {
	p.fx.Lock()
	defer p.fx.Unlock()

	p.mu.Lock()
	if p.s.gen != gen || p.s.state == Idle {
		p.mu.Unlock()
		return
	}
	e := p.stopLocked()
	p.mu.Unlock()

	p.apply(e)
	p.log.Info("poller stopped: context done", nil)
}

// Poll fuerza una evaluación fuera del intervalo.
func (p *Poller) Poll(ctx context.Context) error {
	p.mu.Lock()
	if p.s.state == Idle {
		p.mu.Unlock()
		return ErrNotRunning
	}
	gen := p.s.gen
	p.mu.Unlock()
	return p.poll(ctx, gen)
}

func (p *Poller) poll(ctx context.Context, gen uint64) error {
	list, fetchErr := p.fetch.ListMine(ctx)
	if ctx.Err() != nil {
		// Stop o cancelación del llamador: se descarta, no es falla de sesión.
		return ErrStale
	}
	now := p.now()

	res, err := p.evaluate(gen, list, fetchErr, now)
	if errors.Is(err, ErrStale) {
		return err
	}
	if err != nil {
		p.log.Warn("poller stopped: session invalid", map[string]any{"err": err})
		p.onInvalid(err)
		return err
	}

	if res.soundErr != nil {
		p.log.Warn("alarm audio failed; showing visual alarm only", map[string]any{"err": res.soundErr})
	}
	if res.fresh > 0 {
		p.log.Info("alarm raised", map[string]any{
			"clock":  reminder.Clock(now),
			"new":    res.fresh,
			"active": res.active,
		})
	}
	return nil
}

type pollResult struct {
	fresh    int
	active   int
	soundErr error
}

// evaluate aplica el resultado del fetch a la sesión gen. Los efectos sobre
// Sounder y Display corren fuera de p.mu.
func (p *Poller) evaluate(gen uint64, list []medicines.Medicine, fetchErr error, now time.Time) (pollResult, error) {
	p.fx.Lock()
	defer p.fx.Unlock()

	p.mu.Lock()
	if p.s.gen != gen || p.s.state == Idle {
		p.mu.Unlock()
		return pollResult{}, ErrStale
	}

	if fetchErr != nil {
		e := p.stopLocked()
		p.mu.Unlock()
		p.apply(e)
		return pollResult{}, fetchErr
	}

	key := now.Format(ledgerLayout)
	due := reminder.DueAt(list, now)

	// El ledger solo guarda el minuto actual.
	fired := make(map[string]string, len(due))
	for id, k := range p.s.fired {
		if k == key {
			fired[id] = k
		}
	}

	fresh := make([]medicines.Medicine, 0, len(due))
	for _, m := range due {
		if fired[m.ID] == key {
			continue
		}
		fired[m.ID] = key
		fresh = append(fresh, m)
	}
	p.s.fired = fired

	if len(fresh) == 0 {
		p.mu.Unlock()
		return pollResult{}, nil
	}

	wasActive := p.s.state == AlarmActive
	p.s.active = merge(p.s.active, fresh)
	p.s.state = AlarmActive
	e := effects{show: cloneList(p.s.active), soundStart: !wasActive}
	res := pollResult{fresh: len(fresh), active: len(p.s.active)}
	p.mu.Unlock()

	res.soundErr = p.apply(e)
	return res, nil
}

// Acknowledge apaga la alarma completa y devuelve las medicinas reconocidas.
// Sin alarma activa no hace nada.
func (p *Poller) Acknowledge() []medicines.Medicine {
	p.fx.Lock()
	defer p.fx.Unlock()

	p.mu.Lock()
	if p.s.state != AlarmActive {
		p.mu.Unlock()
		return nil
	}
	acked := p.s.active
	p.s.active = nil
	p.s.state = Polling
	p.mu.Unlock()

	p.apply(effects{soundStop: true, clear: true})
	return acked
}

// Stop es idempotente.
func (p *Poller) Stop() {
	p.fx.Lock()
	defer p.fx.Unlock()

	p.mu.Lock()
	if p.s.state == Idle {
		p.mu.Unlock()
		return
	}
	e := p.stopLocked()
	p.mu.Unlock()

	p.apply(e)
	p.log.Info("poller stopped", nil)
}

// stopLocked pasa a Idle y devuelve los efectos pendientes. Requiere p.mu.
func (p *Poller) stopLocked() effects {
	if p.s.cancel != nil {
		p.s.cancel()
	}
	e := effects{clear: true, soundStop: p.s.state == AlarmActive}
	p.s = session{state: Idle, gen: p.s.gen + 1}
	return e
}

// effects son las llamadas a Sounder/Display decididas bajo p.mu.
type effects struct {
	soundStop  bool
	clear      bool
	show       []medicines.Medicine
	soundStart bool
}

// apply corre con p.fx tomado y p.mu libre: Display y Sounder pueden
// llamar a Snapshot.
func (p *Poller) apply(e effects) error {
	if e.soundStop {
		p.sounder.Stop()
	}
	if e.clear {
		p.display.Clear()
	}
	if e.show != nil {
		p.display.Show(e.show)
	}
	if e.soundStart {
		return p.sounder.Start()
	}
	return nil
}

func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{State: p.s.state, Active: cloneList(p.s.active)}
}

func (p *Poller) generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.s.gen
}

// merge agrega a cur las medicinas de add que no estén (por ID),
// respetando el orden de llegada.
func merge(cur, add []medicines.Medicine) []medicines.Medicine {
	out := cloneList(cur)
	seen := make(map[string]struct{}, len(cur)+len(add))
	for _, m := range cur {
		seen[m.ID] = struct{}{}
	}
	for _, m := range add {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

func cloneList(in []medicines.Medicine) []medicines.Medicine {
	if len(in) == 0 {
		return nil
	}
	out := make([]medicines.Medicine, len(in))
	copy(out, in)
	return out
}

type nopSounder struct{}

func (nopSounder) Start() error { return nil }
func (nopSounder) Stop()        {}

type nopDisplay struct{}

func (nopDisplay) Show([]medicines.Medicine) {}
func (nopDisplay) Clear()                    {}
