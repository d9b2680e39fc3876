// Package scheduler corre el recordatorio del lado servidor: una vez por
// minuto busca las medicinas que vencen y notifica a cada dueño por todos
// los canales que tenga configurados.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"medease/internal/domain/medicines"
	"medease/internal/domain/users"
	"medease/internal/metrics"
	"medease/internal/platform/logger"
	"medease/internal/reminder"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	everyMinute            = "* * * * *"
	instrumentationName    = "medease/internal/scheduler"
	defaultMaxConcurrency  = 16
	defaultDispatchTimeout = 30 * time.Second
)

var (
	ErrAlreadyRunning = errors.New("scheduler already running")
	ErrDispatchPanic  = errors.New("dispatch panicked")
)

// MedicineStore es la consulta por minuto exacto.
type MedicineStore interface {
	FindByTime(ctx context.Context, hhmm string) ([]medicines.Medicine, error)
}

// UserStore trae el contacto del dueño.
type UserStore interface {
	GetByID(ctx context.Context, id string) (users.User, error)
}

type Options struct {
	Medicines MedicineStore
	Users     UserStore
	Channels  []reminder.Channel

	Logger  logger.Logger
	Metrics *metrics.Reminders
	Tracer  trace.Tracer

	// Location del reloj del servidor; nil => time.Local.
	Location *time.Location
	// Now es el reloj inyectable; nil => time.Now.
	Now func() time.Time

	MaxConcurrency   int
	DispatchTimeout  time.Duration
	RespectDateRange bool
}

type Scheduler struct {
	meds     MedicineStore
	users    UserStore
	channels []reminder.Channel

	log     logger.Logger
	metrics *metrics.Reminders
	tracer  trace.Tracer

	loc          *time.Location
	now          func() time.Time
	maxConc      int
	timeout      time.Duration
	respectRange bool

	mu      sync.Mutex
	cron    *cron.Cron
	baseCtx context.Context
	cancel  context.CancelFunc
}

func New(opts Options) (*Scheduler, error) {
	if opts.Medicines == nil || opts.Users == nil {
		return nil, errors.New("scheduler: medicine and user stores are required")
	}

	s := &Scheduler{
		meds:         opts.Medicines,
		users:        opts.Users,
		channels:     opts.Channels,
		log:          opts.Logger,
		metrics:      opts.Metrics,
		tracer:       opts.Tracer,
		loc:          opts.Location,
		now:          opts.Now,
		maxConc:      opts.MaxConcurrency,
		timeout:      opts.DispatchTimeout,
		respectRange: opts.RespectDateRange,
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	s.log = s.log.With(map[string]any{"component": "scheduler"})
	if s.metrics == nil {
		s.metrics = metrics.NewReminders(nil)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(instrumentationName)
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.maxConc <= 0 {
		s.maxConc = defaultMaxConcurrency
	}
	if s.timeout <= 0 {
		s.timeout = defaultDispatchTimeout
	}
	return s, nil
}

// Start agenda Tick cada minuto. Lo llama main una sola vez.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return ErrAlreadyRunning
	}

	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithChain(cron.Recover(cronLogger{log: s.log})),
	)
	s.baseCtx, s.cancel = context.WithCancel(context.Background())
	ctx := s.baseCtx

	if _, err := c.AddFunc(everyMinute, func() {
		s.Tick(ctx, s.now())
	}); err != nil {
		s.cancel()
		return fmt.Errorf("schedule tick: %w", err)
	}

	enabled := make([]string, 0, len(s.channels))
	for _, ch := range s.channels {
		if ch.Enabled() {
			enabled = append(enabled, ch.Name())
		}
	}
	s.log.Info("reminder scheduler started", map[string]any{
		"location": s.loc.String(),
		"channels": enabled,
	})

	c.Start()
	s.cron = c
	return nil
}

// Stop deja de agendar ticks y espera a que termine el tick en curso o a
// que venza ctx; en ese caso cancela los envíos pendientes. Idempotente.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()

	if c == nil {
		return nil
	}
	defer cancel()

	done := c.Stop()
	select {
	case <-done.Done():
		s.log.Info("reminder scheduler stopped", nil)
		return nil
	case <-ctx.Done():
		s.log.Warn("reminder scheduler stop timed out; cancelling in-flight dispatches", nil)
		return ctx.Err()
	}
}

// Report resume un tick.
type Report struct {
	Clock      string
	Due        int
	Dispatches []reminder.Dispatch
	// UserErrors: medicinas cuyo dueño no se pudo cargar (por medicine id).
	UserErrors map[string]error
	// Err solo se setea si falló la consulta de medicinas.
	Err error
}

// Failed devuelve los envíos con error.
func (r Report) Failed() []reminder.Dispatch {
	out := make([]reminder.Dispatch, 0)
	for _, d := range r.Dispatches {
		if d.Err != nil {
			out = append(out, d)
		}
	}
	return out
}

// Tick evalúa el minuto de at (en la zona del scheduler) y despacha.
// Cada tick lee su propio snapshot del store; ningún envío comparte estado
// mutable con otro.
func (s *Scheduler) Tick(ctx context.Context, at time.Time) Report {
	at = at.In(s.loc)
	clock := reminder.Clock(at)
	rep := Report{Clock: clock}

	ctx, span := s.tracer.Start(ctx, "scheduler.tick", trace.WithAttributes(
		attribute.String("clock", clock),
	))
	defer span.End()

	s.metrics.Ticks.Inc()

	due, err := s.meds.FindByTime(ctx, clock)
	if err != nil {
		s.metrics.TickErrors.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "find by time failed")
		s.log.Error("reminder tick: medicine query failed", map[string]any{"clock": clock, "err": err})
		rep.Err = err
		return rep
	}

	if s.respectRange {
		active := due[:0:0]
		for _, m := range due {
			if reminder.ActiveOn(m, at) {
				active = append(active, m)
			}
		}
		due = active
	}

	rep.Due = len(due)
	span.SetAttributes(attribute.Int("due", len(due)))
	s.metrics.Due.Add(float64(len(due)))
	if len(due) == 0 {
		return rep
	}

	s.log.Debug("reminder tick", map[string]any{"clock": clock, "due": len(due)})

	// Un slot por medicina: cada goroutine escribe solo el suyo.
	results := make([]medicineResult, len(due))

	var g errgroup.Group
	g.SetLimit(s.maxConc)
	for i, m := range due {
		g.Go(func() error {
			results[i] = s.remind(ctx, m)
			return nil
		})
	}
	_ = g.Wait()

	for i, r := range results {
		if r.userErr != nil {
			if rep.UserErrors == nil {
				rep.UserErrors = map[string]error{}
			}
			rep.UserErrors[due[i].ID] = r.userErr
		}
		rep.Dispatches = append(rep.Dispatches, r.dispatches...)
	}
	return rep
}

type medicineResult struct {
	dispatches []reminder.Dispatch
	userErr    error
}

// remind carga al dueño y lanza un envío por canal. Los canales corren en
// paralelo y sus errores no se propagan entre sí.
func (s *Scheduler) remind(ctx context.Context, m medicines.Medicine) (res medicineResult) {
	defer func() {
		if r := recover(); r != nil {
			res.userErr = fmt.Errorf("%w: %v", ErrDispatchPanic, r)
			s.log.Error("reminder task panicked", map[string]any{"medicine_id": m.ID, "panic": fmt.Sprint(r)})
		}
	}()

	u, err := s.users.GetByID(ctx, m.OwnerUserID)
	if err != nil {
		s.log.Error("reminder skipped: owner lookup failed", map[string]any{
			"medicine_id": m.ID,
			"user_id":     m.OwnerUserID,
			"err":         err,
		})
		return medicineResult{userErr: err}
	}

	contact := reminder.Contact{UserID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}
	msg := reminder.Compose(contact.Name, m.Name)

	type target struct {
		ch reminder.Channel
		to string
	}
	targets := make([]target, 0, len(s.channels))
	for _, ch := range s.channels {
		if !ch.Enabled() {
			continue
		}
		to := ch.Address(contact)
		if to == "" {
			continue
		}
		targets = append(targets, target{ch: ch, to: to})
	}

	out := make([]reminder.Dispatch, len(targets))
	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = s.dispatch(ctx, t.ch, t.to, m, contact, msg)
		}()
	}
	wg.Wait()

	return medicineResult{dispatches: out}
}

func (s *Scheduler) dispatch(ctx context.Context, ch reminder.Channel, to string, m medicines.Medicine, c reminder.Contact, msg reminder.Message) (d reminder.Dispatch) {
	d = reminder.Dispatch{
		MedicineID: m.ID,
		UserID:     c.UserID,
		Channel:    ch.Name(),
		To:         to,
	}

	defer func() {
		if r := recover(); r != nil {
			d.Err = fmt.Errorf("%w: %v", ErrDispatchPanic, r)
		}

		fields := map[string]any{
			"channel":     d.Channel,
			"medicine_id": d.MedicineID,
			"user_id":     d.UserID,
		}
		if d.Err != nil {
			fields["err"] = d.Err
			s.metrics.Dispatches.WithLabelValues(d.Channel, "failed").Inc()
			s.log.Error("reminder dispatch failed", fields)
			return
		}
		s.metrics.Dispatches.WithLabelValues(d.Channel, "sent").Inc()
		s.log.Info("reminder dispatched", fields)
	}()

	dctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	d.Err = ch.Send(dctx, to, msg)
	return d
}

// cronLogger adapta logger.Logger a cron.Logger (solo lo usa cron.Recover).
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, kvFields(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	fields := kvFields(keysAndValues)
	fields["err"] = err
	l.log.Error(msg, fields)
}

func kvFields(kv []any) map[string]any {
	out := make(map[string]any, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			out[k] = kv[i+1]
		}
	}
	return out
}
