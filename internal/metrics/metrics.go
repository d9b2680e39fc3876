// Package metrics agrupa los colectores prometheus del proceso.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "medease"

// Reminders son los contadores del scheduler.
type Reminders struct {
	Ticks      prometheus.Counter
	TickErrors prometheus.Counter
	Due        prometheus.Counter
	Dispatches *prometheus.CounterVec // labels: channel, result (sent|failed)
}

// Registry es un registro propio (no el global) más los colectores de la app.
type Registry struct {
	reg       *prometheus.Registry
	Reminders *Reminders
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{
		reg:       reg,
		Reminders: NewReminders(reg),
	}
}

// NewReminders registra los contadores en reg. reg nil => no se registran
// (útil en tests que no miran métricas).
func NewReminders(reg prometheus.Registerer) *Reminders {
	r := &Reminders{
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "ticks_total",
			Help:      "Reminder scheduler ticks executed.",
		}),
		TickErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "tick_errors_total",
			Help:      "Ticks aborted because the medicine store query failed.",
		}),
		Due: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reminder",
			Name:      "due_total",
			Help:      "Medicines found due across all ticks.",
		}),
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reminder",
			Name:      "dispatch_total",
			Help:      "Reminder delivery attempts by channel and result.",
		}, []string{"channel", "result"}),
	}
	if reg != nil {
		reg.MustRegister(r.Ticks, r.TickErrors, r.Due, r.Dispatches)
	}
	return r
}

// Handler expone /metrics para este registro.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer para tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
