// Package reminder decide qué medicinas vencen en un minuto dado y define
// el contrato de los canales de notificación.
package reminder

import (
	"fmt"
	"time"

	"medease/internal/domain/medicines"
)

// Clock devuelve "HH:MM" del instante t en su propia zona.
// Los segundos no cuentan.
func Clock(t time.Time) string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// IsDue: match exacto de string contra el minuto actual. Sin tolerancia
// ni catch-up; un minuto no evaluado se pierde.
func IsDue(m medicines.Medicine, t time.Time) bool {
	return m.Time == Clock(t)
}

// DueAt filtra list conservando el orden de entrada.
func DueAt(list []medicines.Medicine, t time.Time) []medicines.Medicine {
	clock := Clock(t)
	out := make([]medicines.Medicine, 0)
	for _, m := range list {
		if m.Time == clock {
			out = append(out, m)
		}
	}
	return out
}

// ActiveOn indica si el día de t cae dentro de [StartDate, EndDate].
// Las fechas se comparan como días calendario en la zona de t.
// Los evaluadores solo lo consultan con reminders.respect_date_range.
func ActiveOn(m medicines.Medicine, t time.Time) bool {
	day := civilDay(t, t.Location())
	if !m.StartDate.IsZero() && day.Before(civilDay(m.StartDate, t.Location())) {
		return false
	}
	if m.EndDate != nil && day.After(civilDay(*m.EndDate, t.Location())) {
		return false
	}
	return true
}

// civilDay lleva t a la medianoche de su fecha. start_date/end_date llegan
// como fechas sin hora (medianoche UTC), así que se toma su Y-M-D tal cual.
func civilDay(t time.Time, loc *time.Location) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, loc)
}
