package medicines

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidTime      = errors.New("time must be HH:MM (24h)")
	ErrInvalidDateRange = errors.New("end_date cannot be before start_date")
)

// Frequency se guarda tal cual; ningún evaluador la consulta todavía.
// @Enum Daily, Weekly, Monthly, Custom
type Frequency string

const (
	FrequencyDaily   Frequency = "Daily"
	FrequencyWeekly  Frequency = "Weekly"
	FrequencyMonthly Frequency = "Monthly"
	FrequencyCustom  Frequency = "Custom"
)

// Medicine es una toma programada de un usuario.
type Medicine struct {
	ID          string
	OwnerUserID string

	Name      string
	Dosage    string    // texto libre: "500mg", "2 gotas"
	Time      string    // HH:MM, siempre normalizado a 5 caracteres
	Frequency Frequency // Daily, Weekly, Monthly, Custom

	StartDate time.Time
	EndDate   *time.Time

	PhotoURL  string
	LastTaken *time.Time // se registra pero no alimenta la evaluación

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeTime acepta "9:05", "09:05" o "09:05:00" y devuelve "09:05".
func NormalizeTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return "", ErrInvalidTime
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) > 2 || h < 0 || h > 23 {
		return "", ErrInvalidTime
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 || m < 0 || m > 59 {
		return "", ErrInvalidTime
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || len(parts[2]) != 2 || sec < 0 || sec > 59 {
			return "", ErrInvalidTime
		}
	}

	return fmt.Sprintf("%02d:%02d", h, m), nil
}

// ParseFrequency normaliza mayúsculas; vacío => Daily.
func ParseFrequency(s string) (Frequency, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "daily":
		return FrequencyDaily, true
	case "weekly":
		return FrequencyWeekly, true
	case "monthly":
		return FrequencyMonthly, true
	case "custom":
		return FrequencyCustom, true
	default:
		return "", false
	}
}

// ValidateDateRange: end_date puede faltar; si viene, no puede ser anterior a start_date.
func ValidateDateRange(start time.Time, end *time.Time) error {
	if end == nil {
		return nil
	}
	if end.Before(start) {
		return ErrInvalidDateRange
	}
	return nil
}
