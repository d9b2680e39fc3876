// Package config loads MedEase configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config es la configuración completa del proceso.
type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	DB        DBConfig        `koanf:"db"`
	Auth      AuthConfig      `koanf:"auth"`
	Email     EmailConfig     `koanf:"email"`
	WhatsApp  WhatsAppConfig  `koanf:"whatsapp"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Reminders RemindersConfig `koanf:"reminders"`
}

type AppConfig struct {
	Name string `koanf:"name"`
}

type ServerConfig struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type DBConfig struct {
	// DSN vacío => repos in-memory.
	DSN string `koanf:"dsn"`
}

type AuthConfig struct {
	// JWTSecret vacío => modo dev (X-Debug-User-ID).
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

type EmailConfig struct {
	From   string `koanf:"from"`
	Region string `koanf:"region"`
}

type WhatsAppConfig struct {
	AccountSID    string  `koanf:"account_sid"`
	AuthToken     string  `koanf:"auth_token"`
	From          string  `koanf:"from"`
	RatePerSecond float64 `koanf:"rate_per_second"`
}

type SchedulerConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Timezone        string        `koanf:"timezone"`
	MaxConcurrency  int           `koanf:"max_concurrency"`
	DispatchTimeout time.Duration `koanf:"dispatch_timeout"`
}

type RemindersConfig struct {
	// RespectDateRange activa el filtro start_date/end_date al despachar.
	// Off por defecto: es una decisión de producto pendiente.
	RespectDateRange bool `koanf:"respect_date_range"`
}

// Default devuelve los valores base antes de aplicar archivo y env.
func Default() Config {
	return Config{
		App: AppConfig{Name: "medease"},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Auth: AuthConfig{
			TokenTTL: 72 * time.Hour,
		},
		Email: EmailConfig{Region: "us-east-1"},
		WhatsApp: WhatsAppConfig{
			RatePerSecond: 1,
		},
		Scheduler: SchedulerConfig{
			Enabled:         true,
			Timezone:        "Local",
			MaxConcurrency:  16,
			DispatchTimeout: 30 * time.Second,
		},
	}
}

// Location resuelve scheduler.timezone. "Local" o vacío => zona del servidor.
func (c SchedulerConfig) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}

// Validate revisa valores que no tienen default razonable.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Scheduler.MaxConcurrency <= 0 {
		errs = append(errs, errors.New("scheduler.max_concurrency must be positive"))
	}
	if c.Scheduler.DispatchTimeout <= 0 {
		errs = append(errs, errors.New("scheduler.dispatch_timeout must be positive"))
	}
	if _, err := c.Scheduler.Location(); err != nil {
		errs = append(errs, fmt.Errorf("scheduler.timezone: %w", err))
	}
	if c.WhatsApp.RatePerSecond <= 0 {
		errs = append(errs, errors.New("whatsapp.rate_per_second must be positive"))
	}

	return errors.Join(errs...)
}
