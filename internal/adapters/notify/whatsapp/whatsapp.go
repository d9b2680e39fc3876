// Package whatsapp es el canal de recordatorios por WhatsApp (Twilio).
package whatsapp

import (
	"context"
	"fmt"
	"strings"

	"medease/internal/platform/logger"
	"medease/internal/reminder"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"golang.org/x/time/rate"
)

const (
	Name   = "whatsapp"
	prefix = "whatsapp:"
)

// messageCreator es la parte de la API de Twilio que usamos.
type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

type Config struct {
	AccountSID string
	AuthToken  string
	// From es el número habilitado para WhatsApp (con o sin "whatsapp:").
	From string
	// RatePerSecond limita los envíos de todo el proceso.
	RatePerSecond float64
}

type Channel struct {
	api     messageCreator
	from    string
	limiter *rate.Limiter
	log     logger.Logger
}

var _ reminder.Channel = (*Channel)(nil)

// New devuelve un canal deshabilitado (y avisa una vez) si faltan
// credenciales o el número remitente.
func New(cfg Config, log logger.Logger) *Channel {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.With(map[string]any{"channel": Name})

	if strings.TrimSpace(cfg.AccountSID) == "" || strings.TrimSpace(cfg.AuthToken) == "" || strings.TrimSpace(cfg.From) == "" {
		log.Warn("twilio credentials or sender not set; whatsapp reminders are disabled", nil)
		return &Channel{log: log}
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return NewWithAPI(client.Api, cfg.From, cfg.RatePerSecond, log)
}

// NewWithAPI permite inyectar la API de mensajes (tests). rps <= 0 => sin límite.
func NewWithAPI(api messageCreator, from string, rps float64, log logger.Logger) *Channel {
	if log == nil {
		log = logger.NewNop()
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		lim = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &Channel{
		api:     api,
		from:    withPrefix(from),
		limiter: lim,
		log:     log,
	}
}

func (c *Channel) Name() string { return Name }

func (c *Channel) Enabled() bool { return c.api != nil && c.from != "" }

// Address devuelve "whatsapp:<phone>" o "" si el usuario no tiene teléfono.
func (c *Channel) Address(ct reminder.Contact) string {
	return withPrefix(ct.Phone)
}

func (c *Channel) Send(ctx context.Context, to string, msg reminder.Message) error {
	if !c.Enabled() {
		return fmt.Errorf("whatsapp: channel disabled")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("whatsapp rate limit: %w", err)
	}
	// El SDK no recibe context; al menos no arrancamos un envío vencido.
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &openapi.CreateMessageParams{}
	params.SetFrom(c.from)
	params.SetTo(withPrefix(to))
	params.SetBody(msg.Body)

	resp, err := c.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("whatsapp send failed: %w", err)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	c.log.Debug("whatsapp sent", map[string]any{"sid": sid})
	return nil
}

func withPrefix(n string) string {
	n = strings.TrimSpace(n)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, prefix) {
		return n
	}
	return prefix + n
}
