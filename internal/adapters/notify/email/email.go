// Package email es el canal de recordatorios por correo (AWS SES).
package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"medease/internal/platform/logger"
	"medease/internal/reminder"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

const Name = "email"

// credentialsTimeout acota la resolución de credenciales al construir el
// canal (la cadena por defecto puede terminar consultando IMDS).
const credentialsTimeout = 5 * time.Second

// sender es la parte de *ses.Client que usamos.
type sender interface {
	SendEmail(ctx context.Context, in *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type Config struct {
	From   string
	Region string
}

type Channel struct {
	client sender
	from   string
	log    logger.Logger
}

var _ reminder.Channel = (*Channel)(nil)

// New arma el canal con las credenciales por defecto de AWS. Si falta el
// remitente, no se pudo cargar la config o no hay credenciales, el canal
// queda deshabilitado y se avisa una sola vez acá.
func New(ctx context.Context, cfg Config, log logger.Logger) *Channel {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.With(map[string]any{"channel": Name})

	from := strings.TrimSpace(cfg.From)
	if from == "" {
		log.Warn("email.from not set; email reminders are disabled", nil)
		return &Channel{log: log}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		log.Warn("aws config load failed; email reminders are disabled", map[string]any{"err": err})
		return &Channel{log: log}
	}

	// LoadDefaultConfig resuelve credenciales recién en el primer request.
	if awsCfg.Credentials == nil {
		log.Warn("aws credentials not found; email reminders are disabled", nil)
		return &Channel{log: log}
	}
	credCtx, cancel := context.WithTimeout(ctx, credentialsTimeout)
	defer cancel()
	if _, err := awsCfg.Credentials.Retrieve(credCtx); err != nil {
		log.Warn("aws credentials not found; email reminders are disabled", map[string]any{"err": err})
		return &Channel{log: log}
	}

	return NewWithClient(ses.NewFromConfig(awsCfg), from, log)
}

// NewWithClient permite inyectar el cliente SES (tests).
func NewWithClient(client sender, from string, log logger.Logger) *Channel {
	if log == nil {
		log = logger.NewNop()
	}
	return &Channel{client: client, from: strings.TrimSpace(from), log: log}
}

func (c *Channel) Name() string { return Name }

func (c *Channel) Enabled() bool { return c.client != nil && c.from != "" }

func (c *Channel) Address(ct reminder.Contact) string { return strings.TrimSpace(ct.Email) }

func (c *Channel) Send(ctx context.Context, to string, msg reminder.Message) error {
	if !c.Enabled() {
		return fmt.Errorf("email: channel disabled")
	}

	out, err := c.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(msg.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(msg.Body),
					Charset: aws.String("UTF-8"),
				},
			},
		},
		Source: aws.String(c.from),
	})
	if err != nil {
		return fmt.Errorf("email send failed: %w", err)
	}

	c.log.Debug("email sent", map[string]any{"message_id": aws.ToString(out.MessageId)})
	return nil
}
