// Package apiclient es el cliente de la API que usa el recordatorio del
// lado cliente (cmd/watch).
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"medease/internal/domain/medicines"
	"medease/internal/platform/httpclient"
)

var (
	// ErrSessionInvalid envuelve cualquier falla al listar medicinas: el
	// cliente debe tratarla como sesión expirada.
	ErrSessionInvalid = errors.New("session invalid")
	ErrLoginFailed    = errors.New("login failed")
)

type Client struct {
	http *httpclient.Client
}

func New(baseURL, token string, opts ...httpclient.Option) (*Client, error) {
	opts = append([]httpclient.Option{httpclient.WithToken(token)}, opts...)
	hc, err := httpclient.New(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{http: hc}, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login obtiene un token y lo deja configurado en el cliente.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out loginResponse
	err := c.http.DoJSON(ctx, http.MethodPost, "/auth/login", loginRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
	}, &out)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("%w: empty token", ErrLoginFailed)
	}
	c.http.Token = out.Token
	return out.Token, nil
}

type medicineDTO struct {
	ID          string     `json:"id"`
	OwnerUserID string     `json:"owner_user_id"`
	Name        string     `json:"name"`
	Dosage      string     `json:"dosage"`
	Time        string     `json:"time"`
	Frequency   string     `json:"frequency"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	PhotoURL    string     `json:"photo_url"`
	LastTaken   *time.Time `json:"last_taken"`
}

// ListMine devuelve las medicinas del usuario del token.
func (c *Client) ListMine(ctx context.Context) ([]medicines.Medicine, error) {
	var out []medicineDTO
	if err := c.http.DoJSON(ctx, http.MethodGet, "/medicines", nil, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionInvalid, err)
	}

	list := make([]medicines.Medicine, 0, len(out))
	for _, d := range out {
		freq, _ := medicines.ParseFrequency(d.Frequency)
		list = append(list, medicines.Medicine{
			ID:          d.ID,
			OwnerUserID: d.OwnerUserID,
			Name:        d.Name,
			Dosage:      d.Dosage,
			Time:        d.Time,
			Frequency:   freq,
			StartDate:   d.StartDate,
			EndDate:     d.EndDate,
			PhotoURL:    d.PhotoURL,
			LastTaken:   d.LastTaken,
		})
	}
	return list, nil
}

// MarkTaken registra la toma de una medicina.
func (c *Client) MarkTaken(ctx context.Context, medicineID string) error {
	path := "/medicines/" + url.PathEscape(strings.TrimSpace(medicineID)) + "/taken"
	return c.http.DoJSON(ctx, http.MethodPost, path, nil, nil)
}
