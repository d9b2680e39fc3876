package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const minPasswordLen = 6

type Service struct {
	repo Repository
	now  func() time.Time
	cost int
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
		cost: bcrypt.DefaultCost,
	}
}

type RegisterInput struct {
	Name      string
	Email     string
	Phone     string
	Language  string
	Password  string
	Caretaker *Caretaker
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	phone := strings.TrimSpace(in.Phone)

	if name == "" || email == "" || phone == "" {
		return User{}, ErrInvalidInput
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, ErrInvalidInput
	}
	if len(in.Password) < minPasswordLen {
		return User{}, ErrInvalidInput
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return User{}, err
	}

	lang := strings.TrimSpace(in.Language)
	if lang == "" {
		lang = "en"
	}

	now := s.now()
	u := User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Phone:        phone,
		Language:     lang,
		Caretaker:    normalizeCaretaker(in.Caretaker),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Authenticate compara contra el hash. Email desconocido y password
// incorrecto devuelven el mismo error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeCaretaker(c *Caretaker) *Caretaker {
	if c == nil {
		return nil
	}
	out := Caretaker{
		Name:  strings.TrimSpace(c.Name),
		Email: normalizeEmail(c.Email),
		Phone: strings.TrimSpace(c.Phone),
	}
	if out == (Caretaker{}) {
		return nil
	}
	return &out
}
