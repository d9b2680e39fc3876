package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"medease/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// TokenIssuer firma el token de sesión tras un login correcto.
// Puede ser nil: en modo dev /auth/login responde 501.
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

func RegisterRoutes(r chi.Router, svc *Service, issuer TokenIssuer) {
	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/register", registerHandler(svc))
		ar.Post("/login", loginHandler(svc, issuer))
	})
	r.Get("/me", meHandler(svc))
}

type caretakerPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type registerRequest struct {
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Phone     string            `json:"phone"`
	Language  string            `json:"language"`
	Password  string            `json:"password"`
	Caretaker *caretakerPayload `json:"caretaker"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// userResponse nunca incluye el hash.
type userResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Phone     string            `json:"phone"`
	Language  string            `json:"language"`
	Caretaker *caretakerPayload `json:"caretaker,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// registerHandler godoc
// @Summary Registrar usuario
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body registerRequest true "Datos del usuario"
// @Success 201 {object} userResponse
// @Failure 400 {string} string "invalid input"
// @Failure 409 {string} string "email already registered"
// @Router /auth/register [post]
func registerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var ct *Caretaker
		if req.Caretaker != nil {
			ct = &Caretaker{Name: req.Caretaker.Name, Email: req.Caretaker.Email, Phone: req.Caretaker.Phone}
		}

		u, err := svc.Register(r.Context(), RegisterInput{
			Name:      req.Name,
			Email:     req.Email,
			Phone:     req.Phone,
			Language:  req.Language,
			Password:  req.Password,
			Caretaker: ct,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrEmailTaken):
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toUserResponse(u))
	}
}

// loginHandler godoc
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credenciales"
// @Success 200 {object} loginResponse
// @Failure 401 {string} string "invalid email or password"
// @Failure 501 {string} string "token issuer not configured"
// @Router /auth/login [post]
func loginHandler(svc *Service, issuer TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if issuer == nil {
			http.Error(w, "token issuer not configured", http.StatusNotImplemented)
			return
		}

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		u, err := svc.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		token, err := issuer.Issue(u.ID, u.Email)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, loginResponse{Token: token, User: toUserResponse(u)})
	}
}

// meHandler godoc
// @Summary Perfil del usuario autenticado
// @Tags auth
// @Produce json
// @Success 200 {object} userResponse
// @Failure 401 {string} string "unauthorized"
// @Router /me [get]
func meHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		u, err := svc.GetByID(r.Context(), claims.UserID)
		if err != nil {
			// token válido pero el usuario ya no existe
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func toUserResponse(u User) userResponse {
	out := userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Language:  u.Language,
		CreatedAt: u.CreatedAt,
	}
	if u.Caretaker != nil {
		out.Caretaker = &caretakerPayload{
			Name:  u.Caretaker.Name,
			Email: u.Caretaker.Email,
			Phone: u.Caretaker.Phone,
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
