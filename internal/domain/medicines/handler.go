package medicines

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"medease/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/medicines", func(mr chi.Router) {
		mr.Post("/", createMedicineHandler(svc))
		mr.Get("/", listMedicinesHandler(svc))

		// Solo el dueño puede modificar/borrar.
		mr.Put("/{medicineID}", updateMedicineHandler(svc))
		mr.Delete("/{medicineID}", deleteMedicineHandler(svc))
		mr.Post("/{medicineID}/taken", markTakenHandler(svc))
	})
}

// createMedicineRequest es el cuerpo para registrar una medicina.
type createMedicineRequest struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Time      string `json:"time"`                                           // HH:MM
	Frequency string `json:"frequency" enums:"Daily,Weekly,Monthly,Custom"` // default Daily
	StartDate string `json:"start_date"`                                     // YYYY-MM-DD o RFC3339
	EndDate   string `json:"end_date"`                                       // opcional
	PhotoURL  string `json:"photo_url"`
}

// updateMedicineRequest: campos ausentes o vacíos mantienen el valor actual.
type updateMedicineRequest struct {
	Name      *string `json:"name"`
	Dosage    *string `json:"dosage"`
	Time      *string `json:"time"`
	Frequency *string `json:"frequency"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
	PhotoURL  *string `json:"photo_url"`
}

// medicineResponse representa una medicina devuelta por la API.
type medicineResponse struct {
	ID          string     `json:"id"`
	OwnerUserID string     `json:"owner_user_id"`
	Name        string     `json:"name"`
	Dosage      string     `json:"dosage"`
	Time        string     `json:"time"`
	Frequency   Frequency  `json:"frequency"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	PhotoURL    string     `json:"photo_url,omitempty"`
	LastTaken   *time.Time `json:"last_taken,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// createMedicineHandler godoc
// @Summary Registrar medicina
// @Description Crea una medicina para el usuario autenticado. time se normaliza a HH:MM; end_date no puede ser anterior a start_date.
// @Tags medicines
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param Authorization header string false "Bearer token"
// @Param payload body createMedicineRequest true "Datos de la medicina"
// @Success 201 {object} medicineResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 401 {string} string "unauthorized"
// @Router /medicines [post]
func createMedicineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createMedicineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		start, err := parseDate(req.StartDate)
		if err != nil || start == nil {
			http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		end, err := parseDate(req.EndDate)
		if err != nil {
			http.Error(w, "end_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		m, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			Name:      req.Name,
			Dosage:    req.Dosage,
			Time:      req.Time,
			Frequency: req.Frequency,
			StartDate: *start,
			EndDate:   end,
			PhotoURL:  req.PhotoURL,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toMedicineResponse(m))
	}
}

// listMedicinesHandler godoc
// @Summary Listar mis medicinas
// @Description Devuelve las medicinas del usuario autenticado. El poller del cliente trata cualquier respuesta no-2xx como sesión inválida.
// @Tags medicines
// @Produce json
// @Success 200 {array} medicineResponse
// @Failure 401 {string} string "unauthorized"
// @Router /medicines [get]
func listMedicinesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]medicineResponse, 0, len(items))
		for _, m := range items {
			out = append(out, toMedicineResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// updateMedicineHandler godoc
// @Summary Actualizar medicina
// @Tags medicines
// @Accept json
// @Produce json
// @Param medicineID path string true "ID de la medicina"
// @Param payload body updateMedicineRequest true "Campos a cambiar"
// @Success 200 {object} medicineResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "medicine not found"
// @Router /medicines/{medicineID} [put]
func updateMedicineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateMedicineRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		start, err := parseDatePtr(req.StartDate)
		if err != nil {
			http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		end, err := parseDatePtr(req.EndDate)
		if err != nil {
			http.Error(w, "end_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		updated, err := svc.Update(r.Context(), chi.URLParam(r, "medicineID"), claims.UserID, UpdateInput{
			Name:      req.Name,
			Dosage:    req.Dosage,
			Time:      req.Time,
			Frequency: req.Frequency,
			StartDate: start,
			EndDate:   end,
			PhotoURL:  req.PhotoURL,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toMedicineResponse(updated))
	}
}

// deleteMedicineHandler godoc
// @Summary Borrar medicina
// @Tags medicines
// @Param medicineID path string true "ID de la medicina"
// @Success 204
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "medicine not found"
// @Router /medicines/{medicineID} [delete]
func deleteMedicineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "medicineID"), claims.UserID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// markTakenHandler godoc
// @Summary Marcar toma
// @Description Registra last_taken = ahora. No afecta a los recordatorios.
// @Tags medicines
// @Produce json
// @Param medicineID path string true "ID de la medicina"
// @Success 200 {object} medicineResponse
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "medicine not found"
// @Router /medicines/{medicineID}/taken [post]
func markTakenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		m, err := svc.MarkTaken(r.Context(), chi.URLParam(r, "medicineID"), claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMedicineResponse(m))
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidTime),
		errors.Is(err, ErrInvalidDateRange):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "medicine not found", http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseDatePtr(p *string) (*time.Time, error) {
	if p == nil {
		return nil, nil
	}
	return parseDate(*p)
}

func toMedicineResponse(m Medicine) medicineResponse {
	return medicineResponse{
		ID:          m.ID,
		OwnerUserID: m.OwnerUserID,
		Name:        m.Name,
		Dosage:      m.Dosage,
		Time:        m.Time,
		Frequency:   m.Frequency,
		StartDate:   m.StartDate,
		EndDate:     m.EndDate,
		PhotoURL:    m.PhotoURL,
		LastTaken:   m.LastTaken,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// writeJSON se repite en medicines y users; no hay paquete de helpers HTTP.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
