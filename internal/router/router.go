package router

import (
	"database/sql"
	"net/http"

	_ "medease/docs"
	mem "medease/internal/adapters/storage/memory"
	pg "medease/internal/adapters/storage/postgres"
	"medease/internal/domain/medicines"
	"medease/internal/domain/users"
	"medease/internal/metrics"
	"medease/internal/middleware"
	"medease/internal/platform/logger"
	"medease/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Stores son los repos compartidos entre la API y el scheduler.
type Stores struct {
	Medicines medicines.Repository
	Users     users.Repository
}

// NewStores usa Postgres si db != nil; si no, in-memory.
func NewStores(db *sql.DB) Stores {
	if db != nil {
		return Stores{
			Medicines: pg.NewMedicinesRepo(db),
			Users:     pg.NewUsersRepo(db),
		}
	}
	return Stores{
		Medicines: mem.NewMedicineRepo(),
		Users:     mem.NewUserRepo(),
	}
}

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)
	TokenIssuer  users.TokenIssuer // nil => /auth/login responde 501

	// Stores vacíos => in-memory.
	Stores Stores

	Logger  logger.Logger
	Metrics *metrics.Registry // nil => sin /metrics
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(log))
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	stores := opts.Stores
	if stores.Medicines == nil || stores.Users == nil {
		stores = NewStores(nil)
	}

	medicinesSvc := medicines.NewService(stores.Medicines)
	usersSvc := users.NewService(stores.Users)

	users.RegisterRoutes(r, usersSvc, opts.TokenIssuer)
	medicines.RegisterRoutes(r, medicinesSvc)

	return r
}
