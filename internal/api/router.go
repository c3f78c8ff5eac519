package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"podcast-notes-go/internal/api/handlers"
	"podcast-notes-go/internal/api/middleware"
	"podcast-notes-go/internal/config"
	"podcast-notes-go/internal/logger"
	"podcast-notes-go/internal/store"
)

// ProcessPath is where clients invoke the processing function.
const ProcessPath = "/functions/v1/process-audio"

func NewRouter(cfg *config.Config, st store.StatusStore, runner handlers.Runner, log *logger.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(log))

	processHandler := handlers.NewProcessHandler(cfg, runner, log)
	statusHandler := handlers.NewStatusHandler(st, log)

	var verifier *middleware.TokenVerifier
	if cfg.JWTSecret != "" {
		verifier = middleware.NewTokenVerifier(cfg.JWTSecret)
	}

	r.Get("/healthz", handlers.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.FunctionCORS)
		r.Use(middleware.MaxBodySize(cfg.MaxBodyBytes))
		if verifier != nil {
			r.Use(middleware.AuthMiddleware(verifier))
		}
		r.Options(ProcessPath, processHandler.Process)
		r.Post(ProcessPath, processHandler.Process)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(middleware.CORSHandler(cfg.CORSOrigins)))
		if verifier != nil {
			r.Use(middleware.AuthMiddleware(verifier))
		}
		r.Get("/podcasts/{id}/status", statusHandler.GetStatus)
	})

	return r
}
