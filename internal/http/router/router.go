// Package router assembles the chi router for the booking API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sialweb/bookline/internal/http/handlers"
	httpmiddleware "github.com/sialweb/bookline/internal/http/middleware"
	"github.com/sialweb/bookline/pkg/logging"
)

// Config holds router dependencies.
type Config struct {
	Logger             *logging.Logger
	Messages           *handlers.MessageHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// MessageRatePerSecond limits how fast one IP may send messages; 0
	// disables limiting.
	MessageRatePerSecond float64
	MessageBurst         int
}

// New builds the router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/v1", func(v1 chi.Router) {
		if cfg.MessageRatePerSecond > 0 {
			v1.Use(httpmiddleware.RateLimit(cfg.MessageRatePerSecond, cfg.MessageBurst))
		}
		v1.Post("/messages", cfg.Messages.Handle)
	})

	return r
}
