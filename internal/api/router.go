// Package api serves the landing page, the health probe and the admin record dump.
package api

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/m3rciful/cardbot/internal/store"
)

// RecordLister reads stored records.
type RecordLister interface {
	ListAll(ctx context.Context) ([]store.Record, error)
}

// Options configures the router.
type Options struct {
	Records RecordLister
	// AdminToken guards /api/peoples. The route is not mounted when empty.
	AdminToken     string
	AllowedOrigins []string
	Version        string
	RequestTimeout time.Duration
}

// NewRouter builds the chi router.
func NewRouter(opts Options) *chi.Mux {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	h := &handler{records: opts.Records, version: opts.Version}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization"},
			MaxAge:         300,
		}))
	}

	r.Get("/", h.page)
	r.Get("/healthz", h.health)

	if opts.AdminToken != "" && opts.Records != nil {
		r.Group(func(r chi.Router) {
			r.Use(bearerAuth(opts.AdminToken))
			r.Get("/api/peoples", h.listPeoples)
		})
	}
	return r
}
