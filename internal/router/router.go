package router

import (
	"net/http"

	"gamestore-api/internal/handler"
	"gamestore-api/internal/metrics"
	"gamestore-api/internal/middleware"
	"gamestore-api/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler        *handler.Handler
	AuthHandler    *handler.AuthHandler
	CatalogHandler *handler.CatalogHandler
	CartHandler    *handler.CartHandler
	AdminHandler   *handler.AdminHandler

	SessionMiddleware func(http.Handler) http.Handler
	RequireIdentity   func(http.Handler) http.Handler
	RequireLoginKey   func(http.Handler) http.Handler

	Logger *logger.Logger
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	if cfg.RequireIdentity == nil {
		cfg.RequireIdentity = func(next http.Handler) http.Handler { return next }
	}

	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.NewRecovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.NewLogging(log))
	r.Use(metrics.InstrumentHandler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", middleware.SessionHeader, "X-Login-Key"},
		ExposedHeaders:   []string{"X-Request-ID", middleware.SessionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no session)
	r.Handle("/metrics", metrics.Handler())
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		if cfg.AdminHandler != nil && cfg.RequireLoginKey != nil {
			r.With(cfg.RequireLoginKey).Get("/admin/stats", cfg.AdminHandler.GetStats)
		}

		// SESSION routes
		r.Group(func(r chi.Router) {
			if cfg.SessionMiddleware != nil {
				r.Use(cfg.SessionMiddleware)
			}

			if cfg.AuthHandler != nil {
				r.Route("/auth", func(r chi.Router) {
					r.Post("/register", cfg.AuthHandler.Register)
					r.Post("/login", cfg.AuthHandler.Login)
					r.Post("/logout", cfg.AuthHandler.Logout)
					r.Get("/flash", cfg.AuthHandler.Flash)
					r.With(cfg.RequireIdentity).Get("/me", cfg.AuthHandler.Me)
				})
			}

			// AUTHENTICATED routes
			r.Group(func(r chi.Router) {
				r.Use(cfg.RequireIdentity)

				if cfg.CatalogHandler != nil {
					r.Route("/games", func(r chi.Router) {
						r.Get("/", cfg.CatalogHandler.ListGames)
						r.Get("/categories", cfg.CatalogHandler.Categories)
						r.Get("/{id}", cfg.CatalogHandler.GetGame)
					})
				}

				if cfg.CartHandler != nil {
					r.Route("/cart", func(r chi.Router) {
						r.Get("/", cfg.CartHandler.GetCart)
						r.Post("/items", cfg.CartHandler.AddItem)
						r.Delete("/items/{game_id}", cfg.CartHandler.RemoveItem)
						r.Post("/checkout", cfg.CartHandler.Checkout)
					})
					r.Get("/library", cfg.CartHandler.Library)
				}
			})
		})
	})

	return r
}
