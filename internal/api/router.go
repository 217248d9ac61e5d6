package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dom/phim-stream/internal/api/handlers"
	"github.com/dom/phim-stream/internal/api/middleware"
	"github.com/dom/phim-stream/internal/config"
	"github.com/dom/phim-stream/internal/metrics"
	"github.com/dom/phim-stream/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter builds the HTTP handler. cache may be nil when no catalog cache is
// configured; otherwise /health fails while it is unreachable.
func NewRouter(services *service.Services, m *metrics.Metrics, cfg *config.Config, cache Pinger, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(m.Middleware)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cache != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := cache.Ping(ctx); err != nil {
				logger.WarnContext(ctx, "health check: cache unreachable", "error", err)
				http.Error(w, "cache unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, logger)
	userHandler := handlers.NewUserHandler(services.Profile, logger)
	catalogHandler := handlers.NewCatalogHandler(services.Catalog, logger)

	r.Route("/api", func(r chi.Router) {
		// Public auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		// Protected user routes
		r.Route("/user", func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth, logger))
			r.Get("/me", userHandler.Me)
			r.Put("/update", userHandler.Update)
			r.Put("/change-password", userHandler.ChangePassword)
		})

		// Catalog routes (public)
		r.Get("/genres", catalogHandler.Genres)
		r.Route("/movies", func(r chi.Router) {
			r.Get("/latest", catalogHandler.Latest)
			r.Get("/anime", catalogHandler.Anime)
			r.Get("/series", catalogHandler.Series)
			r.Get("/nation/{slug}", catalogHandler.ByNation)
			r.Get("/{slug}", catalogHandler.Movie)
			r.Get("/{slug}/watch", catalogHandler.Watch)
		})
	})

	return r
}
