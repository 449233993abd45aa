package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// HealthCheck reports the state of one dependency
type HealthCheck func(ctx context.Context) map[string]interface{}

// RouterConfig gathers what NewRouter wires together
type RouterConfig struct {
	Visits         VisitService
	Auth           AuthService
	AllowedOrigins []string
	SecureCookies  bool
	Health         map[string]HealthCheck
	Logger         *slog.Logger
}

// NewRouter builds the HTTP handler for the API
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(CORS(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		deps := make(map[string]interface{}, len(cfg.Health))
		for name, check := range cfg.Health {
			result := check(r.Context())
			if result["status"] != "up" {
				status = http.StatusServiceUnavailable
			}
			deps[name] = result
		}
		JSON(w, status, map[string]interface{}{"status": http.StatusText(status), "dependencies": deps})
	})

	NewAuthHandler(cfg.Auth, cfg.SecureCookies, log).RegisterRoutes(r)
	NewVisitsHandler(cfg.Visits, log).RegisterRoutes(r, RequireAuth(cfg.Auth))

	return r
}
