package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/mockround/mockround/internal/auth"
	"github.com/mockround/mockround/internal/observability"
	"github.com/mockround/mockround/internal/platform/httpx"
	"github.com/mockround/mockround/internal/problems"
	"github.com/mockround/mockround/internal/sessions"
	"github.com/mockround/mockround/internal/stats"
	"github.com/mockround/mockround/internal/submissions"
	"github.com/mockround/mockround/internal/users"
	"github.com/mockround/mockround/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Authenticator      *auth.Authenticator
	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	ProblemsHandler    *problems.Handler
	SessionsHandler    *sessions.Handler
	SubmissionsHandler *submissions.Handler
	StatsHandler       *stats.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
	Pool               *pgxpool.Pool
	Redis              *redis.Client
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusNotFound, "route not found", "not_found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusMethodNotAllowed, "method not allowed", "method_not_allowed")
	})

	r.Get("/healthz", healthHandler(params.Pool, params.Redis))
	r.Handle("/metrics", params.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			params.AuthHandler.MountRoutes(r, params.Authenticator)
		})
		r.Group(func(r chi.Router) {
			r.Use(params.Authenticator.Middleware)
			r.Route("/users", func(r chi.Router) {
				params.UsersHandler.MountRoutes(r, params.Authenticator)
			})
			r.Route("/problems", func(r chi.Router) {
				params.ProblemsHandler.MountRoutes(r, params.Authenticator)
			})
			r.Route("/tags", params.ProblemsHandler.MountTagRoutes)
			r.Route("/sessions", params.SessionsHandler.MountRoutes)
			r.Route("/questions", params.SessionsHandler.MountQuestionRoutes)
			r.Route("/submissions", params.SubmissionsHandler.MountRoutes)
			r.Route("/stats", params.StatsHandler.MountRoutes)
			if params.JobHandler != nil {
				r.Route("/jobs", func(r chi.Router) {
					r.Use(params.Authenticator.RequireRoles(auth.RoleAdmin))
					params.JobHandler.MountRoutes(r)
				})
			}
		})
	})

	return r
}

// pinger checks one backing store.
type pinger func(ctx context.Context) error

// healthHandler reports whether the backing stores answer. Either dependency
// may be nil in tests.
func healthHandler(pool *pgxpool.Pool, client *redis.Client) http.HandlerFunc {
	checks := map[string]pinger{}
	if pool != nil {
		checks["postgres"] = pool.Ping
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := map[string]string{}
		healthy := true
		for name, ping := range checks {
			if err := ping(ctx); err != nil {
				status[name] = "down"
				healthy = false
				continue
			}
			status[name] = "ok"
		}
		if !healthy {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]any{"success": false, "data": status})
			return
		}
		httpx.OK(w, http.StatusOK, status)
	}
}
