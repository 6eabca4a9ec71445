package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/noticeboard-app/noticeboard/internal/auth"
	"github.com/noticeboard-app/noticeboard/internal/observability"
	"github.com/noticeboard-app/noticeboard/internal/platform/httpx"
	"github.com/noticeboard-app/noticeboard/internal/shared"
	"github.com/noticeboard-app/noticeboard/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	AuthHandler    *auth.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	if assets, err := fs.Sub(web.Static, "static"); err == nil {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFileFS(w, r, assets, "index.html")
		})
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(assets)))
	} else {
		params.Logger.Error("static assets unavailable", slog.Any("error", err))
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	// Harness-only reset. Never mounted in production, and deliberately not
	// part of the logout flow.
	if !params.Config.IsProduction() {
		r.Post("/debug/sessions/reset", func(w http.ResponseWriter, r *http.Request) {
			if err := params.SessionManager.ClearAll(r.Context()); err != nil {
				params.Logger.Error("clear sessions", slog.Any("error", err))
				httpx.RespondError(w, err)
				return
			}
			httpx.Message(w, http.StatusOK, "All sessions cleared")
		})
	}

	return r
}
