package admin

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/oxbow-chat/oxbow/internal/app"
)

// RouterParams groups dependencies for building the admin router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *app.Config
	Handler *Handler
}

// NewRouter constructs the admin chi.Router.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		api.Get("/commands", params.Handler.ListCommands)
		api.Get("/commands/{id}", params.Handler.GetCommand)
		api.Get("/channels", params.Handler.ListChannels)
		api.Get("/channels/{name}", params.Handler.GetChannel)
	})

	return r
}
