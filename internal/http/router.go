package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"safety-insight/internal/handlers"
	"safety-insight/internal/service"
	"safety-insight/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	ChatService service.ChatService
	// Index is probed by /health.
	Index        vectorstore.Index
	IndexBackend string
	// IndexHTML is the chat page served at /.
	IndexHTML string
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	r.Method(http.MethodPost, "/chat", handlers.NewChatHandler(deps.ChatService))
	r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.Index, deps.IndexBackend))

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(deps.IndexHTML))
	})

	return r
}
