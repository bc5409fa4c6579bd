package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"careerpath/internal/examservice"
)

const defaultRequestTimeout = 30 * time.Second

type Options struct {
	// JWTSecret enables bearer authentication. Empty means learners are
	// identified by the X-Learner header.
	JWTSecret      string
	Logger         *slog.Logger
	RequestTimeout time.Duration
}

func NewRouter(service *examservice.Service, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	api := NewAPI(service, NewAuthenticator(opts.JWTSecret), logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	r.Get("/health", api.HandleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", api.HandleHealth)
		r.Get("/tests", api.HandleListTests)
		r.Get("/tests/{testID}", api.HandleGetTest)

		r.Group(func(r chi.Router) {
			r.Use(api.auth.Middleware)
			r.Post("/tests/{testID}/start", api.HandleStart)
			r.Post("/tests/{testID}/submit", api.HandleSubmit)
		})
	})

	return r
}
