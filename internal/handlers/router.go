package handlers

import (
	"net/http"
	"time"
	"todolist/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	Sessions          middleware.SessionResolver
	AllowedOrigins    []string
	RequestsPerMinute int
	RequestTimeout    time.Duration
}

// NewRouter mounts every page of the application behind the common middleware stack.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	if cfg.RequestsPerMinute > 0 {
		r.Use(middleware.RateLimit(cfg.RequestsPerMinute))
	}
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}
	r.Use(middleware.Session(cfg.Sessions, h.cookie.Name))

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/", h.Home)
	r.Get("/health", h.HealthCheck)

	r.Get("/signup/", h.SignupPage)
	r.Post("/signup/", h.Signup)
	r.Get("/login/", h.LoginPage)
	r.Post("/login/", h.Login)
	r.Post("/logout/", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)

		r.Get("/current/", h.CurrentTasks)
		r.Get("/completed/", h.CompletedTasks)
		r.Get("/create/", h.CreateTaskPage)
		r.Post("/create/", h.CreateTask)

		r.Route("/todo/{id}", func(r chi.Router) {
			r.Get("/", h.ViewTask)
			r.Get("/edit/", h.EditTaskPage)
			r.Post("/edit/", h.EditTask)
			r.Post("/complete/", h.CompleteTask)
			r.Post("/delete/", h.DeleteTask)
		})

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", h.ListGroups)
			r.Get("/create/", h.CreateGroupPage)
			r.Post("/create/", h.CreateGroup)
			r.Post("/accept/", h.AcceptInvite)
			r.Post("/decline/", h.DeclineInvite)
			// static segments win over {id}, so GET needs an explicit 405 here
			r.Get("/accept/", methodNotAllowed)
			r.Get("/decline/", methodNotAllowed)
			r.Get("/{id}/", h.ViewGroup)
			r.Post("/{id}/", h.GroupAction)
		})
	})

	return otelhttp.NewHandler(r, "todolist")
}
