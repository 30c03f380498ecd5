package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"technotes-api/internal/config"
	"technotes-api/internal/handler"
	"technotes-api/internal/middleware"
	"technotes-api/internal/model"
)

type eventSink interface {
	Log(name string, message string)
}

type Handlers struct {
	Root   *handler.RootHandler
	Health *handler.HealthHandler
	Auth   *handler.AuthHandler
	User   *handler.UserHandler
	Note   *handler.NoteHandler
}

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	loginLimiter *middleware.LoginLimiter,
	h Handlers,
	sink eventSink,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM)

	r.NotFound(h.Root.NotFound)
	r.MethodNotAllowed(h.Root.MethodNotAllowed)

	r.Use(middleware.Recovery(sink))
	r.Use(middleware.Logging(sink))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Health.Check)
	r.Get("/", h.Root.Index)
	r.Get("/index", h.Root.Index)
	r.Get("/index.html", h.Root.Index)
	r.Get("/css/*", h.Root.Static)

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.With(loginLimiter.Handler).Post("/", h.Auth.Login)
			auth.Get("/refresh", h.Auth.Refresh)
			auth.Post("/logout", h.Auth.Logout)
		})

		api.Route("/users", func(users chi.Router) {
			users.Use(authMiddleware.RequireAuth, authMiddleware.RequireRoles(model.RoleAdmin, model.RoleManager))
			users.Get("/", h.User.List)
			users.Post("/", h.User.Create)
			users.Patch("/", h.User.Update)
			users.Delete("/", h.User.Delete)
		})

		api.Route("/notes", func(notes chi.Router) {
			notes.Use(authMiddleware.RequireAuth)
			notes.Get("/", h.Note.List)
			notes.Post("/", h.Note.Create)
			notes.Patch("/", h.Note.Update)
			notes.Delete("/", h.Note.Delete)
		})
	})

	return r
}
