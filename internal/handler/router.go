package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/service"
)

// Deps are the collaborators the router needs. Hits may be nil.
type Deps struct {
	Events    *service.EventService
	Requests  *service.RequestService
	Directory *service.DirectoryService
	Hits      HitRecorder
	Logger    zerolog.Logger
	Now       func() time.Time
}

// NewRouter builds the HTTP API.
func NewRouter(d Deps) http.Handler {
	if d.Now == nil {
		d.Now = time.Now
	}
	errs := errorWriter{log: d.Logger, now: d.Now}
	admin := &AdminHandler{events: d.Events, directory: d.Directory, errs: errs}
	users := &UserHandler{events: d.Events, requests: d.Requests, errs: errs}
	public := &PublicHandler{events: d.Events, hits: d.Hits, log: d.Logger, errs: errs}

	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(d.Logger))
	r.Use(CORS)

	r.Get("/health", HealthCheck)

	r.Route("/admin", func(r chi.Router) {
		r.Post("/users", admin.CreateUser)
		r.Post("/categories", admin.CreateCategory)
		r.Get("/events", admin.SearchEvents)
		r.Patch("/events/{eventId}", admin.UpdateEvent)
	})

	r.Route("/users/{userId}", func(r chi.Router) {
		r.Route("/events", func(r chi.Router) {
			r.Post("/", users.CreateEvent)
			r.Get("/", users.ListEvents)
			r.Get("/{eventId}", users.GetEvent)
			r.Patch("/{eventId}", users.UpdateEvent)
			r.Get("/{eventId}/requests", users.ListEventRequests)
			r.Patch("/{eventId}/requests", users.UpdateEventRequests)
		})
		r.Route("/requests", func(r chi.Router) {
			r.Get("/", users.ListRequests)
			r.Post("/", users.CreateRequest)
			r.Patch("/{requestId}/cancel", users.CancelRequest)
		})
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", public.SearchEvents)
		r.Get("/{id}", public.GetEvent)
	})

	return r
}
