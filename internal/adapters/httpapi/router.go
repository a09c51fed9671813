package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterOptions struct {
	// DisplayedUserMiddleware resolves the displayed user. Defaults to
	// NewDisplayedUserMiddleware(0).
	DisplayedUserMiddleware func(http.Handler) http.Handler

	// Metrics serves /metrics when set.
	Metrics http.Handler
}

func NewRouter(s *Server) http.Handler {
	return NewRouterWithOptions(s, RouterOptions{})
}

// NewRouterWithOptions constructs the HTTP router of the profile host.
func NewRouterWithOptions(s *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	du := opts.DisplayedUserMiddleware
	if du == nil {
		du = NewDisplayedUserMiddleware(0)
	}
	r.Group(func(r chi.Router) {
		r.Use(du)
		r.Use(RequestCache)

		r.Get("/field-types", s.ListFieldTypes)
		r.Get("/member-types", s.ListMemberTypes)

		r.Post("/fields", s.CreateField)
		r.Get("/fields/{fieldId}/edit", s.EditField)
		r.Get("/fields/{fieldId}/admin", s.AdminField)
		r.Get("/fields/{fieldId}/children", s.ListFieldChildren)
		r.Get("/fields/{fieldId}/meta", s.GetFieldMeta)
		r.Put("/fields/{fieldId}/meta", s.SaveFieldMeta)
		r.Get("/fields/{fieldId}/search-type", s.GetSearchFieldType)

		r.Get("/users/{userId}/fields/{fieldId}/edit", s.EditUserField)
		r.Post("/users/{userId}/fields/{fieldId}", s.SaveFieldValue)
		r.Get("/users/{userId}/fields/{fieldId}/value", s.GetFieldValue)
		r.Get("/users/{userId}/member-type", s.GetMemberType)
	})
	return r
}
