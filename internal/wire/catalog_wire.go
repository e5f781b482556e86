package wire

import (
	"net/http"

	"yamdb/internal/adaptor"
	"yamdb/internal/authz"
	"yamdb/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

type slugHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

func wireCatalog(r chi.Router, categoryHandler *adaptor.CategoryHandler, genreHandler *adaptor.GenreHandler, d deps) {
	wireSlugResource(r, "/categories", categoryHandler, d)
	wireSlugResource(r, "/genres", genreHandler, d)
}

func wireSlugResource(r chi.Router, pattern string, h slugHandler, d deps) {
	r.Route(pattern, func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		r.Get("/", h.List)

		// ==================== ADMIN ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(d.enforcer, authz.ObjCatalog, authz.ActWrite, d.log))

			r.Post("/", h.Create)
			r.Delete("/{slug}", h.Delete)
		})
	})
}

func wireTitle(r chi.Router, titleHandler *adaptor.TitleHandler, d deps) {
	r.Route("/titles", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		r.Get("/", titleHandler.List)
		r.Get("/{id}", titleHandler.Get)

		// ==================== ADMIN ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(d.enforcer, authz.ObjCatalog, authz.ActWrite, d.log))

			r.Post("/", titleHandler.Create)
			r.Patch("/{id}", titleHandler.Update)
			r.Delete("/{id}", titleHandler.Delete)
		})
	})
}
