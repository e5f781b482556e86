package wire

import (
	"yamdb/internal/adaptor"
	"yamdb/internal/authz"
	"yamdb/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

// wireUser configures user management routes with role-based access control
func wireUser(r chi.Router, userHandler *adaptor.UserHandler, d deps) {
	r.Route("/users", func(r chi.Router) {
		// ==================== PROTECTED USER ROUTES ====================
		// Own profile, any authenticated user
		r.With(middleware.RequireAuth).Get("/me", userHandler.GetMe)
		r.With(middleware.RequireAuth).Patch("/me", userHandler.UpdateMe)

		// ==================== ADMIN ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(d.enforcer, authz.ObjUsers, authz.ActManage, d.log))

			r.Get("/", userHandler.List)
			r.Post("/", userHandler.Create)
			r.Get("/{username}", userHandler.Get)
			r.Patch("/{username}", userHandler.Update)
			r.Delete("/{username}", userHandler.Delete)
		})
	})
}
