package wire

import (
	"yamdb/internal/adaptor"
	"yamdb/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

func wireAuth(r chi.Router, authHandler *adaptor.AuthHandler, d deps) {
	// ==================== PUBLIC ROUTES ====================
	// Rate limited per IP since both endpoints send mail or check codes
	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(d.config.RateLimit.AuthRequests, d.config.RateLimit.AuthWindow))

		r.Post("/signup", authHandler.Signup)
		r.Post("/token", authHandler.Token)
	})
}
