// internal/wire/wire.go
package wire

import (
	"context"
	"net/http"
	"time"

	"yamdb/internal/adaptor"
	"yamdb/internal/authz"
	"yamdb/internal/data/repository"
	"yamdb/internal/usecase"
	"yamdb/pkg/database"
	"yamdb/pkg/mailer"
	"yamdb/pkg/middleware"
	"yamdb/pkg/token"
	"yamdb/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds the wired router.
type App struct {
	Router *chi.Mux
}

// deps is what route registration needs besides the handlers.
type deps struct {
	repo     *repository.Repository
	enforcer *authz.Enforcer
	tokens   *token.Manager
	config   *utils.Config
	log      *zap.Logger
}

// Wiring builds services, handlers and the router.
func Wiring(db database.PgxIface, repo *repository.Repository, config *utils.Config, logger *zap.Logger) (*App, error) {
	enforcer, err := authz.NewEnforcer()
	if err != nil {
		return nil, err
	}

	tokens := token.NewManager(config.JWT.Secret, time.Duration(config.JWT.ExpiryHours)*time.Hour)
	mail := mailer.New(config.Email, logger)

	service := usecase.NewService(repo, enforcer, mail, tokens, config, logger)
	handler := adaptor.NewHandler(service, logger)

	d := deps{
		repo:     repo,
		enforcer: enforcer,
		tokens:   tokens,
		config:   config,
		log:      logger,
	}

	return &App{
		Router: setupRouter(handler, db, d),
	}, nil
}

func setupRouter(handler *adaptor.Handler, db database.PgxIface, d deps) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.StripSlashes)
	r.Use(middleware.Recover(d.log))
	r.Use(middleware.Logger(d.log))
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(d.config.CORS.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseNotFound(w, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseMethodNotAllowed(w)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(d.tokens, d.repo.User, d.log))

		wireAuth(r, handler.Auth, d)
		wireUser(r, handler.User, d)
		wireCatalog(r, handler.Category, handler.Genre, d)
		wireTitle(r, handler.Title, d)
		wireReview(r, handler.Review, handler.Comment, d)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			d.log.Error("Health check failed", zap.Error(err))
			utils.ResponseServiceUnavailable(w, "Database unavailable")
			return
		}
		utils.ResponseSuccess(w, "OK", nil)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
