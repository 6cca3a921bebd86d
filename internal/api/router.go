// Package api assembles the HTTP surface of the scheduler service.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pysugar/post-scheduler/internal/accounts"
	"github.com/pysugar/post-scheduler/internal/api/handlers"
	"github.com/pysugar/post-scheduler/internal/auth/oauth"
	"github.com/pysugar/post-scheduler/internal/content"
	"github.com/pysugar/post-scheduler/internal/logging"
)

// Deps are the services the routes call into.
type Deps struct {
	Content  *content.Service
	Accounts *accounts.Service
	Flow     *oauth.Flow
	Sweeper  handlers.Sweeper
	Now      func() time.Time
}

// NewRouter registers every route on a chi router.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(logging.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{logging.HeaderRequestID},
		MaxAge:         300,
	}))

	r.Get("/health", handlers.HealthHandler(deps.Now))
	r.Get("/version", handlers.VersionHandler())

	// Accounts and OAuth
	r.Get("/accounts", handlers.AccountsHandler(deps.Accounts))
	r.Get("/accounts/connect/{platform}", handlers.ConnectHandler(deps.Flow))
	r.Get("/oauth/callback/{platform}", handlers.CallbackHandler(deps.Flow, deps.Accounts))

	// Content
	r.Post("/content/create", handlers.CreateContentHandler(deps.Content))
	r.Get("/content/list", handlers.ListContentHandler(deps.Content))

	// Manual sweep
	r.Post("/scheduler/run", handlers.RunSchedulerHandler(deps.Sweeper))

	return r
}
