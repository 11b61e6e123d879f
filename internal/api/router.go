package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/vcafe/identity-service/internal/api/handlers"
	"github.com/vcafe/identity-service/internal/api/middleware"
	"github.com/vcafe/identity-service/internal/config"
	"github.com/vcafe/identity-service/internal/oauth"
	"github.com/vcafe/identity-service/internal/service"
)

func NewRouter(services *service.Services, providers oauth.Clients, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, cfg)
	oauthHandler := handlers.NewOAuthHandler(services.Auth, providers, cfg)

	// API v1 routes
	r.Route("/api/v1/auth", func(r chi.Router) {
		// Public routes
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)

		// OAuth flow
		r.Get("/{provider}/start", oauthHandler.Start)
		r.Get("/{provider}/callback", oauthHandler.Callback)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth))
			r.Get("/me", authHandler.Me)
			r.Post("/logout", authHandler.Logout)
		})
	})

	return r
}
