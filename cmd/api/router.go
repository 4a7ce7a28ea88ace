package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/pantry-chef-api/internal/api"
	"github.com/FACorreiaa/pantry-chef-api/pkg/middleware"
	"github.com/FACorreiaa/pantry-chef-api/pkg/observability"
)

// SetupRouter configures all routes and returns the HTTP handler.
func SetupRouter(deps *Dependencies) http.Handler {
	r := chi.NewRouter()

	jwtSecret := []byte(deps.Config.Auth.JWTSecret)
	if len(jwtSecret) == 0 {
		deps.Logger.Warn("JWT secret is empty; bearer authentication will reject all tokens")
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(deps.Logger))
	r.Use(middleware.Recovery(deps.Logger))
	if deps.Config.Server.MetricsEnabled {
		r.Use(observability.Metrics)
	}
	if deps.Config.Server.RateLimitPerSecond > 0 && deps.Config.Server.RateLimitBurst > 0 {
		limiter := rate.NewLimiter(
			rate.Limit(float64(deps.Config.Server.RateLimitPerSecond)),
			deps.Config.Server.RateLimitBurst,
		)
		r.Use(middleware.RateLimit(limiter))
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   deps.Config.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	})
	r.Use(corsHandler.Handler)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := deps.DB.Health(); err != nil {
			api.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
		api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	if deps.Config.Server.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	authRequired := middleware.Auth(jwtSecret, deps.SessionStore)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", deps.AuthHandler.Register)
			r.Post("/login", deps.AuthHandler.Login)
			r.Post("/logout", deps.AuthHandler.Logout)
		})

		// The gateway signs webhook deliveries itself; no user session.
		r.Post("/webhooks/intasend", deps.PaymentHandler.Webhook)

		// The browser returns here from the gateway without a bearer
		// token; the handler redirects anonymous visitors to login.
		r.With(middleware.MaybeAuth(jwtSecret, deps.SessionStore)).
			Get("/payments/callback", deps.PaymentHandler.Callback)

		r.Group(func(r chi.Router) {
			r.Use(authRequired)

			r.Route("/subscription", func(r chi.Router) {
				r.Get("/plans", deps.SubscriptionHandler.ListPlans)
				r.Get("/status", deps.SubscriptionHandler.Status)
				r.Post("/checkout", deps.PaymentHandler.Checkout)
			})

			r.Post("/payments/verify", deps.PaymentHandler.Verify)

			r.Route("/recipes", func(r chi.Router) {
				r.Post("/recommendations", deps.RecipeHandler.Recommend)
				r.Get("/", deps.RecipeHandler.List)
			})

			r.Get("/profile", deps.UserHandler.GetProfile)
			r.Put("/profile", deps.UserHandler.UpdateProfile)
			r.Delete("/account", deps.UserHandler.DeleteAccount)
		})
	})

	return r
}
