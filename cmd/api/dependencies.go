package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/FACorreiaa/pantry-chef-api/internal/domain/auth"
	"github.com/FACorreiaa/pantry-chef-api/internal/domain/payments"
	"github.com/FACorreiaa/pantry-chef-api/internal/domain/recipes"
	"github.com/FACorreiaa/pantry-chef-api/internal/domain/subscription"
	"github.com/FACorreiaa/pantry-chef-api/internal/domain/user"
	"github.com/FACorreiaa/pantry-chef-api/internal/gateway/intasend"
	"github.com/FACorreiaa/pantry-chef-api/internal/llm"
	"github.com/FACorreiaa/pantry-chef-api/pkg/config"
	"github.com/FACorreiaa/pantry-chef-api/pkg/db"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config       *config.Config
	DB           *db.DB
	Logger       *slog.Logger
	SessionStore sessions.Store

	// Repositories
	AuthRepo    auth.Repository
	UserRepo    user.Repository
	PlanRepo    subscription.PlanRepository
	SubRepo     subscription.Repository
	PaymentRepo payments.Repository
	RecipeRepo  recipes.Repository

	// Services
	AuthService     *auth.Service
	Entitlements    *subscription.EntitlementService
	CheckoutService *payments.CheckoutService
	Reconciler      *payments.Reconciler
	RecipeService   *recipes.Service

	// Handlers
	AuthHandler         *auth.Handler
	SubscriptionHandler *subscription.Handler
	PaymentHandler      *payments.Handler
	RecipeHandler       *recipes.Handler
	UserHandler         *user.Handler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	database, err := db.New(db.Config{DSN: cfg.Database.DSN()}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}
	deps.DB = database

	if err := database.RunMigrations(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	store := sessions.NewCookieStore([]byte(cfg.Auth.SessionSecret))
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	deps.SessionStore = store

	deps.AuthRepo = auth.NewPostgresAuthRepo(database.Pool, logger)
	deps.UserRepo = user.NewPostgresUserRepo(database.Pool, logger)
	deps.PlanRepo = subscription.NewPostgresPlanRepo(database.Pool, logger)
	deps.SubRepo = subscription.NewPostgresSubscriptionRepo(database.Pool, logger)
	deps.PaymentRepo = payments.NewPostgresPaymentRepo(database.Pool, logger)
	deps.RecipeRepo = recipes.NewPostgresRecipeRepo(database.Pool, logger)

	gateway := intasend.NewClient(cfg.IntaSend, logger)

	deps.AuthService = auth.NewService(deps.AuthRepo, deps.PlanRepo, []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL, logger)
	deps.Entitlements = subscription.NewEntitlementService(deps.UserRepo, deps.SubRepo, logger)
	deps.CheckoutService = payments.NewCheckoutService(deps.PlanRepo, deps.UserRepo, deps.PaymentRepo, gateway, cfg.IntaSend.RedirectURL, logger)

	activator := payments.NewActivator(database.Pool, logger)
	deps.Reconciler = payments.NewReconciler(deps.PaymentRepo, gateway, activator, logger)

	chat, err := llm.NewGeminiChatClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to init llm client: %w", err)
	}
	deps.RecipeService = recipes.NewService(deps.RecipeRepo, chat, deps.Entitlements, logger)

	deps.AuthHandler = auth.NewHandler(deps.AuthService, store, logger)
	deps.SubscriptionHandler = subscription.NewHandler(deps.PlanRepo, deps.Entitlements, logger)
	deps.PaymentHandler = payments.NewHandler(deps.CheckoutService, deps.Reconciler, cfg.IntaSend.WebhookSecret, "/subscription", logger)
	deps.RecipeHandler = recipes.NewHandler(deps.RecipeService, logger)
	deps.UserHandler = user.NewHandler(deps.UserRepo, deps.Entitlements, logger)

	return deps, nil
}

// Close releases held resources.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
