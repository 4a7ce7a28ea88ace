package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/pantry-chef-api/internal/types"
)

var _ PlanRepository = (*PostgresPlanRepo)(nil)

// PlanRepository reads subscription plan reference data.
type PlanRepository interface {
	// GetPlan fetches a plan by id. Returns types.ErrNotFound when the
	// plan is missing.
	GetPlan(ctx context.Context, planID uuid.UUID) (*types.SubscriptionPlan, error)
	// GetPlanByName fetches a plan by its unique name.
	GetPlanByName(ctx context.Context, name string) (*types.SubscriptionPlan, error)
	// ListActivePlans returns the plans currently offered for purchase.
	ListActivePlans(ctx context.Context) ([]*types.SubscriptionPlan, error)
}

const activePlansCacheKey = "plans:active"

type PostgresPlanRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
	cache  *cache.Cache
}

func NewPostgresPlanRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresPlanRepo {
	return &PostgresPlanRepo{
		logger: logger,
		pgpool: pgpool,
		cache:  cache.New(5*time.Minute, 10*time.Minute),
	}
}

func (r *PostgresPlanRepo) GetPlan(ctx context.Context, planID uuid.UUID) (*types.SubscriptionPlan, error) {
	var plan types.SubscriptionPlan
	err := r.pgpool.QueryRow(ctx,
		`SELECT id, name, price, duration_days, is_active FROM subscription_plans WHERE id = $1`,
		planID).Scan(&plan.ID, &plan.Name, &plan.Price, &plan.DurationDays, &plan.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("plan %s: %w", planID, types.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch plan: %w", err)
	}
	return &plan, nil
}

func (r *PostgresPlanRepo) GetPlanByName(ctx context.Context, name string) (*types.SubscriptionPlan, error) {
	var plan types.SubscriptionPlan
	err := r.pgpool.QueryRow(ctx,
		`SELECT id, name, price, duration_days, is_active FROM subscription_plans WHERE name = $1`,
		name).Scan(&plan.ID, &plan.Name, &plan.Price, &plan.DurationDays, &plan.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("plan %q: %w", name, types.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch plan: %w", err)
	}
	return &plan, nil
}

func (r *PostgresPlanRepo) ListActivePlans(ctx context.Context) ([]*types.SubscriptionPlan, error) {
	if cached, ok := r.cache.Get(activePlansCacheKey); ok {
		return cached.([]*types.SubscriptionPlan), nil
	}

	rows, err := r.pgpool.Query(ctx,
		`SELECT id, name, price, duration_days, is_active
		 FROM subscription_plans WHERE is_active = TRUE ORDER BY price`)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []*types.SubscriptionPlan
	for rows.Next() {
		var plan types.SubscriptionPlan
		if err := rows.Scan(&plan.ID, &plan.Name, &plan.Price, &plan.DurationDays, &plan.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, &plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read plans: %w", err)
	}

	r.cache.Set(activePlansCacheKey, plans, cache.DefaultExpiration)
	return plans, nil
}
