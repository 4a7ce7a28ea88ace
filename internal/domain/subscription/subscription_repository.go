package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FACorreiaa/pantry-chef-api/internal/types"
)

var _ Repository = (*PostgresSubscriptionRepo)(nil)

// Repository reads subscription state for the entitlement evaluator.
type Repository interface {
	// LatestByUser returns the most recently created subscription for a
	// user joined to its plan, or types.ErrNotFound when none exists.
	LatestByUser(ctx context.Context, userID uuid.UUID) (*types.SubscriptionWithPlan, error)
}

type PostgresSubscriptionRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresSubscriptionRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresSubscriptionRepo {
	return &PostgresSubscriptionRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresSubscriptionRepo) LatestByUser(ctx context.Context, userID uuid.UUID) (*types.SubscriptionWithPlan, error) {
	var sub types.SubscriptionWithPlan
	err := r.pgpool.QueryRow(ctx, `
		SELECT s.id, s.user_id, s.plan_id, s.status, s.start_date, s.end_date,
		       s.created_at, s.updated_at, sp.name, sp.price
		FROM subscriptions s
		JOIN subscription_plans sp ON s.plan_id = sp.id
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC
		LIMIT 1`, userID).Scan(
		&sub.ID, &sub.UserID, &sub.PlanID, &sub.Status, &sub.StartDate, &sub.EndDate,
		&sub.CreatedAt, &sub.UpdatedAt, &sub.PlanName, &sub.PlanPrice,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no subscription for user %s: %w", userID, types.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch subscription: %w", err)
	}
	return &sub, nil
}
