package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FACorreiaa/pantry-chef-api/internal/types"
)

// TxBeginner is the slice of the connection pool the activator needs.
// Satisfied by *pgxpool.Pool and by pgxmock in tests.
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// ActivationParams identifies the payment being settled. Amount is
// advisory: it is recorded on the defensive insert path but never gates
// activation.
type ActivationParams struct {
	UserID         uuid.UUID
	PlanID         uuid.UUID
	APIRef         string
	TransactionRef string
	Amount         float64
}

// ActivationResult reports what the activation transaction did.
type ActivationResult struct {
	SubscriptionID   uuid.UUID
	AlreadyProcessed bool
}

// Activator performs the atomic subscription state transition: cancel
// every live subscription for the user, insert the new active one, and
// settle the payment row, all inside one serializable transaction.
// Serializable isolation is what makes the check-then-insert sequence
// safe when two signals for the same payment race (webhook vs verify).
type Activator struct {
	logger *slog.Logger
	pool   TxBeginner
}

func NewActivator(pool TxBeginner, logger *slog.Logger) *Activator {
	return &Activator{
		logger: logger,
		pool:   pool,
	}
}

// Activate settles a paid checkout. Every exit path releases the
// transaction: commit on success, rollback otherwise.
func (a *Activator) Activate(ctx context.Context, params ActivationParams) (*ActivationResult, error) {
	l := a.logger.With(
		slog.String("method", "Activate"),
		slog.String("user_id", params.UserID.String()),
		slog.String("plan_id", params.PlanID.String()),
	)

	tx, err := a.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", types.ErrActivationFailed)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Idempotence re-check inside the transaction. The reconciler checks
	// before calling, but a concurrent signal can complete the payment
	// between that check and this transaction.
	var tokens []string
	for _, t := range []string{params.TransactionRef, params.APIRef} {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	var alreadyDone bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM payments
			WHERE transaction_id = ANY($1) AND status = 'completed'
		)`, tokens).Scan(&alreadyDone)
	if err != nil {
		return nil, fmt.Errorf("idempotence check failed: %v: %w", err, types.ErrActivationFailed)
	}
	if alreadyDone {
		l.InfoContext(ctx, "payment already processed, skipping activation")
		return &ActivationResult{AlreadyProcessed: true}, nil
	}

	var durationDays int
	err = tx.QueryRow(ctx,
		`SELECT duration_days FROM subscription_plans WHERE id = $1`,
		params.PlanID).Scan(&durationDays)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("plan %s: %w", params.PlanID, types.ErrNotFound)
		}
		return nil, fmt.Errorf("plan lookup failed: %v: %w", err, types.ErrActivationFailed)
	}

	startDate := time.Now().UTC()
	endDate := startDate.AddDate(0, 0, durationDays)

	// Supersede every live subscription so at most one row per user is
	// ever trial or active.
	cancelled, err := tx.Exec(ctx, `
		UPDATE subscriptions
		SET status = 'cancelled', updated_at = now()
		WHERE user_id = $1 AND status IN ('active', 'trial')`, params.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel existing subscriptions: %v: %w", err, types.ErrActivationFailed)
	}

	var subscriptionID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO subscriptions (user_id, plan_id, status, start_date, end_date)
		VALUES ($1, $2, 'active', $3, $4)
		RETURNING id`, params.UserID, params.PlanID, startDate, endDate).Scan(&subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert subscription: %v: %w", err, types.ErrActivationFailed)
	}

	settled, err := tx.Exec(ctx, `
		UPDATE payments
		SET subscription_id = $1, status = 'completed', updated_at = now()
		WHERE user_id = $2 AND transaction_id = $3 AND status = 'pending'`,
		subscriptionID, params.UserID, params.APIRef)
	if err != nil {
		return nil, fmt.Errorf("failed to settle payment: %v: %w", err, types.ErrActivationFailed)
	}
	if settled.RowsAffected() == 0 {
		// No pending row matched: the signal arrived without a prior
		// checkout record (e.g. a webhook beating the redirect). Record
		// the completed payment directly.
		ref := params.TransactionRef
		if ref == "" {
			ref = params.APIRef
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO payments (user_id, plan_id, subscription_id, amount, status, payment_method, transaction_id)
			VALUES ($1, $2, $3, $4, 'completed', 'intasend', $5)`,
			params.UserID, params.PlanID, subscriptionID, params.Amount, ref)
		if err != nil {
			return nil, fmt.Errorf("failed to insert completed payment: %v: %w", err, types.ErrActivationFailed)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit activation: %v: %w", err, types.ErrActivationFailed)
	}

	l.InfoContext(ctx, "subscription activated",
		slog.String("subscription_id", subscriptionID.String()),
		slog.Int64("superseded", cancelled.RowsAffected()),
		slog.Time("end_date", endDate),
	)
	return &ActivationResult{SubscriptionID: subscriptionID}, nil
}
