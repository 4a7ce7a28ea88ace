package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/pantry-chef-api/internal/types"
)

var _ Repository = (*PostgresPaymentRepo)(nil)

// Repository persists payment rows outside the activation transaction.
type Repository interface {
	// CreatePending inserts a pending payment keyed by the api_ref
	// idempotency token.
	CreatePending(ctx context.Context, userID, planID uuid.UUID, amount float64, apiRef string) (*types.Payment, error)
	// LatestPendingByUser returns the newest pending payment for a user.
	// This is the weak correlation fallback used by the redirect
	// callback path; types.ErrNotFound when none is pending.
	LatestPendingByUser(ctx context.Context, userID uuid.UUID) (*types.Payment, error)
	// PendingByAPIRef looks a pending payment up by its token.
	PendingByAPIRef(ctx context.Context, apiRef string) (*types.Payment, error)
	// HasCompleted reports whether any payment row with one of the given
	// transaction tokens is already completed.
	HasCompleted(ctx context.Context, tokens ...string) (bool, error)
}

type PostgresPaymentRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresPaymentRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresPaymentRepo {
	return &PostgresPaymentRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const paymentColumns = `id, user_id, plan_id, subscription_id, amount, status, payment_method, transaction_id, created_at, updated_at`

func scanPayment(row pgx.Row) (*types.Payment, error) {
	var p types.Payment
	err := row.Scan(&p.ID, &p.UserID, &p.PlanID, &p.SubscriptionID, &p.Amount,
		&p.Status, &p.PaymentMethod, &p.TransactionID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresPaymentRepo) CreatePending(ctx context.Context, userID, planID uuid.UUID, amount float64, apiRef string) (*types.Payment, error) {
	ctx, span := otel.Tracer("PaymentRepo").Start(ctx, "CreatePending", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "payments"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "CreatePending"), slog.String("api_ref", apiRef))

	row := r.pgpool.QueryRow(ctx, `
		INSERT INTO payments (user_id, plan_id, amount, status, payment_method, transaction_id)
		VALUES ($1, $2, $3, 'pending', 'intasend', $4)
		RETURNING `+paymentColumns, userID, planID, amount, apiRef)

	payment, err := scanPayment(row)
	if err != nil {
		l.ErrorContext(ctx, "failed to insert pending payment", slog.Any("error", err))
		span.RecordError(err)
		return nil, fmt.Errorf("failed to insert pending payment: %w", err)
	}
	l.DebugContext(ctx, "pending payment recorded")
	return payment, nil
}

func (r *PostgresPaymentRepo) LatestPendingByUser(ctx context.Context, userID uuid.UUID) (*types.Payment, error) {
	row := r.pgpool.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE user_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
		LIMIT 1`, userID)

	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no pending payment for user %s: %w", userID, types.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch pending payment: %w", err)
	}
	return payment, nil
}

func (r *PostgresPaymentRepo) PendingByAPIRef(ctx context.Context, apiRef string) (*types.Payment, error) {
	row := r.pgpool.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE transaction_id = $1 AND status = 'pending'`, apiRef)

	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no pending payment for reference %q: %w", apiRef, types.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch pending payment: %w", err)
	}
	return payment, nil
}

func (r *PostgresPaymentRepo) HasCompleted(ctx context.Context, tokens ...string) (bool, error) {
	var candidates []string
	for _, t := range tokens {
		if t != "" {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return false, nil
	}

	var exists bool
	err := r.pgpool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM payments
			WHERE transaction_id = ANY($1) AND status = 'completed'
		)`, candidates).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check completed payments: %w", err)
	}
	return exists, nil
}
