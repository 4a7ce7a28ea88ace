package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FACorreiaa/pantry-chef-api/internal/types"
)

var _ Repository = (*PostgresAuthRepo)(nil)

// Repository is the contract for account persistence.
type Repository interface {
	// CreateUserWithTrial inserts the user and, when a trial plan is
	// given, the initial trial subscription in one transaction.
	// Returns types.ErrConflict when the email is already registered.
	CreateUserWithTrial(ctx context.Context, name, email, passwordHash string, trialEnd time.Time, trialPlanID *uuid.UUID) (*types.User, error)
	// GetUserByEmail fetches a user by email for login.
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresAuthRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresAuthRepo) CreateUserWithTrial(ctx context.Context, name, email, passwordHash string, trialEnd time.Time, trialPlanID *uuid.UUID) (*types.User, error) {
	l := r.logger.With(slog.String("method", "CreateUserWithTrial"), slog.String("email", email))

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var user types.User
	err = tx.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, trial_end_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, password_hash, trial_end_date, created_at, updated_at`,
		name, email, passwordHash, trialEnd).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.TrialEndDate, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			l.WarnContext(ctx, "registration with existing email")
			return nil, fmt.Errorf("email already registered: %w", types.ErrConflict)
		}
		l.ErrorContext(ctx, "failed to insert user", slog.Any("error", err))
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	if trialPlanID != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO subscriptions (user_id, plan_id, status, start_date, end_date)
			VALUES ($1, $2, 'trial', now(), $3)`, user.ID, *trialPlanID, trialEnd)
		if err != nil {
			l.ErrorContext(ctx, "failed to insert trial subscription", slog.Any("error", err))
			return nil, fmt.Errorf("failed to insert trial subscription: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}
	return &user, nil
}

func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	var user types.User
	err := r.pgpool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, trial_end_date, created_at, updated_at
		FROM users WHERE email = $1`, email).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.TrialEndDate, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", email, types.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}
