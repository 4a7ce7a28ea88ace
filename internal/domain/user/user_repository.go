package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FACorreiaa/pantry-chef-api/internal/types"
)

var _ Repository = (*PostgresUserRepo)(nil)

// Repository is the contract for user profile persistence.
type Repository interface {
	// GetUserByID retrieves a user by their unique id.
	// Returns types.ErrNotFound if the user doesn't exist.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
	// UpdateProfile updates the mutable profile fields; nil fields are
	// left unchanged. Returns types.ErrConflict when the new email is
	// already taken.
	UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) error
	// DeleteAccount removes the user and all dependent rows (recipes,
	// payments, subscriptions) in one transaction.
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

type PostgresUserRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresUserRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresUserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	var user types.User
	err := r.pgpool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, trial_end_date, created_at, updated_at
		FROM users WHERE id = $1`, userID).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.TrialEndDate, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userID, types.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}

func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) error {
	l := r.logger.With(slog.String("method", "UpdateProfile"), slog.String("user_id", userID.String()))

	builder := sq.Update("users").
		PlaceholderFormat(sq.Dollar).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": userID})

	changed := false
	if params.Name != nil {
		builder = builder.Set("name", *params.Name)
		changed = true
	}
	if params.Email != nil {
		builder = builder.Set("email", *params.Email)
		changed = true
	}
	if !changed {
		return fmt.Errorf("no fields to update: %w", types.ErrBadRequest)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.pgpool.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			l.WarnContext(ctx, "profile update with existing email")
			return fmt.Errorf("email already exists: %w", types.ErrConflict)
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", userID, types.ErrNotFound)
	}
	return nil
}

func (r *PostgresUserRepo) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	l := r.logger.With(slog.String("method", "DeleteAccount"), slog.String("user_id", userID.String()))

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Order matters: payments and subscriptions reference each other
	// through subscription_id, so dependents go first.
	for _, stmt := range []string{
		`DELETE FROM recipes WHERE user_id = $1`,
		`DELETE FROM payments WHERE user_id = $1`,
		`DELETE FROM subscriptions WHERE user_id = $1`,
		`DELETE FROM users WHERE id = $1`,
	} {
		if _, err := tx.Exec(ctx, stmt, userID); err != nil {
			l.ErrorContext(ctx, "account deletion failed", slog.Any("error", err))
			return fmt.Errorf("failed to delete account: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit account deletion: %w", err)
	}
	l.InfoContext(ctx, "account deleted")
	return nil
}
