package recipes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/pantry-chef-api/internal/types"
)

var _ Repository = (*PostgresRecipeRepo)(nil)

// Repository is the contract for recipe persistence.
type Repository interface {
	// SaveRecipe inserts a recipe and fills in its generated id and
	// creation time.
	SaveRecipe(ctx context.Context, recipe *types.Recipe) error
	// ListByUser returns the user's most recent recipes, newest first,
	// capped at limit.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Recipe, error)
}

type PostgresRecipeRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresRecipeRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresRecipeRepo {
	return &PostgresRecipeRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresRecipeRepo) SaveRecipe(ctx context.Context, recipe *types.Recipe) error {
	ctx, span := otel.Tracer("RecipeRepo").Start(ctx, "SaveRecipe")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", recipe.UserID.String()))

	err := r.pgpool.QueryRow(ctx, `
		INSERT INTO recipes (user_id, recipe_name, ingredients, instructions)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		recipe.UserID, recipe.Name, recipe.Ingredients, recipe.Instructions,
	).Scan(&recipe.ID, &recipe.CreatedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return fmt.Errorf("failed to save recipe: %w", err)
	}
	return nil
}

func (r *PostgresRecipeRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Recipe, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pgpool.Query(ctx, `
		SELECT id, user_id, recipe_name, ingredients, instructions, created_at
		FROM recipes
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []*types.Recipe
	for rows.Next() {
		var recipe types.Recipe
		if err := rows.Scan(&recipe.ID, &recipe.UserID, &recipe.Name,
			&recipe.Ingredients, &recipe.Instructions, &recipe.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, &recipe)
	}
	return recipes, rows.Err()
}
