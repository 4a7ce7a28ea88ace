package recipes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/FACorreiaa/pantry-chef-api/internal/llm"
	"github.com/FACorreiaa/pantry-chef-api/internal/types"
)

const (
	maxSavedRecipes = 3
	listLimit       = 10
)

const promptTemplate = "You are a helpful cooking assistant. Suggest 3 simple recipes " +
	"with these ingredients: %s. Return only a JSON array with objects containing " +
	"'name', 'ingredients', and 'instructions' fields."

// EntitlementGate is implemented by subscription.EntitlementService.
type EntitlementGate interface {
	RequireActive(ctx context.Context, userID uuid.UUID) error
}

// Service generates recipe recommendations for entitled users and
// persists them.
type Service struct {
	logger       *slog.Logger
	repo         Repository
	chat         llm.ChatClient
	entitlements EntitlementGate
}

func NewService(repo Repository, chat llm.ChatClient, entitlements EntitlementGate, logger *slog.Logger) *Service {
	return &Service{
		logger:       logger,
		repo:         repo,
		chat:         chat,
		entitlements: entitlements,
	}
}

// Recommend asks the model for recipes based on the given ingredients,
// saves up to three of them and returns the saved rows. The caller must
// hold an active or trial entitlement.
func (s *Service) Recommend(ctx context.Context, userID uuid.UUID, ingredients string) ([]*types.Recipe, error) {
	ctx, span := otel.Tracer("RecipeService").Start(ctx, "Recommend")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("llm.model", s.chat.Model()),
	)

	l := s.logger.With(slog.String("method", "Recommend"), slog.String("user_id", userID.String()))

	if err := s.entitlements.RequireActive(ctx, userID); err != nil {
		return nil, err
	}
	if ingredients == "" {
		return nil, fmt.Errorf("no ingredients provided: %w", types.ErrBadRequest)
	}

	reply, err := s.chat.GenerateContent(ctx, fmt.Sprintf(promptTemplate, ingredients))
	if err != nil {
		l.ErrorContext(ctx, "recommendation generation failed", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get recommendations: %w", err)
	}

	parsed := parseRecipes(reply)
	if len(parsed) == 0 {
		l.WarnContext(ctx, "model reply contained no parseable recipes")
		return nil, fmt.Errorf("no recipes in model reply: %w", types.ErrBadRequest)
	}
	if len(parsed) > maxSavedRecipes {
		parsed = parsed[:maxSavedRecipes]
	}

	saved := make([]*types.Recipe, 0, len(parsed))
	for _, p := range parsed {
		recipe := &types.Recipe{
			UserID:       userID,
			Name:         p.Name,
			Ingredients:  string(p.Ingredients),
			Instructions: string(p.Instructions),
		}
		if err := s.repo.SaveRecipe(ctx, recipe); err != nil {
			return nil, err
		}
		saved = append(saved, recipe)
	}
	l.InfoContext(ctx, "recipes saved", slog.Int("count", len(saved)))
	return saved, nil
}

// History returns the user's last saved recipes, newest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID) ([]*types.Recipe, error) {
	return s.repo.ListByUser(ctx, userID, listLimit)
}
