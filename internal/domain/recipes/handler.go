package recipes

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/FACorreiaa/pantry-chef-api/internal/api"
	"github.com/FACorreiaa/pantry-chef-api/internal/types"
	"github.com/FACorreiaa/pantry-chef-api/pkg/middleware"
)

// Recommender is implemented by Service.
type Recommender interface {
	Recommend(ctx context.Context, userID uuid.UUID, ingredients string) ([]*types.Recipe, error)
	History(ctx context.Context, userID uuid.UUID) ([]*types.Recipe, error)
}

type Handler struct {
	logger  *slog.Logger
	service Recommender
}

func NewHandler(service Recommender, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

type recommendRequest struct {
	Ingredients string `json:"ingredients"`
}

// Recommend handles POST /recipes/recommendations.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		api.WriteError(h.logger, w, types.ErrUnauthenticated)
		return
	}

	var req recommendRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(h.logger, w, err)
		return
	}

	recipes, err := h.service.Recommend(r.Context(), userID, req.Ingredients)
	if err != nil {
		api.WriteError(h.logger, w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"recipes": recipes})
}

// List handles GET /recipes.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		api.WriteError(h.logger, w, types.ErrUnauthenticated)
		return
	}

	recipes, err := h.service.History(r.Context(), userID)
	if err != nil {
		api.WriteError(h.logger, w, err)
		return
	}
	if recipes == nil {
		recipes = []*types.Recipe{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"recipes": recipes})
}
