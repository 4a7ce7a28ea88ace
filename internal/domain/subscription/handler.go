package subscription

import (
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/pantry-chef-api/internal/api"
	"github.com/FACorreiaa/pantry-chef-api/internal/types"
	"github.com/FACorreiaa/pantry-chef-api/pkg/middleware"
)

type Handler struct {
	logger       *slog.Logger
	plans        PlanRepository
	entitlements *EntitlementService
}

func NewHandler(plans PlanRepository, entitlements *EntitlementService, logger *slog.Logger) *Handler {
	return &Handler{
		logger:       logger,
		plans:        plans,
		entitlements: entitlements,
	}
}

// ListPlans handles GET /subscription/plans.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.ListActivePlans(r.Context())
	if err != nil {
		api.WriteError(h.logger, w, err)
		return
	}
	if plans == nil {
		plans = []*types.SubscriptionPlan{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"plans": plans})
}

// Status handles GET /subscription/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		api.WriteError(h.logger, w, types.ErrUnauthenticated)
		return
	}

	ent, err := h.entitlements.Status(r.Context(), userID)
	if err != nil {
		api.WriteError(h.logger, w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, ent)
}
