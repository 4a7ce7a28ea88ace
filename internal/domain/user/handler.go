package user

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/FACorreiaa/pantry-chef-api/internal/api"
	"github.com/FACorreiaa/pantry-chef-api/internal/types"
	"github.com/FACorreiaa/pantry-chef-api/pkg/middleware"
)

// EntitlementChecker is implemented by subscription.EntitlementService.
type EntitlementChecker interface {
	Status(ctx context.Context, userID uuid.UUID) (*types.Entitlement, error)
}

type Handler struct {
	logger       *slog.Logger
	repo         Repository
	entitlements EntitlementChecker
}

func NewHandler(repo Repository, entitlements EntitlementChecker, logger *slog.Logger) *Handler {
	return &Handler{
		logger:       logger,
		repo:         repo,
		entitlements: entitlements,
	}
}

type profileResponse struct {
	User        *types.User        `json:"user"`
	Entitlement *types.Entitlement `json:"entitlement"`
}

// GetProfile handles GET /user/profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		api.WriteError(h.logger, w, types.ErrUnauthenticated)
		return
	}

	u, err := h.repo.GetUserByID(r.Context(), userID)
	if err != nil {
		api.WriteError(h.logger, w, err)
		return
	}
	ent, err := h.entitlements.Status(r.Context(), userID)
	if err != nil {
		api.WriteError(h.logger, w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, profileResponse{User: u, Entitlement: ent})
}

// UpdateProfile handles PUT /user/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		api.WriteError(h.logger, w, types.ErrUnauthenticated)
		return
	}

	var params types.UpdateProfileParams
	if err := api.DecodeJSON(r, &params); err != nil {
		api.WriteError(h.logger, w, err)
		return
	}
	if err := h.repo.UpdateProfile(r.Context(), userID, params); err != nil {
		api.WriteError(h.logger, w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"message": "profile updated"})
}

// DeleteAccount handles DELETE /user/account.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		api.WriteError(h.logger, w, types.ErrUnauthenticated)
		return
	}

	if err := h.repo.DeleteAccount(r.Context(), userID); err != nil {
		api.WriteError(h.logger, w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}
