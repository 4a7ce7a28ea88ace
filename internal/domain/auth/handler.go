package auth

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/FACorreiaa/pantry-chef-api/internal/api"
	"github.com/FACorreiaa/pantry-chef-api/pkg/middleware"
)

// Handler exposes registration and login. Login establishes both the
// bearer token for API clients and the browser session the payment
// redirect callback depends on.
type Handler struct {
	logger *slog.Logger
	svc    *Service
	store  sessions.Store
}

func NewHandler(svc *Service, store sessions.Store, logger *slog.Logger) *Handler {
	return &Handler{
		logger: logger,
		svc:    svc,
		store:  store,
	}
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var params RegisterParams
	if err := api.DecodeJSON(r, &params); err != nil {
		api.WriteError(h.logger, w, err)
		return
	}

	user, err := h.svc.Register(r.Context(), params)
	if err != nil {
		api.WriteError(h.logger, w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(h.logger, w, err)
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		api.WriteError(h.logger, w, err)
		return
	}

	session, _ := h.store.Get(r, middleware.SessionName)
	session.Values[middleware.SessionUserKey] = result.User.ID.String()
	if err := session.Save(r, w); err != nil {
		h.logger.Warn("failed to save session", slog.Any("error", err))
	}

	api.WriteJSON(w, http.StatusOK, result)
}

// Logout handles POST /auth/logout by expiring the browser session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.store.Get(r, middleware.SessionName)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		h.logger.Warn("failed to clear session", slog.Any("error", err))
	}
	api.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
