package payments

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/FACorreiaa/pantry-chef-api/internal/api"
	"github.com/FACorreiaa/pantry-chef-api/internal/types"
	"github.com/FACorreiaa/pantry-chef-api/pkg/middleware"
	"github.com/FACorreiaa/pantry-chef-api/pkg/observability"
)

// CheckoutStarter is implemented by CheckoutService.
type CheckoutStarter interface {
	StartCheckout(ctx context.Context, userID, planID uuid.UUID) (*CheckoutSession, error)
}

// ReconcileService is implemented by Reconciler.
type ReconcileService interface {
	Reconcile(ctx context.Context, sig types.NormalizedSignal) (*types.ReconciliationResult, error)
	VerifyCheckout(ctx context.Context, sessionUserID uuid.UUID, checkoutID string) (*types.ReconciliationResult, error)
	ReconcileCallback(ctx context.Context, sessionUserID uuid.UUID, trackingID, checkoutID string) (*types.ReconciliationResult, error)
}

// Handler exposes the payment routes: checkout creation plus the three
// inbound reconciliation paths.
type Handler struct {
	logger        *slog.Logger
	checkout      CheckoutStarter
	reconciler    ReconcileService
	webhookSecret string
	// subscriptionPage is where the browser is sent after the redirect
	// callback, with a flash-style notice in the query string.
	subscriptionPage string
}

func NewHandler(checkout CheckoutStarter, reconciler ReconcileService, webhookSecret, subscriptionPage string, logger *slog.Logger) *Handler {
	if subscriptionPage == "" {
		subscriptionPage = "/subscription"
	}
	return &Handler{
		logger:           logger,
		checkout:         checkout,
		reconciler:       reconciler,
		webhookSecret:    webhookSecret,
		subscriptionPage: subscriptionPage,
	}
}

type checkoutRequest struct {
	PlanID string `json:"plan_id"`
}

// Checkout handles POST /subscription/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		api.WriteError(h.logger, w, types.ErrUnauthenticated)
		return
	}

	var req checkoutRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(h.logger, w, err)
		return
	}
	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		api.WriteError(h.logger, w, types.ErrBadRequest)
		return
	}

	session, err := h.checkout.StartCheckout(r.Context(), userID, planID)
	if err != nil {
		api.WriteError(h.logger, w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, session)
}

// Callback handles GET /payments/callback, the browser redirect from
// the gateway. Failures surface as a notice on the subscription page
// rather than an API error, since the caller is a browser mid-redirect.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	trackingID := r.URL.Query().Get("tracking_id")
	checkoutID := r.URL.Query().Get("checkout_id")
	// The signature query parameter is also present but is not part of
	// this path's trust model; correlation relies on the session.

	result, err := h.reconciler.ReconcileCallback(r.Context(), userID, trackingID, checkoutID)
	if err != nil {
		h.logger.Warn("callback reconciliation failed", slog.Any("error", err))
		h.redirectNotice(w, r, "Payment verification failed. Please contact support if you were charged.")
		return
	}

	switch result.Outcome {
	case types.OutcomeActivated:
		h.redirectNotice(w, r, "Payment successful! Your subscription is now active.")
	case types.OutcomeAlreadyProcessed:
		h.redirectNotice(w, r, "Payment already processed. Your subscription is active.")
	default:
		h.redirectNotice(w, r, "Payment was not completed successfully.")
	}
}

func (h *Handler) redirectNotice(w http.ResponseWriter, r *http.Request, notice string) {
	target := h.subscriptionPage + "?notice=" + url.QueryEscape(notice)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

type verifyRequest struct {
	CheckoutID string `json:"checkout_id"`
}

type verifyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Verify handles POST /payments/verify, the client-initiated
// verification poll.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		api.WriteError(h.logger, w, types.ErrUnauthenticated)
		return
	}

	var req verifyRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(h.logger, w, err)
		return
	}

	result, err := h.reconciler.VerifyCheckout(r.Context(), userID, req.CheckoutID)
	if err != nil {
		api.WriteError(h.logger, w, err)
		return
	}

	switch result.Outcome {
	case types.OutcomeActivated:
		api.WriteJSON(w, http.StatusOK, verifyResponse{Success: true, Message: "Payment verified and subscription activated!"})
	case types.OutcomeAlreadyProcessed:
		api.WriteJSON(w, http.StatusOK, verifyResponse{Success: true, Message: "Payment already processed."})
	default:
		api.WriteJSON(w, http.StatusOK, verifyResponse{Success: false, Message: result.Message})
	}
}

// Webhook handles POST /webhooks/intasend. Response bodies are plain
// text: the sender only cares about the status code, except for the
// challenge probe which must be echoed as JSON.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "cannot read request body", http.StatusBadRequest)
		return
	}

	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	// The challenge probe short-circuits everything, including
	// signature verification: it is a liveness check, not a payment
	// event, and must be echoed verbatim.
	if payload.IsChallenge() {
		api.WriteJSON(w, http.StatusOK, map[string]string{"challenge": payload.Challenge})
		return
	}

	signature := r.Header.Get("X-IntaSend-Signature")
	if h.webhookSecret != "" && signature != "" {
		if !VerifyWebhookSignature(h.webhookSecret, body, signature) {
			observability.WebhookSignatureFailures.Inc()
			h.logger.Warn("webhook rejected: invalid signature")
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
	}

	if !payload.Terminal() {
		// Non-terminal states are acknowledged with 200 so the sender
		// does not retry them.
		h.logger.Info("webhook event not processed",
			slog.String("state", payload.State), slog.String("status", payload.Status))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("event not processed"))
		return
	}

	result, err := h.reconciler.Reconcile(r.Context(), payload.Signal())
	if err != nil {
		switch {
		case errors.Is(err, types.ErrCorrelationFailed), errors.Is(err, types.ErrBadRequest), errors.Is(err, types.ErrNotFound):
			http.Error(w, "payment record not found", http.StatusBadRequest)
		default:
			h.logger.Error("webhook reconciliation failed", slog.Any("error", err))
			http.Error(w, "server error", http.StatusInternalServerError)
		}
		return
	}

	switch result.Outcome {
	case types.OutcomeAlreadyProcessed:
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("already processed"))
	default:
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("webhook processed successfully"))
	}
}
