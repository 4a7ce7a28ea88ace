package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/pantry-chef-api/internal/types"
	"github.com/FACorreiaa/pantry-chef-api/pkg/middleware"
)

// MockReconcileService is a mock implementation of ReconcileService
type MockReconcileService struct {
	mock.Mock
}

func (m *MockReconcileService) Reconcile(ctx context.Context, sig types.NormalizedSignal) (*types.ReconciliationResult, error) {
	args := m.Called(ctx, sig)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ReconciliationResult), args.Error(1)
}

func (m *MockReconcileService) VerifyCheckout(ctx context.Context, sessionUserID uuid.UUID, checkoutID string) (*types.ReconciliationResult, error) {
	args := m.Called(ctx, sessionUserID, checkoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ReconciliationResult), args.Error(1)
}

func (m *MockReconcileService) ReconcileCallback(ctx context.Context, sessionUserID uuid.UUID, trackingID, checkoutID string) (*types.ReconciliationResult, error) {
	args := m.Called(ctx, sessionUserID, trackingID, checkoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ReconciliationResult), args.Error(1)
}

// MockCheckoutStarter is a mock implementation of CheckoutStarter
type MockCheckoutStarter struct {
	mock.Mock
}

func (m *MockCheckoutStarter) StartCheckout(ctx context.Context, userID, planID uuid.UUID) (*CheckoutSession, error) {
	args := m.Called(ctx, userID, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CheckoutSession), args.Error(1)
}

const testWebhookSecret = "whsec_test"

func newWebhookHandler(reconciler ReconcileService) *Handler {
	return NewHandler(new(MockCheckoutStarter), reconciler, testWebhookSecret, "/subscription", slog.Default())
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookChallengeEcho(t *testing.T) {
	reconciler := new(MockReconcileService)
	h := newWebhookHandler(reconciler)

	body := []byte(`{"challenge":"probe-token-42"}`)
	// No signature at all: the challenge probe must still be answered.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/intasend", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Webhook(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "probe-token-42", resp["challenge"])
	reconciler.AssertNotCalled(t, "Reconcile")
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	reconciler := new(MockReconcileService)
	h := newWebhookHandler(reconciler)

	body := []byte(`{"state":"COMPLETE","invoice_id":"INV-7"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/intasend", bytes.NewReader(body))
	req.Header.Set("X-IntaSend-Signature", sign("wrong-secret", body))
	rec := httptest.NewRecorder()

	h.Webhook(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	reconciler.AssertNotCalled(t, "Reconcile")
}

func TestWebhookAcceptsValidSignature(t *testing.T) {
	reconciler := new(MockReconcileService)
	h := newWebhookHandler(reconciler)

	userID := uuid.New()
	planID := uuid.New()
	payload := map[string]any{
		"state":      "COMPLETE",
		"invoice_id": "INV-8",
		"api_ref":    BuildAPIRef(userID, planID, time.Now()),
		"value":      "500.00",
		"extra": map[string]any{
			"user_id": userID.String(),
			"plan_id": planID.String(),
		},
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	reconciler.On("Reconcile", mock.Anything, mock.MatchedBy(func(sig types.NormalizedSignal) bool {
		return sig.Source == types.SignalWebhook &&
			sig.Paid &&
			sig.InvoiceID == "INV-8" &&
			sig.UserID != nil && *sig.UserID == userID &&
			sig.PlanID != nil && *sig.PlanID == planID &&
			sig.Amount == 500
	})).Return(&types.ReconciliationResult{Outcome: types.OutcomeActivated}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/intasend", bytes.NewReader(body))
	req.Header.Set("X-IntaSend-Signature", sign(testWebhookSecret, body))
	rec := httptest.NewRecorder()

	h.Webhook(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "webhook processed successfully", rec.Body.String())
	reconciler.AssertExpectations(t)
}

func TestWebhookIgnoresNonTerminalState(t *testing.T) {
	reconciler := new(MockReconcileService)
	h := newWebhookHandler(reconciler)

	body := []byte(`{"state":"PROCESSING","invoice_id":"INV-9"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/intasend", bytes.NewReader(body))
	req.Header.Set("X-IntaSend-Signature", sign(testWebhookSecret, body))
	rec := httptest.NewRecorder()

	h.Webhook(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "event not processed", rec.Body.String())
	reconciler.AssertNotCalled(t, "Reconcile")
}

func TestWebhookCorrelationFailureIs400(t *testing.T) {
	reconciler := new(MockReconcileService)
	h := newWebhookHandler(reconciler)

	reconciler.On("Reconcile", mock.Anything, mock.Anything).
		Return(nil, types.ErrCorrelationFailed)

	body := []byte(`{"state":"COMPLETE","invoice_id":"INV-10"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/intasend", bytes.NewReader(body))
	req.Header.Set("X-IntaSend-Signature", sign(testWebhookSecret, body))
	rec := httptest.NewRecorder()

	h.Webhook(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookInvalidJSON(t *testing.T) {
	h := newWebhookHandler(new(MockReconcileService))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/intasend", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()

	h.Webhook(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyHandler(t *testing.T) {
	reconciler := new(MockReconcileService)
	h := newWebhookHandler(reconciler)
	userID := uuid.New()

	reconciler.On("VerifyCheckout", mock.Anything, userID, "chk-77").
		Return(&types.ReconciliationResult{Outcome: types.OutcomeActivated, Message: "subscription activated"}, nil)

	body := []byte(`{"checkout_id":"chk-77"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", bytes.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()

	h.Verify(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestCallbackRedirectsAnonymousToLogin(t *testing.T) {
	h := newWebhookHandler(new(MockReconcileService))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/callback?tracking_id=t&checkout_id=c", nil)
	rec := httptest.NewRecorder()

	h.Callback(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestCallbackRedirectsWithNotice(t *testing.T) {
	reconciler := new(MockReconcileService)
	h := newWebhookHandler(reconciler)
	userID := uuid.New()

	reconciler.On("ReconcileCallback", mock.Anything, userID, "t-1", "c-1").
		Return(&types.ReconciliationResult{Outcome: types.OutcomeActivated}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/callback?tracking_id=t-1&checkout_id=c-1", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()

	h.Callback(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/subscription?notice=")
	assert.Contains(t, rec.Header().Get("Location"), "successful")
}
