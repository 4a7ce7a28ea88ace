package intasend

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/pantry-chef-api/internal/types"
	"github.com/FACorreiaa/pantry-chef-api/pkg/config"
)

func newTestClient(serverURL string) *Client {
	return NewClient(config.IntaSendConfig{
		TestMode:        true,
		PublicKeyTest:   "pk_test",
		SecretKeyTest:   "sk_test",
		BaseURLOverride: serverURL,
	}, slog.Default())
}

func TestCreateCheckout(t *testing.T) {
	var gotAuthUser, gotAuthPass string
	var gotBody CheckoutRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/checkout/", r.URL.Path)
		gotAuthUser, gotAuthPass, _ = r.BasicAuth()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"url": "https://sandbox.intasend.com/checkout/abc",
			"id":  "chk-abc",
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	resp, err := client.CreateCheckout(context.Background(), CheckoutRequest{
		PublicKey: "pk_test",
		Amount:    500,
		Currency:  "KES",
		Email:     "ada@example.com",
		APIRef:    "sub_a_b_c",
	})

	require.NoError(t, err)
	assert.Equal(t, "pk_test", gotAuthUser)
	assert.Equal(t, "sk_test", gotAuthPass)
	assert.Equal(t, "sub_a_b_c", gotBody.APIRef)
	assert.Equal(t, "https://sandbox.intasend.com/checkout/abc", resp.PaymentURL())
	assert.Equal(t, "chk-abc", resp.Invoice())
}

func TestCreateCheckoutGatewayRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "invalid public key"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.CreateCheckout(context.Background(), CheckoutRequest{})

	assert.True(t, errors.Is(err, types.ErrPaymentGateway))
}

func TestCreateCheckoutMissingPaymentURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "chk-1"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.CreateCheckout(context.Background(), CheckoutRequest{})

	assert.True(t, errors.Is(err, types.ErrPaymentGateway))
}

func TestGetCheckoutStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/v1/checkout/chk-42/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"paid":    true,
			"api_ref": "sub_a_b_c",
			"amount":  1350.0,
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	status, err := client.GetCheckoutStatus(context.Background(), "chk-42")

	require.NoError(t, err)
	assert.True(t, status.Paid)
	assert.Equal(t, "sub_a_b_c", status.APIRef)
	assert.Equal(t, 1350.0, status.Amount)
}

func TestGetCheckoutStatusNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.GetCheckoutStatus(context.Background(), "missing")

	assert.True(t, errors.Is(err, types.ErrPaymentGateway))
}

func TestBaseURLSelection(t *testing.T) {
	sandbox := config.IntaSendConfig{TestMode: true}
	live := config.IntaSendConfig{TestMode: false}

	assert.Equal(t, "https://sandbox.intasend.com", sandbox.BaseURL())
	assert.Equal(t, "https://payment.intasend.com", live.BaseURL())
}
