package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/FACorreiaa/pantry-chef-api/internal/types"
)

// WebhookPayload is the gateway's push notification body. The gateway
// has used both `state` and `status`, and both `value` and `amount`,
// across versions; all spellings are accepted.
type WebhookPayload struct {
	Challenge string         `json:"challenge"`
	State     string         `json:"state"`
	Status    string         `json:"status"`
	InvoiceID string         `json:"invoice_id"`
	ID        string         `json:"id"`
	Value     json.Number    `json:"value"`
	Amount    json.Number    `json:"amount"`
	APIRef    string         `json:"api_ref"`
	Extra     map[string]any `json:"extra"`
}

// IsChallenge reports whether this is the gateway's liveness probe,
// which must be echoed back verbatim and never processed as a payment.
func (p *WebhookPayload) IsChallenge() bool {
	return p.Challenge != ""
}

// Terminal reports whether the payload carries a terminal success
// state. Anything else is acknowledged but not acted on.
func (p *WebhookPayload) Terminal() bool {
	return p.State == "COMPLETE" || p.Status == "COMPLETE" || p.Status == "PAID"
}

// Invoice returns the gateway's settlement identifier.
func (p *WebhookPayload) Invoice() string {
	if p.InvoiceID != "" {
		return p.InvoiceID
	}
	return p.ID
}

func (p *WebhookPayload) amount() float64 {
	for _, n := range []json.Number{p.Value, p.Amount} {
		if n == "" {
			continue
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	return 0
}

// Signal reduces the payload to a NormalizedSignal. The echoed extra
// metadata map is the preferred identifier source; ids it does not
// supply are left for the reconciler's api_ref and pending-row
// fallbacks.
func (p *WebhookPayload) Signal() types.NormalizedSignal {
	sig := types.NormalizedSignal{
		Source:    types.SignalWebhook,
		APIRef:    p.APIRef,
		InvoiceID: p.Invoice(),
		Paid:      p.Terminal(),
		Amount:    p.amount(),
	}

	userID, userOK := extraUUID(p.Extra, "user_id")
	planID, planOK := extraUUID(p.Extra, "plan_id")
	if userOK && planOK {
		sig.UserID = &userID
		sig.PlanID = &planID
	}
	return sig
}

func extraUUID(extra map[string]any, key string) (uuid.UUID, bool) {
	if extra == nil {
		return uuid.Nil, false
	}
	raw, ok := extra[key]
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(fmt.Sprint(raw))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// VerifyWebhookSignature checks the hex-encoded HMAC-SHA256 of the raw
// request body against the shared secret, in constant time.
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
