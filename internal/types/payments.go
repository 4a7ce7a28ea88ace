package types

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the lifecycle state of a payment row. Exactly one
// row per checkout attempt ever transitions to completed.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

// Payment records one checkout attempt. TransactionID holds the api_ref
// idempotency token while pending and the gateway invoice id once
// completed, so idempotence checks must match against both.
type Payment struct {
	ID             uuid.UUID     `json:"id"`
	UserID         uuid.UUID     `json:"user_id"`
	PlanID         uuid.UUID     `json:"plan_id"`
	SubscriptionID *uuid.UUID    `json:"subscription_id,omitempty"`
	Amount         float64       `json:"amount"`
	Status         PaymentStatus `json:"status"`
	PaymentMethod  string        `json:"payment_method"`
	TransactionID  string        `json:"transaction_id"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// SignalSource identifies which inbound path produced a payment signal.
type SignalSource string

const (
	SignalCallback SignalSource = "callback"
	SignalVerify   SignalSource = "verify"
	SignalWebhook  SignalSource = "webhook"
)

// NormalizedSignal is the common shape the three external payment paths
// (redirect callback, manual verify, webhook) are reduced to before
// reconciliation. Fields a path could not extract are left zero; the
// reconciler falls back to api_ref parsing and then to the pending
// payment row to recover the missing identifiers.
type NormalizedSignal struct {
	Source    SignalSource
	UserID    *uuid.UUID
	PlanID    *uuid.UUID
	APIRef    string
	InvoiceID string
	Paid      bool
	Amount    float64
}

// ReconcileOutcome describes what a reconciliation attempt did.
type ReconcileOutcome string

const (
	// OutcomeActivated means a subscription was activated by this call.
	OutcomeActivated ReconcileOutcome = "activated"
	// OutcomeAlreadyProcessed means the payment was settled earlier and
	// the signal was absorbed without mutation.
	OutcomeAlreadyProcessed ReconcileOutcome = "already_processed"
	// OutcomeNotActionable means the signal did not report a terminal
	// success state and nothing was mutated.
	OutcomeNotActionable ReconcileOutcome = "not_actionable"
)

// ReconciliationResult is returned by the reconciler for every signal.
type ReconciliationResult struct {
	Outcome        ReconcileOutcome `json:"outcome"`
	SubscriptionID *uuid.UUID       `json:"subscription_id,omitempty"`
	Message        string           `json:"message,omitempty"`
}
