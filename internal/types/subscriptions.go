package types

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus is the lifecycle state of a subscription row.
type SubscriptionStatus string

const (
	SubscriptionTrial     SubscriptionStatus = "trial"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// SubscriptionPlan is static reference data seeded by migration.
type SubscriptionPlan struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Price        float64   `json:"price"`
	DurationDays int       `json:"duration_days"`
	IsActive     bool      `json:"is_active"`
}

// Subscription ties a user to a plan for a period of time. At most one
// subscription per user is in the trial or active state at any instant;
// the activator enforces this when it supersedes old rows.
type Subscription struct {
	ID        uuid.UUID          `json:"id"`
	UserID    uuid.UUID          `json:"user_id"`
	PlanID    uuid.UUID          `json:"plan_id"`
	Status    SubscriptionStatus `json:"status"`
	StartDate time.Time          `json:"start_date"`
	EndDate   time.Time          `json:"end_date"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// SubscriptionWithPlan is a subscription joined to its plan, as read by
// the entitlement evaluator.
type SubscriptionWithPlan struct {
	Subscription
	PlanName  string  `json:"plan_name"`
	PlanPrice float64 `json:"plan_price"`
}

// EntitlementTier is the computed access level for a user.
type EntitlementTier string

const (
	EntitlementActive  EntitlementTier = "active"
	EntitlementTrial   EntitlementTier = "trial"
	EntitlementExpired EntitlementTier = "expired"
)

// Entitlement is the result of evaluating a user's access to the
// recommendation feature.
type Entitlement struct {
	Tier         EntitlementTier `json:"tier"`
	PlanName     string          `json:"plan_name,omitempty"`
	DaysLeft     int             `json:"days_left"`
	Message      string          `json:"message"`
	TrialEndDate *time.Time      `json:"trial_end_date,omitempty"`
}
