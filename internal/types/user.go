package types

import (
	"time"

	"github.com/google/uuid"
)

// User is the account record. TrialEndDate is set at registration time
// (14 days out) and never extended.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	TrialEndDate *time.Time `json:"trial_end_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// UpdateProfileParams carries the mutable profile fields. Nil means
// "leave unchanged".
type UpdateProfileParams struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}
