package payments

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/pantry-chef-api/internal/types"
)

const apiRefPrefix = "sub"

// BuildAPIRef generates the idempotency token correlating a checkout
// attempt across the gateway and local records:
// sub_{user_id}_{plan_id}_{timestamp}.
func BuildAPIRef(userID, planID uuid.UUID, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%s", apiRefPrefix, userID, planID, now.UTC().Format("20060102150405"))
}

// ParseAPIRef recovers the user and plan ids embedded in an api_ref
// token. Returns types.ErrBadRequest for anything that does not match
// the expected shape.
func ParseAPIRef(ref string) (userID, planID uuid.UUID, err error) {
	parts := strings.Split(ref, "_")
	if len(parts) != 4 || parts[0] != apiRefPrefix {
		return uuid.Nil, uuid.Nil, fmt.Errorf("malformed payment reference %q: %w", ref, types.ErrBadRequest)
	}
	userID, err = uuid.Parse(parts[1])
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid user id in payment reference: %w", types.ErrBadRequest)
	}
	planID, err = uuid.Parse(parts[2])
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid plan id in payment reference: %w", types.ErrBadRequest)
	}
	return userID, planID, nil
}
