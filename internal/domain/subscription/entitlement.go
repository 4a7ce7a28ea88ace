package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/pantry-chef-api/internal/types"
)

// UserStore is the slice of the user repository the evaluator needs.
type UserStore interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
}

// Evaluate computes the access tier from the trial end date and the most
// recent subscription. Both sides of every comparison are normalized to
// UTC first: the trial date is stored timezone-aware while callers often
// hold a naive local clock, and mixing the two silently misclassifies
// users near the boundary.
//
// Days left uses whole-day truncation: exactly 24h remaining reports 1,
// anything under 24h reports 0.
func Evaluate(trialEnd *time.Time, latest *types.SubscriptionWithPlan, now time.Time) types.Entitlement {
	now = now.UTC()

	if latest != nil && latest.Status == types.SubscriptionActive && latest.EndDate.UTC().After(now) {
		return types.Entitlement{
			Tier:     types.EntitlementActive,
			PlanName: latest.PlanName,
			Message:  fmt.Sprintf("%s plan active", latest.PlanName),
		}
	}

	if trialEnd != nil {
		end := trialEnd.UTC()
		if now.Before(end) {
			daysLeft := int(end.Sub(now).Hours() / 24)
			return types.Entitlement{
				Tier:         types.EntitlementTrial,
				DaysLeft:     daysLeft,
				Message:      fmt.Sprintf("Trial active (%d days left)", daysLeft),
				TrialEndDate: trialEnd,
			}
		}
	}

	return types.Entitlement{
		Tier:         types.EntitlementExpired,
		Message:      "Subscription required. Your free trial has ended.",
		TrialEndDate: trialEnd,
	}
}

// EntitlementService resolves a user's current access tier from storage.
type EntitlementService struct {
	logger *slog.Logger
	users  UserStore
	subs   Repository
}

func NewEntitlementService(users UserStore, subs Repository, logger *slog.Logger) *EntitlementService {
	return &EntitlementService{
		logger: logger,
		users:  users,
		subs:   subs,
	}
}

// Status evaluates the user's entitlement at the current instant.
func (s *EntitlementService) Status(ctx context.Context, userID uuid.UUID) (*types.Entitlement, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	latest, err := s.subs.LatestByUser(ctx, userID)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return nil, err
	}

	ent := Evaluate(user.TrialEndDate, latest, time.Now())
	return &ent, nil
}

// RequireActive fails with types.ErrPaymentRequired unless the user has
// an active subscription or an unexpired trial.
func (s *EntitlementService) RequireActive(ctx context.Context, userID uuid.UUID) error {
	ent, err := s.Status(ctx, userID)
	if err != nil {
		return err
	}
	if ent.Tier == types.EntitlementExpired {
		s.logger.DebugContext(ctx, "entitlement check failed",
			slog.String("user_id", userID.String()))
		return fmt.Errorf("%s: %w", ent.Message, types.ErrPaymentRequired)
	}
	return nil
}
