package payments

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/pantry-chef-api/internal/gateway/intasend"
	"github.com/FACorreiaa/pantry-chef-api/internal/types"
	"github.com/FACorreiaa/pantry-chef-api/pkg/observability"
)

const checkoutCurrency = "KES"

// CheckoutGateway is the slice of the IntaSend client the initiator
// needs.
type CheckoutGateway interface {
	CreateCheckout(ctx context.Context, req intasend.CheckoutRequest) (*intasend.CheckoutResponse, error)
	PublicKey() string
}

// PlanStore resolves plans for checkout.
type PlanStore interface {
	GetPlan(ctx context.Context, planID uuid.UUID) (*types.SubscriptionPlan, error)
}

// UserStore resolves the payer's contact details.
type UserStore interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
}

// CheckoutSession is what the caller needs to send the user to the
// gateway's hosted checkout.
type CheckoutSession struct {
	PaymentURL string `json:"payment_url"`
	InvoiceID  string `json:"invoice_id"`
	APIRef     string `json:"api_ref"`
}

// CheckoutService builds gateway checkout sessions and records the
// pending payment they will later be reconciled against.
type CheckoutService struct {
	logger      *slog.Logger
	plans       PlanStore
	users       UserStore
	payments    Repository
	gateway     CheckoutGateway
	redirectURL string
}

func NewCheckoutService(plans PlanStore, users UserStore, payments Repository, gateway CheckoutGateway, redirectURL string, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		logger:      logger,
		plans:       plans,
		users:       users,
		payments:    payments,
		gateway:     gateway,
		redirectURL: redirectURL,
	}
}

// StartCheckout creates a hosted checkout session for the given plan.
// The pending payment row is inserted before the gateway is contacted,
// so reconciliation has a record to find even if the redirect response
// never reaches us. A gateway failure therefore leaves a pending row
// behind, which is safe: it is settled later by any signal path or
// never.
func (s *CheckoutService) StartCheckout(ctx context.Context, userID, planID uuid.UUID) (*CheckoutSession, error) {
	l := s.logger.With(
		slog.String("method", "StartCheckout"),
		slog.String("user_id", userID.String()),
		slog.String("plan_id", planID.String()),
	)

	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, fmt.Errorf("plan %q is not offered: %w", plan.Name, types.ErrNotFound)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	apiRef := BuildAPIRef(userID, planID, time.Now())

	if _, err := s.payments.CreatePending(ctx, userID, planID, plan.Price, apiRef); err != nil {
		return nil, err
	}
	observability.CheckoutsInitiated.Inc()

	firstName, lastName := splitName(user.Name)
	checkout, err := s.gateway.CreateCheckout(ctx, intasend.CheckoutRequest{
		PublicKey:   s.gateway.PublicKey(),
		Amount:      plan.Price,
		Currency:    checkoutCurrency,
		Email:       user.Email,
		FirstName:   firstName,
		LastName:    lastName,
		Country:     "KE",
		RedirectURL: s.redirectURL,
		APIRef:      apiRef,
		Extra: map[string]any{
			"user_id":   userID.String(),
			"plan_id":   planID.String(),
			"plan_name": plan.Name,
		},
	})
	if err != nil {
		l.WarnContext(ctx, "gateway checkout failed, pending payment left for later reconciliation",
			slog.String("api_ref", apiRef), slog.Any("error", err))
		return nil, err
	}

	l.InfoContext(ctx, "checkout session created",
		slog.String("api_ref", apiRef),
		slog.String("invoice_id", checkout.Invoice()),
	)
	return &CheckoutSession{
		PaymentURL: checkout.PaymentURL(),
		InvoiceID:  checkout.Invoice(),
		APIRef:     apiRef,
	}, nil
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "Customer", "User"
	case 1:
		return parts[0], "User"
	default:
		return parts[0], parts[len(parts)-1]
	}
}
