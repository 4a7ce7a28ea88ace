package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/pantry-chef-api/internal/gateway/intasend"
	"github.com/FACorreiaa/pantry-chef-api/internal/types"
	"github.com/FACorreiaa/pantry-chef-api/pkg/observability"
)

// Gateway is the slice of the IntaSend client the reconciler needs.
type Gateway interface {
	GetCheckoutStatus(ctx context.Context, checkoutID string) (*intasend.CheckoutStatus, error)
}

// SubscriptionActivator performs the atomic activation transaction.
type SubscriptionActivator interface {
	Activate(ctx context.Context, params ActivationParams) (*ActivationResult, error)
}

// Reconciler converges the three asynchronous payment signal paths
// (redirect callback, manual verify, webhook) into one idempotent
// activation. All paths are reduced to a types.NormalizedSignal before
// entering Reconcile, so the activation logic exists exactly once.
type Reconciler struct {
	logger    *slog.Logger
	payments  Repository
	gateway   Gateway
	activator SubscriptionActivator
}

func NewReconciler(payments Repository, gateway Gateway, activator SubscriptionActivator, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		logger:    logger,
		payments:  payments,
		gateway:   gateway,
		activator: activator,
	}
}

// Reconcile is the single idempotent entry point for every payment
// signal. Safe to invoke any number of times for the same underlying
// event: duplicate deliveries are absorbed as OutcomeAlreadyProcessed.
func (r *Reconciler) Reconcile(ctx context.Context, sig types.NormalizedSignal) (*types.ReconciliationResult, error) {
	ctx, span := otel.Tracer("Reconciler").Start(ctx, "Reconcile", trace.WithAttributes(
		attribute.String("signal.source", string(sig.Source)),
		attribute.Bool("signal.paid", sig.Paid),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "Reconcile"), slog.String("source", string(sig.Source)))

	result, err := r.reconcile(ctx, l, sig)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	observability.PaymentsReconciled.WithLabelValues(string(sig.Source), string(result.Outcome)).Inc()
	return result, nil
}

func (r *Reconciler) reconcile(ctx context.Context, l *slog.Logger, sig types.NormalizedSignal) (*types.ReconciliationResult, error) {
	// Only terminal success states mutate anything.
	if !sig.Paid {
		l.InfoContext(ctx, "signal not actionable, acknowledging without mutation")
		return &types.ReconciliationResult{
			Outcome: types.OutcomeNotActionable,
			Message: "payment not in a terminal success state",
		}, nil
	}

	// Idempotence guard. The token is named api_ref while the payment is
	// pending and may be reported as the gateway invoice id afterwards,
	// so both candidates have to be checked.
	done, err := r.payments.HasCompleted(ctx, sig.InvoiceID, sig.APIRef)
	if err != nil {
		return nil, err
	}
	if done {
		l.InfoContext(ctx, "payment already processed, absorbing duplicate signal")
		return &types.ReconciliationResult{
			Outcome: types.OutcomeAlreadyProcessed,
			Message: "payment already processed",
		}, nil
	}

	userID, planID, err := r.correlate(ctx, l, sig)
	if err != nil {
		return nil, err
	}

	transactionRef := sig.InvoiceID
	if transactionRef == "" {
		transactionRef = sig.APIRef
	}

	activation, err := r.activator.Activate(ctx, ActivationParams{
		UserID:         userID,
		PlanID:         planID,
		APIRef:         sig.APIRef,
		TransactionRef: transactionRef,
		Amount:         sig.Amount,
	})
	if err != nil {
		return nil, err
	}
	if activation.AlreadyProcessed {
		return &types.ReconciliationResult{
			Outcome: types.OutcomeAlreadyProcessed,
			Message: "payment already processed",
		}, nil
	}

	l.InfoContext(ctx, "payment reconciled",
		slog.String("user_id", userID.String()),
		slog.String("subscription_id", activation.SubscriptionID.String()),
	)
	return &types.ReconciliationResult{
		Outcome:        types.OutcomeActivated,
		SubscriptionID: &activation.SubscriptionID,
		Message:        "subscription activated",
	}, nil
}

// correlate resolves the user and plan a signal belongs to, in order of
// evidence strength: identifiers already on the signal (webhook extra
// metadata or a verified status query), then the ids embedded in the
// api_ref token, then the pending payment row recorded at checkout.
func (r *Reconciler) correlate(ctx context.Context, l *slog.Logger, sig types.NormalizedSignal) (uuid.UUID, uuid.UUID, error) {
	if sig.UserID != nil && sig.PlanID != nil {
		return *sig.UserID, *sig.PlanID, nil
	}

	if sig.APIRef != "" {
		if userID, planID, err := ParseAPIRef(sig.APIRef); err == nil {
			return userID, planID, nil
		}
		if payment, err := r.payments.PendingByAPIRef(ctx, sig.APIRef); err == nil {
			return payment.UserID, payment.PlanID, nil
		} else if !errors.Is(err, types.ErrNotFound) {
			return uuid.Nil, uuid.Nil, err
		}
	}

	l.WarnContext(ctx, "unable to correlate payment signal",
		slog.String("api_ref", sig.APIRef),
		slog.String("invoice_id", sig.InvoiceID),
	)
	return uuid.Nil, uuid.Nil, fmt.Errorf("signal carries no resolvable user and plan: %w", types.ErrCorrelationFailed)
}

// VerifyCheckout is the manual verification path: the client supplies a
// checkout id, the gateway is queried for its settlement state, and the
// embedded api_ref must belong to the requesting user.
func (r *Reconciler) VerifyCheckout(ctx context.Context, sessionUserID uuid.UUID, checkoutID string) (*types.ReconciliationResult, error) {
	if checkoutID == "" {
		return nil, fmt.Errorf("checkout id required: %w", types.ErrBadRequest)
	}

	status, err := r.gateway.GetCheckoutStatus(ctx, checkoutID)
	if err != nil {
		return nil, err
	}

	if !status.Paid || status.APIRef == "" {
		return &types.ReconciliationResult{
			Outcome: types.OutcomeNotActionable,
			Message: fmt.Sprintf("payment not completed (paid=%t)", status.Paid),
		}, nil
	}

	userID, planID, err := ParseAPIRef(status.APIRef)
	if err != nil {
		return nil, err
	}
	if userID != sessionUserID {
		r.logger.WarnContext(ctx, "cross-account verification attempt",
			slog.String("session_user", sessionUserID.String()),
			slog.String("token_user", userID.String()),
		)
		return nil, fmt.Errorf("payment belongs to a different account: %w", types.ErrForbidden)
	}

	return r.Reconcile(ctx, types.NormalizedSignal{
		Source:    types.SignalVerify,
		UserID:    &userID,
		PlanID:    &planID,
		APIRef:    status.APIRef,
		InvoiceID: checkoutID,
		Paid:      true,
		Amount:    status.Amount,
	})
}

// ReconcileCallback is the redirect callback path. The gateway does not
// echo the api_ref on the redirect query string, so the only available
// correlation is "most recent pending payment for the session user".
// This is deliberately the weakest evidence of the three paths: under
// concurrent checkouts for one user it can pick the wrong plan.
func (r *Reconciler) ReconcileCallback(ctx context.Context, sessionUserID uuid.UUID, trackingID, checkoutID string) (*types.ReconciliationResult, error) {
	if checkoutID == "" {
		return nil, fmt.Errorf("missing checkout id: %w", types.ErrBadRequest)
	}
	if trackingID == "" {
		// The gateway redirects without a tracking id when the payment
		// was abandoned or declined.
		return &types.ReconciliationResult{
			Outcome: types.OutcomeNotActionable,
			Message: "payment was not completed",
		}, nil
	}

	payment, err := r.payments.LatestPendingByUser(ctx, sessionUserID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, fmt.Errorf("no pending payment for this account: %w", types.ErrCorrelationFailed)
		}
		return nil, err
	}

	return r.Reconcile(ctx, types.NormalizedSignal{
		Source:    types.SignalCallback,
		UserID:    &payment.UserID,
		PlanID:    &payment.PlanID,
		APIRef:    payment.TransactionID,
		InvoiceID: checkoutID,
		Paid:      true,
		Amount:    payment.Amount,
	})
}
