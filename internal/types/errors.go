package types

import "errors"

// Domain specific errors for authentication and authorization.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")
	ErrBadRequest      = errors.New("bad request")
)

// Payment reconciliation errors.
var (
	// ErrCorrelationFailed means a payment signal carried too little
	// information to determine which user and plan it belongs to.
	ErrCorrelationFailed = errors.New("cannot correlate payment signal")
	// ErrPaymentGateway covers transport failures and non-2xx responses
	// from the payment provider.
	ErrPaymentGateway = errors.New("payment gateway request failed")
	// ErrActivationFailed means the activation transaction was rolled back.
	ErrActivationFailed = errors.New("subscription activation failed")
	// ErrPaymentRequired gates premium features for expired accounts.
	ErrPaymentRequired = errors.New("active subscription or trial required")
)
