package market

import "errors"

// Every failure leaves engine state unchanged; callers surface the error and
// may retry with corrected input.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrSelfPurchase       = errors.New("cannot purchase your own listing")
	ErrAmountMismatch     = errors.New("payment does not match listed price")
	ErrInsufficientFunds  = errors.New("insufficient wallet balance")
	ErrUnauthorized       = errors.New("caller not permitted")
	ErrInvalidTransition  = errors.New("status does not permit this action")
	ErrNotFound           = errors.New("not found")

	// ErrCustodyMismatch means the amount held for an order does not equal
	// the amount the engine is about to release. The engine refuses the
	// release rather than move a wrong amount.
	ErrCustodyMismatch = errors.New("custody accounting mismatch")
)
