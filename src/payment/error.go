package payment

import "errors"

var (
	// Confirmed amount is lower than the price
	ErrInsufficientPayment = errors.New("insufficient payment")

	// Transaction was paid by a different wallet than the buyer
	ErrPayerMismatch = errors.New("payer mismatch")

	// Transaction reference was already consumed by another economic event
	ErrPaymentAlreadyUsed = errors.New("payment already used")

	// Verification did not finish in time, retryable with the same idempotency key
	ErrVerificationTimeout = errors.New("payment verification timeout")

	// Currency adapter rejected the reference outright
	ErrPaymentInvalid = errors.New("payment invalid")

	// Malformed settlement input
	ErrInvalidSettlementRequest = errors.New("invalid settlement request")
)
