package mysterybox

import "errors"

var (
	ErrTierNotFound = errors.New("mystery box tier not found")

	// Transaction hash already backs another purchase
	ErrDuplicatePaymentReference = errors.New("duplicate payment reference")

	// Item generation failed after the payment was consumed.
	// Compensation has to be handled outside the engine.
	ErrGenerationFailed = errors.New("item generation failed")

	ErrNoPositiveWeights = errors.New("rarity weights must contain at least one positive weight")
)
