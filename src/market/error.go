package market

import "errors"

var (
	ErrListingNotFound = errors.New("listing not found")

	// Listing is already in a terminal state
	ErrListingNotActive = errors.New("listing not active")

	// Expiry date passed before the buy was settled
	ErrListingExpired = errors.New("listing expired")

	// Another buyer won the conditional transition after this caller's
	// payment settled. The charge is refund eligible.
	ErrListingRaceLost = errors.New("listing race lost")

	// Wallet other than the seller attempted a seller-only action
	ErrUnauthorized = errors.New("unauthorized")

	// Bad input shape, price or item data
	ErrInvalidListing = errors.New("invalid listing")

	// Item ownership could not be handed over after the sale committed,
	// compensation has to be handled outside the core
	ErrTransferFailed = errors.New("ownership transfer failed")
)
