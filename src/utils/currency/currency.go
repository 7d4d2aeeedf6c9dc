package currency

import (
	"context"
	"errors"
	"time"
)

var (
	// Verify call did not finish in time, safe to retry with the same idempotency key
	ErrTimeout = errors.New("payment verification timed out")
)

// Result of asking whether a transaction reference paid a required
// amount from a required payer
type Verification struct {
	Valid           bool    `json:"valid"`
	ConfirmedAmount float64 `json:"confirmed_amount"`
	PayerWallet     string  `json:"payer_wallet"`

	// Set when Valid is false
	Reason string `json:"reason,omitempty"`
}

// 402-style payment requirements returned to a client before paying
type Challenge struct {
	Scheme     string    `json:"scheme"`
	Network    string    `json:"network"`
	AmountUSDC float64   `json:"amount_usdc"`
	PayTo      string    `json:"pay_to"`
	Nonce      string    `json:"nonce"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// One payment scheme and network combination the adapter settles on
type Kind struct {
	Scheme  string `json:"scheme"`
	Network string `json:"network"`
}

// Adapter abstracts payment verification. The market core is written
// against this capability set only, implementations are picked at startup.
type Adapter interface {
	Verify(ctx context.Context, txRef string, requiredAmount float64, requiredPayer string) (*Verification, error)
	CreateChallenge(ctx context.Context, amount float64) (*Challenge, error)
	Supported(ctx context.Context) ([]Kind, error)
}
