package currency

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gemtrade/marketplace/src/utils/config"

	"github.com/rs/xid"
)

type mockPayment struct {
	amount float64
	payer  string
}

// Deterministic in-memory adapter for tests and development.
// Registered references verify with the registered amount and payer.
// With acceptAll set, any non-empty reference verifies as an exact payment.
type Mock struct {
	mtx       sync.RWMutex
	payments  map[string]mockPayment
	acceptAll bool

	config *config.Currency
}

func NewMock(config *config.Currency) (self *Mock) {
	self = new(Mock)
	self.config = config
	self.payments = make(map[string]mockPayment)
	return
}

func (self *Mock) WithAcceptAll(v bool) *Mock {
	self.acceptAll = v
	return self
}

// Registers a fake payment the adapter will confirm later
func (self *Mock) Register(txRef string, amount float64, payer string) *Mock {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.payments[txRef] = mockPayment{amount: amount, payer: payer}
	return self
}

func (self *Mock) Verify(ctx context.Context, txRef string, requiredAmount float64, requiredPayer string) (out *Verification, err error) {
	if err = ctx.Err(); err != nil {
		return nil, ErrTimeout
	}

	if txRef == "" {
		return &Verification{Valid: false, Reason: "empty transaction reference"}, nil
	}

	self.mtx.RLock()
	payment, ok := self.payments[txRef]
	self.mtx.RUnlock()

	if !ok {
		if !self.acceptAll {
			return &Verification{Valid: false, Reason: fmt.Sprintf("unknown transaction reference: %s", txRef)}, nil
		}
		payment = mockPayment{amount: requiredAmount, payer: requiredPayer}
	}

	return &Verification{
		Valid:           true,
		ConfirmedAmount: payment.amount,
		PayerWallet:     payment.payer,
	}, nil
}

func (self *Mock) Supported(ctx context.Context) (out []Kind, err error) {
	return []Kind{{Scheme: "exact", Network: self.config.Network}}, nil
}

func (self *Mock) CreateChallenge(ctx context.Context, amount float64) (out *Challenge, err error) {
	return &Challenge{
		Scheme:     "exact",
		Network:    self.config.Network,
		AmountUSDC: amount,
		PayTo:      self.config.ReceiverWallet,
		Nonce:      xid.New().String(),
		ExpiresAt:  time.Now().Add(5 * time.Minute),
	}, nil
}
