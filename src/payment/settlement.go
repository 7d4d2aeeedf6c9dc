package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gemtrade/marketplace/src/utils/config"
	"github.com/gemtrade/marketplace/src/utils/currency"
	"github.com/gemtrade/marketplace/src/utils/logger"
	"github.com/gemtrade/marketplace/src/utils/model"
	"github.com/gemtrade/marketplace/src/utils/monitoring"
	"github.com/gemtrade/marketplace/src/utils/storage"

	"github.com/sirupsen/logrus"
)

// Tolerance for comparing confirmed USDC amounts
const amountEpsilon = 1e-9

type SettlementResult struct {
	Confirmed bool
	Amount    float64
	Payer     string

	// Replay of an earlier settlement, the recorded outcome was returned
	AlreadySettled bool
}

// Settlement orchestrates verify-then-commit payment flows with
// idempotency keys. It consumes the payment reference but never mutates
// listings or purchases, that is the caller's next step.
type Settlement struct {
	config  *config.Config
	log     *logrus.Entry
	storage storage.Storage
	adapter currency.Adapter
	monitor monitoring.Monitor
}

func NewSettlement(config *config.Config) (self *Settlement) {
	self = new(Settlement)
	self.config = config
	self.log = logger.NewSublogger("settlement")
	return
}

func (self *Settlement) WithStorage(v storage.Storage) *Settlement {
	self.storage = v
	return self
}

func (self *Settlement) WithCurrencyAdapter(v currency.Adapter) *Settlement {
	self.adapter = v
	return self
}

func (self *Settlement) WithMonitor(v monitoring.Monitor) *Settlement {
	self.monitor = v
	return self
}

func (self *Settlement) Settle(ctx context.Context, txRef string, requiredAmount float64, requiredPayer, idempotencyKey string) (out *SettlementResult, err error) {
	if txRef == "" || idempotencyKey == "" || requiredPayer == "" {
		return nil, fmt.Errorf("%w: missing tx ref, payer or idempotency key", ErrInvalidSettlementRequest)
	}
	if requiredAmount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidSettlementRequest)
	}

	// Replay detection before touching the currency adapter. A repeated
	// request with the same key short-circuits to the recorded outcome.
	existing, err := self.storage.GetPaymentConsumption(ctx, txRef)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		self.monitor.GetReport().Market.Errors.DbErrors.Inc()
		return
	}
	if existing != nil {
		return self.resolveExisting(existing, idempotencyKey, requiredPayer)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, self.config.Currency.RequestTimeout)
	defer cancel()

	verification, err := self.adapter.Verify(verifyCtx, txRef, requiredAmount, requiredPayer)
	if err != nil {
		if errors.Is(err, currency.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			self.monitor.GetReport().Market.Errors.VerificationTimeouts.Inc()
			return nil, ErrVerificationTimeout
		}
		return
	}

	if !verification.Valid {
		self.monitor.GetReport().Market.Errors.PaymentFailures.Inc()
		return nil, fmt.Errorf("%w: %s", ErrPaymentInvalid, verification.Reason)
	}
	if verification.ConfirmedAmount+amountEpsilon < requiredAmount {
		self.monitor.GetReport().Market.Errors.PaymentFailures.Inc()
		return nil, fmt.Errorf("%w: confirmed %f, required %f", ErrInsufficientPayment, verification.ConfirmedAmount, requiredAmount)
	}
	if verification.PayerWallet != requiredPayer {
		self.monitor.GetReport().Market.Errors.PaymentFailures.Inc()
		return nil, fmt.Errorf("%w: paid by %s", ErrPayerMismatch, verification.PayerWallet)
	}

	// First writer wins. A concurrent settlement of the same reference
	// is resolved by whoever got the consumption record in.
	recorded, created, err := self.storage.RecordPaymentConsumption(ctx, &model.PaymentConsumption{
		TxRef:          txRef,
		IdempotencyKey: idempotencyKey,
		Amount:         verification.ConfirmedAmount,
		PayerWallet:    verification.PayerWallet,
		CreatedAt:      time.Now(),
	})
	if err != nil {
		self.monitor.GetReport().Market.Errors.DbErrors.Inc()
		return
	}
	if !created {
		return self.resolveExisting(recorded, idempotencyKey, requiredPayer)
	}

	self.monitor.GetReport().Market.State.PaymentsSettled.Inc()
	self.log.WithField("tx_ref", txRef).
		WithField("key", idempotencyKey).
		WithField("amount", verification.ConfirmedAmount).
		Debug("Payment settled")

	return &SettlementResult{
		Confirmed: true,
		Amount:    verification.ConfirmedAmount,
		Payer:     verification.PayerWallet,
	}, nil
}

// A recorded consumption is a valid replay only for the same key and
// the same payer, anything else is reuse
func (self *Settlement) resolveExisting(existing *model.PaymentConsumption, idempotencyKey, requiredPayer string) (out *SettlementResult, err error) {
	if existing.IdempotencyKey != idempotencyKey || existing.PayerWallet != requiredPayer {
		self.monitor.GetReport().Market.Errors.PaymentReuseRejections.Inc()
		return nil, fmt.Errorf("%w: consumed by %s", ErrPaymentAlreadyUsed, existing.IdempotencyKey)
	}

	return &SettlementResult{
		Confirmed:      true,
		Amount:         existing.Amount,
		Payer:          existing.PayerWallet,
		AlreadySettled: true,
	}, nil
}
