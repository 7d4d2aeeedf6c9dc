package mysterybox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gemtrade/marketplace/src/payment"
	"github.com/gemtrade/marketplace/src/utils/config"
	"github.com/gemtrade/marketplace/src/utils/item"
	"github.com/gemtrade/marketplace/src/utils/logger"
	"github.com/gemtrade/marketplace/src/utils/model"
	"github.com/gemtrade/marketplace/src/utils/monitoring"
	"github.com/gemtrade/marketplace/src/utils/storage"

	"github.com/jackc/pgtype"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

type PurchaseResult struct {
	Item     *item.Item
	TxHash   string
	Purchase *model.MysteryBoxPurchase
}

// Engine owns weighted-random item generation tied to a paid purchase.
// Stateless over the storage adapter, safe for concurrent purchases.
type Engine struct {
	config *config.Config
	log    *logrus.Entry

	storage     storage.Storage
	settlement  *payment.Settlement
	itemAdapter item.Adapter
	tiers       *TierRegistry
	sampler     *Sampler
	monitor     monitoring.Monitor
	events      chan *model.MarketEvent
}

func NewEngine(config *config.Config) (self *Engine) {
	self = new(Engine)
	self.config = config
	self.log = logger.NewSublogger("mystery-box")
	self.sampler = NewSampler()
	self.tiers = NewTierRegistry(config)
	return
}

func (self *Engine) WithStorage(v storage.Storage) *Engine {
	self.storage = v
	self.tiers = self.tiers.WithStorage(v)
	return self
}

func (self *Engine) WithSettlement(v *payment.Settlement) *Engine {
	self.settlement = v
	return self
}

func (self *Engine) WithItemAdapter(v item.Adapter) *Engine {
	self.itemAdapter = v
	return self
}

func (self *Engine) WithMonitor(v monitoring.Monitor) *Engine {
	self.monitor = v
	return self
}

func (self *Engine) WithSampler(v *Sampler) *Engine {
	self.sampler = v
	return self
}

func (self *Engine) WithEventsChannel(v chan *model.MarketEvent) *Engine {
	self.events = v
	return self
}

func (self *Engine) Tiers() *TierRegistry {
	return self.tiers
}

func (self *Engine) Purchase(ctx context.Context, tierId, buyerWallet, buyerUsername, txRef string) (out *PurchaseResult, err error) {
	tier, err := self.tiers.Get(ctx, tierId)
	if err != nil {
		return
	}

	// Payment first, the state transition is committed only afterwards
	settled, err := self.settlement.Settle(ctx, txRef, tier.PriceUSDC, buyerWallet, txRef)
	if err != nil {
		return
	}

	// A reference that already backs a purchase either means a replay
	// by the same buyer, which returns the recorded item, or reuse
	recorded, err := self.storage.FindMysteryPurchaseByTxHash(ctx, txRef)
	if err == nil {
		if recorded.BuyerWallet == buyerWallet {
			return self.resultFromPurchase(recorded)
		}
		self.monitor.GetReport().Market.Errors.PaymentReuseRejections.Inc()
		return nil, ErrDuplicatePaymentReference
	}
	if !errors.Is(err, storage.ErrNotFound) {
		self.monitor.GetReport().Market.Errors.DbErrors.Inc()
		return
	}

	weights, err := tier.Weights()
	if err != nil {
		return nil, self.failAfterCapture(tierId, buyerWallet, txRef, settled.Amount, fmt.Errorf("malformed tier weights: %w", err))
	}
	rarity, err := self.sampler.Sample(weights)
	if err != nil {
		return nil, self.failAfterCapture(tierId, buyerWallet, txRef, settled.Amount, err)
	}

	generated, err := self.itemAdapter.Generate(ctx, rarity)
	if err != nil {
		return nil, self.failAfterCapture(tierId, buyerWallet, txRef, settled.Amount, err)
	}

	itemJson, err := json.Marshal(generated)
	if err != nil {
		return nil, self.failAfterCapture(tierId, buyerWallet, txRef, settled.Amount, err)
	}

	purchase := &model.MysteryBoxPurchase{
		ID:            xid.New().String(),
		TierId:        tierId,
		BuyerWallet:   buyerWallet,
		BuyerUsername: buyerUsername,
		PriceUSDC:     tier.PriceUSDC,
		ItemGenerated: pgtype.JSONB{Bytes: itemJson, Status: pgtype.Present},
		TxHash:        txRef,
		Timestamp:     time.Now(),
	}

	err = self.storage.PutMysteryPurchase(ctx, purchase)
	if errors.Is(err, storage.ErrAlreadyExists) {
		// Concurrent purchase with the same reference won the insert
		winner, findErr := self.storage.FindMysteryPurchaseByTxHash(ctx, txRef)
		if findErr == nil && winner.BuyerWallet == buyerWallet {
			return self.resultFromPurchase(winner)
		}
		self.monitor.GetReport().Market.Errors.PaymentReuseRejections.Inc()
		return nil, ErrDuplicatePaymentReference
	}
	if err != nil {
		self.monitor.GetReport().Market.Errors.DbErrors.Inc()
		self.emit(&model.MarketEvent{
			Kind:      model.MarketEventRefundRequired,
			TierId:    tierId,
			Wallet:    buyerWallet,
			TxHash:    txRef,
			PriceUSDC: settled.Amount,
			Timestamp: time.Now().Unix(),
		})
		return
	}

	self.monitor.GetReport().Market.State.BoxesOpened.Inc()
	self.emit(&model.MarketEvent{
		Kind:      model.MarketEventBoxOpened,
		TierId:    tierId,
		Wallet:    buyerWallet,
		TxHash:    txRef,
		PriceUSDC: tier.PriceUSDC,
		Timestamp: time.Now().Unix(),
	})
	self.log.WithField("tier_id", tierId).
		WithField("rarity", rarity).
		WithField("tx_ref", txRef).
		Info("Mystery box opened")

	return &PurchaseResult{
		Item:     generated,
		TxHash:   txRef,
		Purchase: purchase,
	}, nil
}

// resultFromPurchase rebuilds the purchase outcome from the stored
// record, used when a replayed reference resolves to an earlier purchase
func (self *Engine) resultFromPurchase(purchase *model.MysteryBoxPurchase) (out *PurchaseResult, err error) {
	var generated item.Item
	if purchase.ItemGenerated.Status == pgtype.Present {
		if err = json.Unmarshal(purchase.ItemGenerated.Bytes, &generated); err != nil {
			return
		}
	}

	return &PurchaseResult{
		Item:     &generated,
		TxHash:   purchase.TxHash,
		Purchase: purchase,
	}, nil
}

// failAfterCapture handles any failure between payment capture and the
// persisted purchase. The payment is already consumed, so the purchase
// cannot be silently dropped. Flag it for compensation and report.
func (self *Engine) failAfterCapture(tierId, buyerWallet, txRef string, amount float64, cause error) error {
	self.monitor.GetReport().Market.Errors.GenerationFailures.Inc()
	self.emit(&model.MarketEvent{
		Kind:      model.MarketEventRefundRequired,
		TierId:    tierId,
		Wallet:    buyerWallet,
		TxHash:    txRef,
		PriceUSDC: amount,
		Timestamp: time.Now().Unix(),
	})
	self.log.WithError(cause).
		WithField("tier_id", tierId).
		WithField("tx_ref", txRef).
		Error("Mystery box purchase failed after payment capture")
	return fmt.Errorf("%w: %w", ErrGenerationFailed, cause)
}

func (self *Engine) emit(event *model.MarketEvent) {
	if self.events == nil {
		return
	}
	select {
	case self.events <- event:
	default:
		self.log.WithField("kind", event.Kind).Warn("Events channel full, dropping event")
	}
}
