package market

import (
	"context"
	"database/sql"
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
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// Manager owns the listing lifecycle. All status transitions go through
// conditional updates in storage, so concurrent callers cannot move the
// same listing twice.
type Manager struct {
	config *config.Config
	log    *logrus.Entry

	storage     storage.Storage
	settlement  *payment.Settlement
	itemAdapter item.Adapter
	monitor     monitoring.Monitor
	events      chan *model.MarketEvent
}

func NewManager(config *config.Config) (self *Manager) {
	self = new(Manager)
	self.config = config
	self.log = logger.NewSublogger("manager")
	return
}

func (self *Manager) WithStorage(s storage.Storage) *Manager {
	self.storage = s
	return self
}

func (self *Manager) WithSettlement(settlement *payment.Settlement) *Manager {
	self.settlement = settlement
	return self
}

func (self *Manager) WithItemAdapter(adapter item.Adapter) *Manager {
	self.itemAdapter = adapter
	return self
}

func (self *Manager) WithMonitor(monitor monitoring.Monitor) *Manager {
	self.monitor = monitor
	return self
}

func (self *Manager) WithEventChannel(events chan *model.MarketEvent) *Manager {
	self.events = events
	return self
}

type CreateListingParams struct {
	ItemId           string
	ItemType         string
	ItemData         json.RawMessage
	SellerWallet     string
	SellerUsername   string
	PriceUSDC        float64
	ExpiresInSeconds int64
	Tags             []string
}

func (self *Manager) CreateListing(ctx context.Context, params CreateListingParams) (out *model.Listing, err error) {
	if params.SellerWallet == "" {
		err = fmt.Errorf("%w: seller wallet is required", ErrInvalidListing)
		return
	}
	if params.ItemId == "" {
		err = fmt.Errorf("%w: item id is required", ErrInvalidListing)
		return
	}
	if params.PriceUSDC <= 0 {
		err = fmt.Errorf("%w: price must be positive, got %f", ErrInvalidListing, params.PriceUSDC)
		return
	}
	if params.ExpiresInSeconds < 0 {
		err = fmt.Errorf("%w: expiry must not be negative, got %d", ErrInvalidListing, params.ExpiresInSeconds)
		return
	}
	if validationErr := self.itemAdapter.Validate(params.ItemType, params.ItemData); validationErr != nil {
		err = fmt.Errorf("%w: %s", ErrInvalidListing, validationErr)
		return
	}

	now := time.Now().UTC()
	out = &model.Listing{
		ID:             xid.New().String(),
		ItemId:         params.ItemId,
		ItemType:       params.ItemType,
		SellerWallet:   params.SellerWallet,
		SellerUsername: params.SellerUsername,
		PriceUSDC:      params.PriceUSDC,
		Status:         model.ListingStatusActive,
		Tags:           params.Tags,
		CreatedAt:      now,
	}
	if err = out.SetItemData(params.ItemData); err != nil {
		err = fmt.Errorf("%w: %s", ErrInvalidListing, err)
		return
	}

	if params.ExpiresInSeconds > 0 {
		lifetime := time.Duration(params.ExpiresInSeconds) * time.Second
		if lifetime > self.config.Market.MaxListingLifetime {
			err = fmt.Errorf("%w: lifetime exceeds maximum of %s", ErrInvalidListing, self.config.Market.MaxListingLifetime)
			return
		}
		out.ExpiresAt = sql.NullTime{Time: now.Add(lifetime), Valid: true}
	}

	if err = self.storage.PutListing(ctx, out); err != nil {
		self.monitor.GetReport().Market.Errors.DbErrors.Inc()
		out = nil
		return
	}

	self.monitor.GetReport().Market.State.ListingsCreated.Inc()
	self.emit(&model.MarketEvent{
		Kind:      model.MarketEventListingCreated,
		ListingId: out.ID,
		Wallet:    out.SellerWallet,
		PriceUSDC: out.PriceUSDC,
	})
	return
}

func (self *Manager) GetListing(ctx context.Context, id string) (out *model.Listing, err error) {
	out, err = self.storage.GetListing(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		err = ErrListingNotFound
	}
	return
}

func (self *Manager) ListActiveListings(ctx context.Context, limit, offset int) (out []*model.Listing, err error) {
	if limit <= 0 || limit > self.config.Market.GatewayMaxPageSize {
		limit = self.config.Market.GatewayMaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return self.storage.ListActiveListings(ctx, limit, offset)
}

// BuyListing settles the payment and flips the listing to sold in one
// logical step. Replays of the same (buyer, txRef) pair return the sold
// listing without charging twice. Losing the transition race after the
// payment settled yields ErrListingRaceLost and a refund event.
func (self *Manager) BuyListing(ctx context.Context, listingId, buyerWallet, buyerUsername, txRef string) (out *model.Listing, err error) {
	listing, err := self.storage.GetListing(ctx, listingId)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			err = ErrListingNotFound
		} else {
			self.monitor.GetReport().Market.Errors.DbErrors.Inc()
		}
		return
	}

	if listing.Status != model.ListingStatusActive {
		if self.isReplayOf(listing, buyerWallet, txRef) {
			out = listing
			return
		}
		err = ErrListingNotActive
		return
	}

	if listing.IsExpired(time.Now().UTC()) {
		self.expireListing(ctx, listing)
		err = ErrListingExpired
		return
	}

	// Not reached twice for the same txRef, settlement is idempotent
	// on (txRef, listingId).
	_, err = self.settlement.Settle(ctx, txRef, listing.PriceUSDC, buyerWallet, listingId)
	if err != nil {
		return
	}

	sale := &storage.SaleUpdate{
		BuyerWallet:   buyerWallet,
		BuyerUsername: buyerUsername,
		TxHash:        txRef,
		SoldAt:        time.Now().UTC(),
	}
	ok, err := self.storage.CasTransitionListing(ctx, listingId, model.ListingStatusActive, model.ListingStatusSold, sale)
	if err != nil {
		self.monitor.GetReport().Market.Errors.DbErrors.Inc()
		return
	}
	if !ok {
		out, err = self.resolveLostTransition(ctx, listingId, buyerWallet, txRef)
		return
	}

	if transferErr := self.itemAdapter.TransferOwnership(ctx, listing.ItemId, listing.SellerWallet, buyerWallet); transferErr != nil {
		// Sale is committed, payment is consumed. Flag for compensation
		// instead of trying to unwind.
		self.log.WithError(transferErr).WithField("listingId", listingId).Error("Ownership transfer failed after sale")
		self.emit(&model.MarketEvent{
			Kind:      model.MarketEventRefundRequired,
			ListingId: listingId,
			Wallet:    buyerWallet,
			TxHash:    txRef,
		})
		err = fmt.Errorf("%w: %s", ErrTransferFailed, transferErr)
		return
	}

	listing.Status = model.ListingStatusSold
	listing.BuyerWallet = buyerWallet
	listing.BuyerUsername = buyerUsername
	listing.TxHash = txRef
	listing.SoldAt = sql.NullTime{Time: sale.SoldAt, Valid: true}
	out = listing

	self.monitor.GetReport().Market.State.ListingsSold.Inc()
	self.emit(&model.MarketEvent{
		Kind:      model.MarketEventListingSold,
		ListingId: listingId,
		Wallet:    buyerWallet,
		TxHash:    txRef,
		PriceUSDC: listing.PriceUSDC,
	})
	return
}

func (self *Manager) CancelListing(ctx context.Context, listingId, requesterWallet string) (out *model.Listing, err error) {
	listing, err := self.storage.GetListing(ctx, listingId)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			err = ErrListingNotFound
		} else {
			self.monitor.GetReport().Market.Errors.DbErrors.Inc()
		}
		return
	}

	if listing.SellerWallet != requesterWallet {
		err = ErrUnauthorized
		return
	}
	if listing.Status != model.ListingStatusActive {
		err = ErrListingNotActive
		return
	}

	ok, err := self.storage.CasTransitionListing(ctx, listingId, model.ListingStatusActive, model.ListingStatusCancelled, nil)
	if err != nil {
		self.monitor.GetReport().Market.Errors.DbErrors.Inc()
		return
	}
	if !ok {
		// Sold or expired between the read and the transition
		err = ErrListingNotActive
		return
	}

	listing.Status = model.ListingStatusCancelled
	out = listing

	self.monitor.GetReport().Market.State.ListingsCancelled.Inc()
	self.emit(&model.MarketEvent{
		Kind:      model.MarketEventListingCancelled,
		ListingId: listingId,
		Wallet:    requesterWallet,
	})
	return
}

// SweepExpired marks overdue active listings as expired. Each listing
// goes through the same conditional transition as buys, so a sweep and
// a concurrent buy cannot both win.
func (self *Manager) SweepExpired(ctx context.Context) (count int, err error) {
	now := time.Now().UTC()
	expired, err := self.storage.ListExpiredActive(ctx, now, self.config.Market.SweepBatchSize)
	if err != nil {
		self.monitor.GetReport().Market.Errors.DbErrors.Inc()
		return
	}

	for _, listing := range expired {
		ok, casErr := self.storage.CasTransitionListing(ctx, listing.ID, model.ListingStatusActive, model.ListingStatusExpired, nil)
		if casErr != nil {
			self.monitor.GetReport().Market.Errors.DbErrors.Inc()
			err = casErr
			return
		}
		if !ok {
			// Someone bought or cancelled it first
			continue
		}
		count += 1
		self.monitor.GetReport().Market.State.ListingsExpired.Inc()
		self.emit(&model.MarketEvent{
			Kind:      model.MarketEventListingExpired,
			ListingId: listing.ID,
		})
	}

	self.monitor.GetReport().Market.State.LastSweepExpiredCount.Store(int64(count))
	self.monitor.GetReport().Market.State.LastSweepTimestamp.Store(now.Unix())
	return
}

func (self *Manager) isReplayOf(listing *model.Listing, buyerWallet, txRef string) bool {
	return listing.Status == model.ListingStatusSold &&
		listing.BuyerWallet == buyerWallet &&
		listing.TxHash == txRef
}

func (self *Manager) expireListing(ctx context.Context, listing *model.Listing) {
	ok, err := self.storage.CasTransitionListing(ctx, listing.ID, model.ListingStatusActive, model.ListingStatusExpired, nil)
	if err != nil {
		self.monitor.GetReport().Market.Errors.DbErrors.Inc()
		self.log.WithError(err).WithField("listingId", listing.ID).Error("Failed to mark listing expired")
		return
	}
	if ok {
		self.monitor.GetReport().Market.State.ListingsExpired.Inc()
		self.emit(&model.MarketEvent{
			Kind:      model.MarketEventListingExpired,
			ListingId: listing.ID,
		})
	}
}

// resolveLostTransition decides between an idempotent replay and a real
// race after a failed active to sold transition.
func (self *Manager) resolveLostTransition(ctx context.Context, listingId, buyerWallet, txRef string) (out *model.Listing, err error) {
	listing, err := self.storage.GetListing(ctx, listingId)
	if err != nil {
		self.monitor.GetReport().Market.Errors.DbErrors.Inc()
		return
	}

	if self.isReplayOf(listing, buyerWallet, txRef) {
		out = listing
		return
	}

	self.monitor.GetReport().Market.Errors.RaceLost.Inc()
	self.emit(&model.MarketEvent{
		Kind:      model.MarketEventRefundRequired,
		ListingId: listingId,
		Wallet:    buyerWallet,
		TxHash:    txRef,
	})
	err = ErrListingRaceLost
	return
}

func (self *Manager) emit(event *model.MarketEvent) {
	if self.events == nil {
		return
	}
	event.Timestamp = time.Now().Unix()
	select {
	case self.events <- event:
	default:
		self.log.WithField("kind", event.Kind).Warn("Event channel full, dropping market event")
	}
}
