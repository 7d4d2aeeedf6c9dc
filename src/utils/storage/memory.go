package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gemtrade/marketplace/src/utils/model"

	"github.com/lib/pq"
)

// In-memory storage used by tests and development setups. Mutating
// operations hold the mutex for the whole read-modify-write, so the
// conditional-transition guarantees match the Postgres implementation.
type Memory struct {
	mtx sync.Mutex

	listings     map[string]*model.Listing
	consumptions map[string]*model.PaymentConsumption
	tiers        map[string]*model.MysteryBoxTier
	purchases    map[string]*model.MysteryBoxPurchase

	// tx hash -> purchase id
	purchasesByTxHash map[string]string
}

func NewMemory() (self *Memory) {
	self = new(Memory)
	self.listings = make(map[string]*model.Listing)
	self.consumptions = make(map[string]*model.PaymentConsumption)
	self.tiers = make(map[string]*model.MysteryBoxTier)
	self.purchases = make(map[string]*model.MysteryBoxPurchase)
	self.purchasesByTxHash = make(map[string]string)
	return
}

func copyListing(in *model.Listing) *model.Listing {
	out := *in
	out.Tags = append(pq.StringArray(nil), in.Tags...)
	return &out
}

func (self *Memory) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	listing, ok := self.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyListing(listing), nil
}

func (self *Memory) PutListing(ctx context.Context, listing *model.Listing) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	self.listings[listing.ID] = copyListing(listing)
	return nil
}

func (self *Memory) CasTransitionListing(ctx context.Context, id string, from, to model.ListingStatus, sale *SaleUpdate) (ok bool, err error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	listing, found := self.listings[id]
	if !found || listing.Status != from {
		return false, nil
	}

	listing.Status = to
	if sale != nil {
		listing.BuyerWallet = sale.BuyerWallet
		listing.BuyerUsername = sale.BuyerUsername
		listing.TxHash = sale.TxHash
		listing.SoldAt.Time = sale.SoldAt
		listing.SoldAt.Valid = true
	}
	return true, nil
}

func (self *Memory) ListActiveListings(ctx context.Context, limit, offset int) (out []*model.Listing, err error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	for _, listing := range self.listings {
		if listing.Status == model.ListingStatusActive {
			out = append(out, copyListing(listing))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return
}

func (self *Memory) ListExpiredActive(ctx context.Context, now time.Time, limit int) (out []*model.Listing, err error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	for _, listing := range self.listings {
		if listing.Status == model.ListingStatusActive && listing.IsExpired(now) {
			out = append(out, copyListing(listing))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Time.Before(out[j].ExpiresAt.Time) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return
}

func (self *Memory) RecordPaymentConsumption(ctx context.Context, consumption *model.PaymentConsumption) (existing *model.PaymentConsumption, created bool, err error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if prior, ok := self.consumptions[consumption.TxRef]; ok {
		out := *prior
		return &out, false, nil
	}

	saved := *consumption
	self.consumptions[consumption.TxRef] = &saved
	out := saved
	return &out, true, nil
}

func (self *Memory) GetPaymentConsumption(ctx context.Context, txRef string) (*model.PaymentConsumption, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	consumption, ok := self.consumptions[txRef]
	if !ok {
		return nil, ErrNotFound
	}
	out := *consumption
	return &out, nil
}

func (self *Memory) PutMysteryBoxTier(ctx context.Context, tier *model.MysteryBoxTier) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	saved := *tier
	self.tiers[tier.ID] = &saved
	return nil
}

func (self *Memory) GetMysteryBoxTier(ctx context.Context, id string) (*model.MysteryBoxTier, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	tier, ok := self.tiers[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *tier
	return &out, nil
}

func (self *Memory) ListMysteryBoxTiers(ctx context.Context) (out []*model.MysteryBoxTier, err error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	for _, tier := range self.tiers {
		copied := *tier
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PriceUSDC < out[j].PriceUSDC })
	return
}

func (self *Memory) PutMysteryPurchase(ctx context.Context, purchase *model.MysteryBoxPurchase) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if _, ok := self.purchasesByTxHash[purchase.TxHash]; ok {
		return ErrAlreadyExists
	}
	if _, ok := self.purchases[purchase.ID]; ok {
		return ErrAlreadyExists
	}

	saved := *purchase
	self.purchases[purchase.ID] = &saved
	self.purchasesByTxHash[purchase.TxHash] = purchase.ID
	return nil
}

func (self *Memory) FindMysteryPurchaseByTxHash(ctx context.Context, txHash string) (*model.MysteryBoxPurchase, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	id, ok := self.purchasesByTxHash[txHash]
	if !ok {
		return nil, ErrNotFound
	}
	out := *self.purchases[id]
	return &out, nil
}
