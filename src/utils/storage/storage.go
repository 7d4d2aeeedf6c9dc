package storage

import (
	"context"
	"errors"
	"time"

	"github.com/gemtrade/marketplace/src/utils/model"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

// Sale fields written together with the active->sold transition
type SaleUpdate struct {
	BuyerWallet   string
	BuyerUsername string
	TxHash        string
	SoldAt        time.Time
}

// Atomic read-modify-write primitives over listings and purchase records.
// All mutating guarantees the market core relies on live here:
// conditional status transitions and first-writer-wins consumption records.
type Storage interface {
	GetListing(ctx context.Context, id string) (*model.Listing, error)
	PutListing(ctx context.Context, listing *model.Listing) error

	// Transitions the listing from `from` to `to` in one conditional write.
	// Returns ok=false without an error when the current status differs from `from`.
	CasTransitionListing(ctx context.Context, id string, from, to model.ListingStatus, sale *SaleUpdate) (ok bool, err error)

	ListActiveListings(ctx context.Context, limit, offset int) ([]*model.Listing, error)

	// Active listings whose expiry date has passed, for the sweeper
	ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]*model.Listing, error)

	// First write for a tx ref wins. Later calls return the existing
	// record and created=false, regardless of the idempotency key.
	RecordPaymentConsumption(ctx context.Context, consumption *model.PaymentConsumption) (existing *model.PaymentConsumption, created bool, err error)
	GetPaymentConsumption(ctx context.Context, txRef string) (*model.PaymentConsumption, error)

	GetMysteryBoxTier(ctx context.Context, id string) (*model.MysteryBoxTier, error)
	ListMysteryBoxTiers(ctx context.Context) ([]*model.MysteryBoxTier, error)

	// Fails with ErrAlreadyExists when the tx hash was recorded before
	PutMysteryPurchase(ctx context.Context, purchase *model.MysteryBoxPurchase) error
	FindMysteryPurchaseByTxHash(ctx context.Context, txHash string) (*model.MysteryBoxPurchase, error)
}
