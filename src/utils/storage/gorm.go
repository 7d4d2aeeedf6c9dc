package storage

import (
	"context"
	"errors"
	"time"

	"github.com/gemtrade/marketplace/src/utils/logger"
	"github.com/gemtrade/marketplace/src/utils/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Postgres-backed storage. Conditional transitions are single UPDATEs
// guarded by the current status, checked through RowsAffected.
type Gorm struct {
	db  *gorm.DB
	log *logrus.Entry
}

func NewGorm(db *gorm.DB) (self *Gorm) {
	self = new(Gorm)
	self.log = logger.NewSublogger("storage")
	self.db = db
	return
}

func (self *Gorm) GetListing(ctx context.Context, id string) (out *model.Listing, err error) {
	out = new(model.Listing)
	err = self.db.WithContext(ctx).
		Where("id = ?", id).
		First(out).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return
}

func (self *Gorm) PutListing(ctx context.Context, listing *model.Listing) (err error) {
	return self.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(listing).
		Error
}

func (self *Gorm) CasTransitionListing(ctx context.Context, id string, from, to model.ListingStatus, sale *SaleUpdate) (ok bool, err error) {
	updates := map[string]interface{}{"status": to}
	if sale != nil {
		updates["buyer_wallet"] = sale.BuyerWallet
		updates["buyer_username"] = sale.BuyerUsername
		updates["tx_hash"] = sale.TxHash
		updates["sold_at"] = sale.SoldAt
	}

	res := self.db.WithContext(ctx).
		Model(&model.Listing{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (self *Gorm) ListActiveListings(ctx context.Context, limit, offset int) (out []*model.Listing, err error) {
	err = self.db.WithContext(ctx).
		Where("status = ?", model.ListingStatusActive).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).
		Error
	return
}

func (self *Gorm) ListExpiredActive(ctx context.Context, now time.Time, limit int) (out []*model.Listing, err error) {
	err = self.db.WithContext(ctx).
		Where("status = ?", model.ListingStatusActive).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&out).
		Error
	return
}

func (self *Gorm) RecordPaymentConsumption(ctx context.Context, consumption *model.PaymentConsumption) (existing *model.PaymentConsumption, created bool, err error) {
	res := self.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(consumption)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return consumption, true, nil
	}

	// Insert was skipped, some earlier settlement owns the tx ref
	existing, err = self.GetPaymentConsumption(ctx, consumption.TxRef)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (self *Gorm) GetPaymentConsumption(ctx context.Context, txRef string) (out *model.PaymentConsumption, err error) {
	out = new(model.PaymentConsumption)
	err = self.db.WithContext(ctx).
		Where("tx_ref = ?", txRef).
		First(out).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return
}

func (self *Gorm) GetMysteryBoxTier(ctx context.Context, id string) (out *model.MysteryBoxTier, err error) {
	out = new(model.MysteryBoxTier)
	err = self.db.WithContext(ctx).
		Where("id = ?", id).
		First(out).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return
}

func (self *Gorm) ListMysteryBoxTiers(ctx context.Context) (out []*model.MysteryBoxTier, err error) {
	err = self.db.WithContext(ctx).
		Order("price_usdc ASC").
		Find(&out).
		Error
	return
}

func (self *Gorm) PutMysteryPurchase(ctx context.Context, purchase *model.MysteryBoxPurchase) (err error) {
	res := self.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(purchase)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (self *Gorm) FindMysteryPurchaseByTxHash(ctx context.Context, txHash string) (out *model.MysteryBoxPurchase, err error) {
	out = new(model.MysteryBoxPurchase)
	err = self.db.WithContext(ctx).
		Where("tx_hash = ?", txHash).
		First(out).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return
}
