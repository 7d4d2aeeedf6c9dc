package mysterybox

import (
	"context"
	"errors"

	"github.com/gemtrade/marketplace/src/utils/config"
	"github.com/gemtrade/marketplace/src/utils/logger"
	"github.com/gemtrade/marketplace/src/utils/model"
	"github.com/gemtrade/marketplace/src/utils/storage"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Read-through cache over tier configurations. Tiers are immutable once
// published, so stale reads are harmless.
type TierRegistry struct {
	log     *logrus.Entry
	storage storage.Storage
	cache   *cache.Cache
}

func NewTierRegistry(config *config.Config) (self *TierRegistry) {
	self = new(TierRegistry)
	self.log = logger.NewSublogger("tier-registry")
	self.cache = cache.New(config.MysteryBox.TierCacheExpiration, config.MysteryBox.TierCacheCleanupInterval)
	return
}

func (self *TierRegistry) WithStorage(v storage.Storage) *TierRegistry {
	self.storage = v
	return self
}

func (self *TierRegistry) Get(ctx context.Context, id string) (out *model.MysteryBoxTier, err error) {
	if cached, ok := self.cache.Get(id); ok {
		return cached.(*model.MysteryBoxTier), nil
	}

	out, err = self.storage.GetMysteryBoxTier(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrTierNotFound
	}
	if err != nil {
		return
	}

	self.cache.SetDefault(id, out)
	return
}

func (self *TierRegistry) List(ctx context.Context) (out []*model.MysteryBoxTier, err error) {
	return self.storage.ListMysteryBoxTiers(ctx)
}
