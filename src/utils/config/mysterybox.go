package config

import (
	"time"

	"github.com/spf13/viper"
)

type MysteryBox struct {
	// How long resolved tier configurations are cached
	TierCacheExpiration time.Duration

	// How often expired tier cache entries are purged
	TierCacheCleanupInterval time.Duration
}

func setMysteryBoxDefaults() {
	viper.SetDefault("MysteryBox.TierCacheExpiration", "10m")
	viper.SetDefault("MysteryBox.TierCacheCleanupInterval", "15m")
}
