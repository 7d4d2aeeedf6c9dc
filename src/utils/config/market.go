package config

import (
	"time"

	"github.com/spf13/viper"
)

type Market struct {
	// REST API address the market gateway listens on
	GatewayListenAddress string

	// Max time for handling a single gateway request
	GatewayRequestTimeout time.Duration

	// Max listings returned from the list endpoint in one page
	GatewayMaxPageSize int

	// How often active listings are scanned for passed expiry dates
	SweepInterval time.Duration

	// Max expired listings transitioned in one sweep
	SweepBatchSize int

	// Backoff configuration for a failed sweep, 0 is no limit
	SweepMaxElapsedTime time.Duration
	SweepMaxInterval    time.Duration

	// Upper bound for ExpiresInSeconds in a create listing request, 0 disables the limit
	MaxListingLifetime time.Duration
}

func setMarketDefaults() {
	viper.SetDefault("Market.GatewayListenAddress", ":8080")
	viper.SetDefault("Market.GatewayRequestTimeout", "30s")
	viper.SetDefault("Market.GatewayMaxPageSize", "100")
	viper.SetDefault("Market.SweepInterval", "30s")
	viper.SetDefault("Market.SweepBatchSize", "100")
	viper.SetDefault("Market.SweepMaxElapsedTime", "5m")
	viper.SetDefault("Market.SweepMaxInterval", "30s")
	viper.SetDefault("Market.MaxListingLifetime", "720h")
}
