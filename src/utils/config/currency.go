package config

import (
	"time"

	"github.com/spf13/viper"
)

// Which currency adapter implementation is wired in at startup
const (
	CurrencyVariantMock = "mock"
	CurrencyVariantX402 = "x402"
)

type Currency struct {
	// One of: mock, x402
	Variant string

	// Payment facilitator endpoints, requests are round-robined between them
	FacilitatorUrls []string

	// Network tag put into payment challenges, e.g. base or base-sepolia
	Network string

	// Address payments are made out to
	ReceiverWallet string

	// Max time for a single verify call, exceeding it is reported as a timeout failure
	RequestTimeout time.Duration

	// HTTP client connection options
	DialerTimeout       time.Duration
	DialerKeepAlive     time.Duration
	IdleConnTimeout     time.Duration
	TLSHandshakeTimeout time.Duration
}

func setCurrencyDefaults() {
	viper.SetDefault("Currency.Variant", CurrencyVariantMock)
	viper.SetDefault("Currency.FacilitatorUrls", []string{"https://x402.org/facilitator"})
	viper.SetDefault("Currency.Network", "base-sepolia")
	viper.SetDefault("Currency.ReceiverWallet", "")
	viper.SetDefault("Currency.RequestTimeout", "30s")
	viper.SetDefault("Currency.DialerTimeout", "30s")
	viper.SetDefault("Currency.DialerKeepAlive", "15s")
	viper.SetDefault("Currency.IdleConnTimeout", "31s")
	viper.SetDefault("Currency.TLSHandshakeTimeout", "10s")
}
