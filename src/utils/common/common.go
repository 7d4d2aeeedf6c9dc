package common

import (
	"context"
	"errors"

	"github.com/gemtrade/marketplace/src/utils/config"
)

type contextKey int

const (
	configKey contextKey = iota
)

func SetConfig(ctx context.Context, conf *config.Config) context.Context {
	return context.WithValue(ctx, configKey, conf)
}

func GetConfig(ctx context.Context) (*config.Config, error) {
	conf, ok := ctx.Value(configKey).(*config.Config)
	if !ok {
		return nil, errors.New("config not present in the context")
	}
	return conf, nil
}
