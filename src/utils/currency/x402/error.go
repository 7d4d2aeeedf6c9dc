package x402

import "errors"

var (
	ErrFailedToParse = errors.New("failed to parse facilitator response")
)
