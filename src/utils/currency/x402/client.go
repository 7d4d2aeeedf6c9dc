package x402

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/gemtrade/marketplace/src/utils/config"
	"github.com/gemtrade/marketplace/src/utils/currency"

	"github.com/rs/xid"
)

// Currency adapter implementing the pay-per-request challenge/verify
// flow against an x402 payment facilitator
type Client struct {
	*BaseClient
}

func NewClient(config *config.Currency) (self *Client) {
	self = new(Client)
	self.BaseClient = newBaseClient(config)
	return
}

func (self *Client) Verify(ctx context.Context, txRef string, requiredAmount float64, requiredPayer string) (out *currency.Verification, err error) {
	resp, err := self.GetClient().
		R().
		SetContext(ctx).
		SetBody(VerifyRequest{
			TxRef:      txRef,
			AmountUSDC: requiredAmount,
			Payer:      requiredPayer,
			PayTo:      self.config.ReceiverWallet,
			Network:    self.config.Network,
		}).
		SetResult(&VerifyResponse{}).
		ForceContentType("application/json").
		SetHeader("Content-Type", "application/json").
		Post("/verify")
	if err != nil {
		if isTimeout(err) {
			err = currency.ErrTimeout
		}
		return
	}

	parsed, ok := resp.Result().(*VerifyResponse)
	if !ok {
		err = ErrFailedToParse
		return
	}

	out = &currency.Verification{
		Valid:           parsed.IsValid,
		ConfirmedAmount: parsed.ConfirmedAmount,
		PayerWallet:     parsed.Payer,
		Reason:          parsed.InvalidReason,
	}
	return
}

// Capability discovery, the facilitator lists the scheme and network
// combinations it can settle
func (self *Client) Supported(ctx context.Context) (out []currency.Kind, err error) {
	resp, err := self.GetClient().
		R().
		SetContext(ctx).
		SetResult(&SupportedResponse{}).
		ForceContentType("application/json").
		Get("/supported")
	if err != nil {
		if isTimeout(err) {
			err = currency.ErrTimeout
		}
		return
	}

	parsed, ok := resp.Result().(*SupportedResponse)
	if !ok {
		err = ErrFailedToParse
		return
	}

	out = make([]currency.Kind, 0, len(parsed.Kinds))
	for _, kind := range parsed.Kinds {
		out = append(out, currency.Kind{Scheme: kind.Scheme, Network: kind.Network})
	}
	return
}

// Payment requirements are generated locally, the facilitator only
// verifies settled transfers
func (self *Client) CreateChallenge(ctx context.Context, amount float64) (out *currency.Challenge, err error) {
	return &currency.Challenge{
		Scheme:     "exact",
		Network:    self.config.Network,
		AmountUSDC: amount,
		PayTo:      self.config.ReceiverWallet,
		Nonce:      xid.New().String(),
		ExpiresAt:  time.Now().Add(5 * time.Minute),
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
