package payment

import (
	"context"
	"testing"

	"github.com/gemtrade/marketplace/src/utils/config"
	"github.com/gemtrade/marketplace/src/utils/currency"
	monitor_market "github.com/gemtrade/marketplace/src/utils/monitoring/market"
	"github.com/gemtrade/marketplace/src/utils/storage"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestSettlementTestSuite(t *testing.T) {
	suite.Run(t, new(SettlementTestSuite))
}

type SettlementTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
	config *config.Config

	storage    *storage.Memory
	mock       *currency.Mock
	settlement *Settlement
}

func (s *SettlementTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.config = config.Default()
}

func (s *SettlementTestSuite) TearDownSuite() {
	s.cancel()
}

func (s *SettlementTestSuite) SetupTest() {
	s.storage = storage.NewMemory()
	s.mock = currency.NewMock(&s.config.Currency)
	s.settlement = NewSettlement(s.config).
		WithStorage(s.storage).
		WithCurrencyAdapter(s.mock).
		WithMonitor(monitor_market.NewMonitor().WithMaxHistorySize(30))
}

func (s *SettlementTestSuite) TestSettleConfirmedPayment() {
	s.mock.Register("tx-1", 5.0, "0xbuyer")

	result, err := s.settlement.Settle(s.ctx, "tx-1", 5.0, "0xbuyer", "listing-1")
	require.NoError(s.T(), err)
	require.True(s.T(), result.Confirmed)
	require.False(s.T(), result.AlreadySettled)
	require.Equal(s.T(), 5.0, result.Amount)
	require.Equal(s.T(), "0xbuyer", result.Payer)
}

func (s *SettlementTestSuite) TestReplayWithSameKeyIsIdempotent() {
	s.mock.Register("tx-1", 5.0, "0xbuyer")

	first, err := s.settlement.Settle(s.ctx, "tx-1", 5.0, "0xbuyer", "listing-1")
	require.NoError(s.T(), err)
	require.False(s.T(), first.AlreadySettled)

	second, err := s.settlement.Settle(s.ctx, "tx-1", 5.0, "0xbuyer", "listing-1")
	require.NoError(s.T(), err)
	require.True(s.T(), second.AlreadySettled)
	require.Equal(s.T(), first.Amount, second.Amount)
}

func (s *SettlementTestSuite) TestReuseWithDifferentKeyIsRejected() {
	s.mock.Register("tx-1", 5.0, "0xbuyer")

	_, err := s.settlement.Settle(s.ctx, "tx-1", 5.0, "0xbuyer", "listing-1")
	require.NoError(s.T(), err)

	_, err = s.settlement.Settle(s.ctx, "tx-1", 5.0, "0xbuyer", "listing-2")
	require.ErrorIs(s.T(), err, ErrPaymentAlreadyUsed)
}

func (s *SettlementTestSuite) TestReplayByDifferentPayerIsRejected() {
	s.mock.Register("tx-1", 5.0, "0xbuyer")

	_, err := s.settlement.Settle(s.ctx, "tx-1", 5.0, "0xbuyer", "listing-1")
	require.NoError(s.T(), err)

	_, err = s.settlement.Settle(s.ctx, "tx-1", 5.0, "0xother", "listing-1")
	require.ErrorIs(s.T(), err, ErrPaymentAlreadyUsed)
}

func (s *SettlementTestSuite) TestInsufficientPayment() {
	s.mock.Register("tx-1", 4.0, "0xbuyer")

	_, err := s.settlement.Settle(s.ctx, "tx-1", 5.0, "0xbuyer", "listing-1")
	require.ErrorIs(s.T(), err, ErrInsufficientPayment)

	// Nothing consumed, the reference is still usable
	_, err = s.storage.GetPaymentConsumption(s.ctx, "tx-1")
	require.ErrorIs(s.T(), err, storage.ErrNotFound)
}

func (s *SettlementTestSuite) TestOverpaymentIsAccepted() {
	s.mock.Register("tx-1", 7.5, "0xbuyer")

	result, err := s.settlement.Settle(s.ctx, "tx-1", 5.0, "0xbuyer", "listing-1")
	require.NoError(s.T(), err)
	require.Equal(s.T(), 7.5, result.Amount)
}

func (s *SettlementTestSuite) TestPayerMismatch() {
	s.mock.Register("tx-1", 5.0, "0xsomeoneelse")

	_, err := s.settlement.Settle(s.ctx, "tx-1", 5.0, "0xbuyer", "listing-1")
	require.ErrorIs(s.T(), err, ErrPayerMismatch)
}

func (s *SettlementTestSuite) TestUnknownReferenceIsInvalid() {
	_, err := s.settlement.Settle(s.ctx, "tx-unknown", 5.0, "0xbuyer", "listing-1")
	require.ErrorIs(s.T(), err, ErrPaymentInvalid)
}

func (s *SettlementTestSuite) TestMissingInput() {
	_, err := s.settlement.Settle(s.ctx, "", 5.0, "0xbuyer", "listing-1")
	require.ErrorIs(s.T(), err, ErrInvalidSettlementRequest)

	_, err = s.settlement.Settle(s.ctx, "tx-1", 0, "0xbuyer", "listing-1")
	require.ErrorIs(s.T(), err, ErrInvalidSettlementRequest)

	_, err = s.settlement.Settle(s.ctx, "tx-1", 5.0, "", "listing-1")
	require.ErrorIs(s.T(), err, ErrInvalidSettlementRequest)

	_, err = s.settlement.Settle(s.ctx, "tx-1", 5.0, "0xbuyer", "")
	require.ErrorIs(s.T(), err, ErrInvalidSettlementRequest)
}

func (s *SettlementTestSuite) TestCancelledContextMapsToTimeout() {
	s.mock.Register("tx-1", 5.0, "0xbuyer")

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.settlement.Settle(ctx, "tx-1", 5.0, "0xbuyer", "listing-1")
	require.ErrorIs(s.T(), err, ErrVerificationTimeout)
}
