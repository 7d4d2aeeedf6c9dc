package market

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gemtrade/marketplace/src/payment"
	"github.com/gemtrade/marketplace/src/utils/config"
	"github.com/gemtrade/marketplace/src/utils/currency"
	"github.com/gemtrade/marketplace/src/utils/item"
	"github.com/gemtrade/marketplace/src/utils/model"
	monitor_market "github.com/gemtrade/marketplace/src/utils/monitoring/market"
	"github.com/gemtrade/marketplace/src/utils/storage"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestManagerTestSuite(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}

type ManagerTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
	config *config.Config

	storage *storage.Memory
	mock    *currency.Mock
	monitor *monitor_market.Monitor
	manager *Manager
	events  chan *model.MarketEvent
}

func (s *ManagerTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.config = config.Default()
}

func (s *ManagerTestSuite) TearDownSuite() {
	s.cancel()
}

func (s *ManagerTestSuite) SetupTest() {
	s.storage = storage.NewMemory()
	s.mock = currency.NewMock(&s.config.Currency)
	s.monitor = monitor_market.NewMonitor().WithMaxHistorySize(30)
	s.events = make(chan *model.MarketEvent, 100)

	settlement := payment.NewSettlement(s.config).
		WithStorage(s.storage).
		WithCurrencyAdapter(s.mock).
		WithMonitor(s.monitor)

	s.manager = NewManager(s.config).
		WithStorage(s.storage).
		WithSettlement(settlement).
		WithItemAdapter(item.NewGem()).
		WithMonitor(s.monitor).
		WithEventChannel(s.events)
}

func (s *ManagerTestSuite) gemData() json.RawMessage {
	return json.RawMessage(`{"name":"Rough Quartz","color":"white","carat":1.2,"rarity":"common"}`)
}

func (s *ManagerTestSuite) createListing(price float64) *model.Listing {
	listing, err := s.manager.CreateListing(s.ctx, CreateListingParams{
		ItemId:       "gem-1",
		ItemType:     item.GemItemType,
		ItemData:     s.gemData(),
		SellerWallet: "0xseller",
		PriceUSDC:    price,
		Tags:         []string{"quartz"},
	})
	require.NoError(s.T(), err)
	return listing
}

func (s *ManagerTestSuite) TestCreateListing() {
	listing := s.createListing(5.0)

	require.NotEmpty(s.T(), listing.ID)
	require.Equal(s.T(), model.ListingStatusActive, listing.Status)
	require.False(s.T(), listing.ExpiresAt.Valid)

	stored, err := s.manager.GetListing(s.ctx, listing.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), listing.ID, stored.ID)
}

func (s *ManagerTestSuite) TestCreateListingValidation() {
	_, err := s.manager.CreateListing(s.ctx, CreateListingParams{
		ItemId:       "gem-1",
		ItemType:     item.GemItemType,
		ItemData:     s.gemData(),
		SellerWallet: "0xseller",
		PriceUSDC:    0,
	})
	require.ErrorIs(s.T(), err, ErrInvalidListing)

	_, err = s.manager.CreateListing(s.ctx, CreateListingParams{
		ItemId:       "gem-1",
		ItemType:     "potion",
		ItemData:     s.gemData(),
		SellerWallet: "0xseller",
		PriceUSDC:    5.0,
	})
	require.ErrorIs(s.T(), err, ErrInvalidListing)

	_, err = s.manager.CreateListing(s.ctx, CreateListingParams{
		ItemId:       "gem-1",
		ItemType:     item.GemItemType,
		ItemData:     json.RawMessage(`{"name":"","color":"white","carat":1}`),
		SellerWallet: "0xseller",
		PriceUSDC:    5.0,
	})
	require.ErrorIs(s.T(), err, ErrInvalidListing)

	_, err = s.manager.CreateListing(s.ctx, CreateListingParams{
		ItemId:           "gem-1",
		ItemType:         item.GemItemType,
		ItemData:         s.gemData(),
		SellerWallet:     "0xseller",
		PriceUSDC:        5.0,
		ExpiresInSeconds: int64((s.config.Market.MaxListingLifetime + time.Hour) / time.Second),
	})
	require.ErrorIs(s.T(), err, ErrInvalidListing)

	_, err = s.manager.CreateListing(s.ctx, CreateListingParams{
		ItemId:           "gem-1",
		ItemType:         item.GemItemType,
		ItemData:         s.gemData(),
		SellerWallet:     "0xseller",
		PriceUSDC:        5.0,
		ExpiresInSeconds: -60,
	})
	require.ErrorIs(s.T(), err, ErrInvalidListing)
}

func (s *ManagerTestSuite) TestBuyListing() {
	listing := s.createListing(5.0)
	s.mock.Register("tx-1", 5.0, "0xbuyer")

	sold, err := s.manager.BuyListing(s.ctx, listing.ID, "0xbuyer", "buyer", "tx-1")
	require.NoError(s.T(), err)
	require.Equal(s.T(), model.ListingStatusSold, sold.Status)
	require.Equal(s.T(), "0xbuyer", sold.BuyerWallet)
	require.Equal(s.T(), "tx-1", sold.TxHash)
	require.True(s.T(), sold.SoldAt.Valid)
}

func (s *ManagerTestSuite) TestBuyReplayIsIdempotent() {
	listing := s.createListing(5.0)
	s.mock.Register("tx-1", 5.0, "0xbuyer")

	first, err := s.manager.BuyListing(s.ctx, listing.ID, "0xbuyer", "buyer", "tx-1")
	require.NoError(s.T(), err)

	// Same buyer retries with the same payment reference
	second, err := s.manager.BuyListing(s.ctx, listing.ID, "0xbuyer", "buyer", "tx-1")
	require.NoError(s.T(), err)
	require.Equal(s.T(), first.ID, second.ID)
	require.Equal(s.T(), model.ListingStatusSold, second.Status)
}

func (s *ManagerTestSuite) TestBuySoldListingByAnotherBuyer() {
	listing := s.createListing(5.0)
	s.mock.Register("tx-1", 5.0, "0xbuyer")
	s.mock.Register("tx-2", 5.0, "0xother")

	_, err := s.manager.BuyListing(s.ctx, listing.ID, "0xbuyer", "buyer", "tx-1")
	require.NoError(s.T(), err)

	_, err = s.manager.BuyListing(s.ctx, listing.ID, "0xother", "other", "tx-2")
	require.ErrorIs(s.T(), err, ErrListingNotActive)

	// The loser's payment was never consumed
	_, err = s.storage.GetPaymentConsumption(s.ctx, "tx-2")
	require.ErrorIs(s.T(), err, storage.ErrNotFound)
}

func (s *ManagerTestSuite) TestBuyWithInsufficientPaymentLeavesListingActive() {
	listing := s.createListing(5.0)
	s.mock.Register("tx-1", 4.0, "0xbuyer")

	_, err := s.manager.BuyListing(s.ctx, listing.ID, "0xbuyer", "buyer", "tx-1")
	require.ErrorIs(s.T(), err, payment.ErrInsufficientPayment)

	stored, err := s.manager.GetListing(s.ctx, listing.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), model.ListingStatusActive, stored.Status)
}

func (s *ManagerTestSuite) TestBuyWithReusedPayment() {
	first := s.createListing(5.0)
	second := s.createListing(5.0)
	s.mock.Register("tx-1", 5.0, "0xbuyer")

	_, err := s.manager.BuyListing(s.ctx, first.ID, "0xbuyer", "buyer", "tx-1")
	require.NoError(s.T(), err)

	_, err = s.manager.BuyListing(s.ctx, second.ID, "0xbuyer", "buyer", "tx-1")
	require.ErrorIs(s.T(), err, payment.ErrPaymentAlreadyUsed)

	stored, err := s.manager.GetListing(s.ctx, second.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), model.ListingStatusActive, stored.Status)
}

func (s *ManagerTestSuite) TestBuyExpiredListing() {
	listing := s.createListing(5.0)

	// Force the expiry date into the past
	listing.ExpiresAt = sql.NullTime{Time: time.Now().Add(-time.Minute), Valid: true}
	require.NoError(s.T(), s.storage.PutListing(s.ctx, listing))

	s.mock.Register("tx-1", 5.0, "0xbuyer")

	_, err := s.manager.BuyListing(s.ctx, listing.ID, "0xbuyer", "buyer", "tx-1")
	require.ErrorIs(s.T(), err, ErrListingExpired)

	stored, err := s.manager.GetListing(s.ctx, listing.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), model.ListingStatusExpired, stored.Status)

	// Payment was never consumed
	_, err = s.storage.GetPaymentConsumption(s.ctx, "tx-1")
	require.ErrorIs(s.T(), err, storage.ErrNotFound)
}

func (s *ManagerTestSuite) TestBuyMissingListing() {
	_, err := s.manager.BuyListing(s.ctx, "no-such-id", "0xbuyer", "buyer", "tx-1")
	require.ErrorIs(s.T(), err, ErrListingNotFound)
}

func (s *ManagerTestSuite) TestConcurrentBuyersSingleWinner() {
	listing := s.createListing(5.0)

	buyers := []string{"0xalice", "0xbob", "0xcarol", "0xdave"}
	for _, buyer := range buyers {
		s.mock.Register("tx-"+buyer, 5.0, buyer)
	}

	var wg sync.WaitGroup
	results := make([]error, len(buyers))
	for i, buyer := range buyers {
		wg.Add(1)
		go func(i int, buyer string) {
			defer wg.Done()
			_, results[i] = s.manager.BuyListing(s.ctx, listing.ID, buyer, buyer, "tx-"+buyer)
		}(i, buyer)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners += 1
			continue
		}
		require.True(s.T(),
			errors.Is(err, ErrListingNotActive) || errors.Is(err, ErrListingRaceLost),
			"unexpected error: %v", err)
	}
	require.Equal(s.T(), 1, winners)

	stored, err := s.manager.GetListing(s.ctx, listing.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), model.ListingStatusSold, stored.Status)
}

func (s *ManagerTestSuite) TestCancelListing() {
	listing := s.createListing(5.0)

	cancelled, err := s.manager.CancelListing(s.ctx, listing.ID, "0xseller")
	require.NoError(s.T(), err)
	require.Equal(s.T(), model.ListingStatusCancelled, cancelled.Status)

	// Cancel is not idempotent, the listing is already terminal
	_, err = s.manager.CancelListing(s.ctx, listing.ID, "0xseller")
	require.ErrorIs(s.T(), err, ErrListingNotActive)
}

func (s *ManagerTestSuite) TestCancelByNonSeller() {
	listing := s.createListing(5.0)

	_, err := s.manager.CancelListing(s.ctx, listing.ID, "0xbuyer")
	require.ErrorIs(s.T(), err, ErrUnauthorized)

	stored, err := s.manager.GetListing(s.ctx, listing.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), model.ListingStatusActive, stored.Status)
}

func (s *ManagerTestSuite) TestBuyCancelledListing() {
	listing := s.createListing(5.0)

	_, err := s.manager.CancelListing(s.ctx, listing.ID, "0xseller")
	require.NoError(s.T(), err)

	s.mock.Register("tx-1", 5.0, "0xbuyer")
	_, err = s.manager.BuyListing(s.ctx, listing.ID, "0xbuyer", "buyer", "tx-1")
	require.ErrorIs(s.T(), err, ErrListingNotActive)
}

func (s *ManagerTestSuite) TestSweepExpired() {
	fresh := s.createListing(5.0)

	stale := s.createListing(5.0)
	stale.ExpiresAt = sql.NullTime{Time: time.Now().Add(-time.Minute), Valid: true}
	require.NoError(s.T(), s.storage.PutListing(s.ctx, stale))

	count, err := s.manager.SweepExpired(s.ctx)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 1, count)

	stored, err := s.manager.GetListing(s.ctx, stale.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), model.ListingStatusExpired, stored.Status)

	stored, err = s.manager.GetListing(s.ctx, fresh.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), model.ListingStatusActive, stored.Status)

	// Second sweep finds nothing
	count, err = s.manager.SweepExpired(s.ctx)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 0, count)
}

func (s *ManagerTestSuite) TestConcurrentBuyAndSweep() {
	// A listing expiring while a buyer pays ends up either sold or
	// expired, never both and never stuck active after a failed buy
	for i := 0; i < 25; i++ {
		listing := s.createListing(5.0)
		listing.ExpiresAt = sql.NullTime{Time: time.Now().Add(time.Millisecond), Valid: true}
		require.NoError(s.T(), s.storage.PutListing(s.ctx, listing))

		txRef := fmt.Sprintf("tx-race-%d", i)
		s.mock.Register(txRef, 5.0, "0xbuyer")

		var wg sync.WaitGroup
		var buyErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, buyErr = s.manager.BuyListing(s.ctx, listing.ID, "0xbuyer", "buyer", txRef)
		}()
		go func() {
			defer wg.Done()
			_, sweepErr := s.manager.SweepExpired(s.ctx)
			require.NoError(s.T(), sweepErr)
		}()
		wg.Wait()

		stored, err := s.manager.GetListing(s.ctx, listing.ID)
		require.NoError(s.T(), err)

		if buyErr == nil {
			require.Equal(s.T(), model.ListingStatusSold, stored.Status)
		} else {
			require.True(s.T(),
				errors.Is(buyErr, ErrListingNotActive) ||
					errors.Is(buyErr, ErrListingExpired) ||
					errors.Is(buyErr, ErrListingRaceLost),
				"unexpected buy error: %v", buyErr)
			require.Equal(s.T(), model.ListingStatusExpired, stored.Status)
		}
	}
}

func (s *ManagerTestSuite) TestListActiveListings() {
	first := s.createListing(5.0)
	second := s.createListing(6.0)
	s.mock.Register("tx-1", 5.0, "0xbuyer")

	_, err := s.manager.BuyListing(s.ctx, first.ID, "0xbuyer", "buyer", "tx-1")
	require.NoError(s.T(), err)

	active, err := s.manager.ListActiveListings(s.ctx, 10, 0)
	require.NoError(s.T(), err)
	require.Len(s.T(), active, 1)
	require.Equal(s.T(), second.ID, active[0].ID)
}
