package market

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gemtrade/marketplace/src/market/response"
	"github.com/gemtrade/marketplace/src/mysterybox"
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

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

type ServerTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
	config *config.Config

	storage *storage.Memory
	mock    *currency.Mock
	server  *Server
}

func (s *ServerTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.config = config.Default()
}

func (s *ServerTestSuite) TearDownSuite() {
	s.cancel()
}

func (s *ServerTestSuite) SetupTest() {
	s.storage = storage.NewMemory()
	s.mock = currency.NewMock(&s.config.Currency)

	monitor := monitor_market.NewMonitor().WithMaxHistorySize(30)

	settlement := payment.NewSettlement(s.config).
		WithStorage(s.storage).
		WithCurrencyAdapter(s.mock).
		WithMonitor(monitor)

	itemAdapter := item.NewGem()

	manager := NewManager(s.config).
		WithStorage(s.storage).
		WithSettlement(settlement).
		WithItemAdapter(itemAdapter).
		WithMonitor(monitor)

	engine := mysterybox.NewEngine(s.config).
		WithStorage(s.storage).
		WithSettlement(settlement).
		WithItemAdapter(itemAdapter).
		WithMonitor(monitor)

	s.server = NewServer(s.config).
		WithManager(manager).
		WithEngine(engine).
		WithCurrency(s.mock).
		WithMonitor(monitor)
	s.server.setupRoutes()
}

func (s *ServerTestSuite) request(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.T(), json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	s.server.Router.ServeHTTP(recorder, req)
	return recorder
}

func (s *ServerTestSuite) createListing() *response.Listing {
	recorder := s.request(http.MethodPost, "/v1/listings", map[string]any{
		"item_id":       "gem-1",
		"item_type":     item.GemItemType,
		"item_data":     json.RawMessage(`{"name":"Rough Quartz","color":"white","carat":1.2}`),
		"seller_wallet": "0xseller",
		"price_usdc":    5.0,
	})
	require.Equal(s.T(), http.StatusCreated, recorder.Code)

	var listing response.Listing
	require.NoError(s.T(), json.Unmarshal(recorder.Body.Bytes(), &listing))
	return &listing
}

func (s *ServerTestSuite) TestCreateAndGetListing() {
	listing := s.createListing()
	require.Equal(s.T(), string(model.ListingStatusActive), listing.Status)

	recorder := s.request(http.MethodGet, "/v1/listings/"+listing.Id, nil)
	require.Equal(s.T(), http.StatusOK, recorder.Code)

	recorder = s.request(http.MethodGet, "/v1/listings", nil)
	require.Equal(s.T(), http.StatusOK, recorder.Code)

	var listings response.GetListings
	require.NoError(s.T(), json.Unmarshal(recorder.Body.Bytes(), &listings))
	require.Len(s.T(), listings.Listings, 1)
}

func (s *ServerTestSuite) TestGetMissingListing() {
	recorder := s.request(http.MethodGet, "/v1/listings/no-such-id", nil)
	require.Equal(s.T(), http.StatusNotFound, recorder.Code)
}

func (s *ServerTestSuite) TestInvalidListingRejected() {
	recorder := s.request(http.MethodPost, "/v1/listings", map[string]any{
		"item_id":       "gem-1",
		"item_type":     item.GemItemType,
		"item_data":     json.RawMessage(`{"name":"Rough Quartz","color":"white","carat":1.2}`),
		"seller_wallet": "0xseller",
		"price_usdc":    -1.0,
	})
	require.Equal(s.T(), http.StatusBadRequest, recorder.Code)
}

func (s *ServerTestSuite) TestBuyListing() {
	listing := s.createListing()
	s.mock.Register("tx-1", 5.0, "0xbuyer")

	recorder := s.request(http.MethodPost, "/v1/listings/"+listing.Id+"/buy", map[string]any{
		"buyer_wallet": "0xbuyer",
		"tx_ref":       "tx-1",
	})
	require.Equal(s.T(), http.StatusOK, recorder.Code)

	var sold response.Listing
	require.NoError(s.T(), json.Unmarshal(recorder.Body.Bytes(), &sold))
	require.Equal(s.T(), string(model.ListingStatusSold), sold.Status)
	require.Equal(s.T(), "0xbuyer", sold.BuyerWallet)
}

func (s *ServerTestSuite) TestBuyWithoutReferenceReturnsChallenge() {
	listing := s.createListing()

	recorder := s.request(http.MethodPost, "/v1/listings/"+listing.Id+"/buy", map[string]any{
		"buyer_wallet": "0xbuyer",
	})
	require.Equal(s.T(), http.StatusPaymentRequired, recorder.Code)

	var challenge currency.Challenge
	require.NoError(s.T(), json.Unmarshal(recorder.Body.Bytes(), &challenge))
	require.Equal(s.T(), "exact", challenge.Scheme)
	require.Equal(s.T(), 5.0, challenge.AmountUSDC)
	require.NotEmpty(s.T(), challenge.Nonce)
}

func (s *ServerTestSuite) TestBuyWithInvalidPayment() {
	listing := s.createListing()

	recorder := s.request(http.MethodPost, "/v1/listings/"+listing.Id+"/buy", map[string]any{
		"buyer_wallet": "0xbuyer",
		"tx_ref":       "tx-unknown",
	})
	require.Equal(s.T(), http.StatusPaymentRequired, recorder.Code)
}

func (s *ServerTestSuite) TestBuySoldListingConflicts() {
	listing := s.createListing()
	s.mock.Register("tx-1", 5.0, "0xbuyer")
	s.mock.Register("tx-2", 5.0, "0xother")

	recorder := s.request(http.MethodPost, "/v1/listings/"+listing.Id+"/buy", map[string]any{
		"buyer_wallet": "0xbuyer",
		"tx_ref":       "tx-1",
	})
	require.Equal(s.T(), http.StatusOK, recorder.Code)

	recorder = s.request(http.MethodPost, "/v1/listings/"+listing.Id+"/buy", map[string]any{
		"buyer_wallet": "0xother",
		"tx_ref":       "tx-2",
	})
	require.Equal(s.T(), http.StatusConflict, recorder.Code)
}

func (s *ServerTestSuite) TestCancelListing() {
	listing := s.createListing()

	recorder := s.request(http.MethodPost, "/v1/listings/"+listing.Id+"/cancel", map[string]any{
		"requester_wallet": "0xother",
	})
	require.Equal(s.T(), http.StatusForbidden, recorder.Code)

	recorder = s.request(http.MethodPost, "/v1/listings/"+listing.Id+"/cancel", map[string]any{
		"requester_wallet": "0xseller",
	})
	require.Equal(s.T(), http.StatusOK, recorder.Code)
}

func (s *ServerTestSuite) TestMysteryBoxPurchase() {
	tier := &model.MysteryBoxTier{ID: "starter", Name: "Starter", PriceUSDC: 2.0}
	require.NoError(s.T(), tier.SetWeights(map[string]int64{"common": 80, "rare": 20}))
	require.NoError(s.T(), s.storage.PutMysteryBoxTier(s.ctx, tier))

	recorder := s.request(http.MethodGet, "/v1/mystery-boxes", nil)
	require.Equal(s.T(), http.StatusOK, recorder.Code)

	var tiers response.GetMysteryBoxTiers
	require.NoError(s.T(), json.Unmarshal(recorder.Body.Bytes(), &tiers))
	require.Len(s.T(), tiers.Tiers, 1)

	s.mock.Register("tx-1", 2.0, "0xbuyer")
	recorder = s.request(http.MethodPost, "/v1/mystery-boxes/starter/purchase", map[string]any{
		"buyer_wallet": "0xbuyer",
		"tx_ref":       "tx-1",
	})
	require.Equal(s.T(), http.StatusOK, recorder.Code)

	var purchase response.PurchaseBox
	require.NoError(s.T(), json.Unmarshal(recorder.Body.Bytes(), &purchase))
	require.NotNil(s.T(), purchase.Item)
	require.Equal(s.T(), "tx-1", purchase.TxHash)
}

func (s *ServerTestSuite) TestMysteryBoxUnknownTier() {
	recorder := s.request(http.MethodPost, "/v1/mystery-boxes/no-such-tier/purchase", map[string]any{
		"buyer_wallet": "0xbuyer",
		"tx_ref":       "tx-1",
	})
	require.Equal(s.T(), http.StatusNotFound, recorder.Code)
}

func (s *ServerTestSuite) TestPaymentChallenge() {
	recorder := s.request(http.MethodPost, "/v1/payments/challenge", map[string]any{
		"amount_usdc": 3.5,
	})
	require.Equal(s.T(), http.StatusOK, recorder.Code)

	var challenge currency.Challenge
	require.NoError(s.T(), json.Unmarshal(recorder.Body.Bytes(), &challenge))
	require.Equal(s.T(), 3.5, challenge.AmountUSDC)

	recorder = s.request(http.MethodPost, "/v1/payments/challenge", map[string]any{
		"amount_usdc": 0,
	})
	require.Equal(s.T(), http.StatusBadRequest, recorder.Code)
}

func (s *ServerTestSuite) TestSupportedPayments() {
	recorder := s.request(http.MethodGet, "/v1/payments/supported", nil)
	require.Equal(s.T(), http.StatusOK, recorder.Code)

	var out struct {
		Kinds []currency.Kind `json:"kinds"`
	}
	require.NoError(s.T(), json.Unmarshal(recorder.Body.Bytes(), &out))
	require.Len(s.T(), out.Kinds, 1)
	require.Equal(s.T(), "exact", out.Kinds[0].Scheme)
	require.Equal(s.T(), s.config.Currency.Network, out.Kinds[0].Network)
}
