package x402

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gemtrade/marketplace/src/utils/config"
	"github.com/gemtrade/marketplace/src/utils/logger"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

type BaseClient struct {
	config *config.Currency
	log    *logrus.Entry

	// State
	mtx              sync.Mutex
	clients          map[string]*resty.Client
	currentClientIdx int
}

func newBaseClient(config *config.Currency) (self *BaseClient) {
	self = new(BaseClient)
	self.log = logger.NewSublogger("x402-client")
	self.config = config
	self.clients = make(map[string]*resty.Client)

	for _, url := range self.config.FacilitatorUrls {
		self.log.WithField("url", url).Debug("Creating client")
		self.clients[url] = resty.New().
			SetBaseURL(url).
			SetTimeout(self.config.RequestTimeout).
			SetHeader("User-Agent", "gemtrade/marketplace").
			SetRetryCount(0).
			SetTransport(self.createTransport()).
			AddRetryCondition(self.onRetryCondition).
			OnAfterResponse(self.onStatusToError)
	}
	return
}

func (self *BaseClient) createTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   self.config.DialerTimeout,
		KeepAlive: self.config.DialerKeepAlive,
		DualStack: true,
	}

	return &http.Transport{
		// Some config options disable http2, try it anyway
		ForceAttemptHTTP2: true,

		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   self.config.TLSHandshakeTimeout,
		ExpectContinueTimeout: 1 * time.Second,

		// Facilitators may stop responding on idle connections
		IdleConnTimeout:     self.config.IdleConnTimeout,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     10,
	}
}

// Converts HTTP status to errors
func (self *BaseClient) onStatusToError(c *resty.Client, resp *resty.Response) error {
	// Non-success status code turns into an error
	if resp.IsSuccess() {
		return nil
	}
	if resp.StatusCode() > 399 && resp.StatusCode() < 500 {
		self.log.WithField("status", resp.StatusCode()).
			WithField("resp", string(resp.Body())).
			WithField("url", resp.Request.URL).
			Debug("Bad request")
	}
	return fmt.Errorf("unexpected status: %s", resp.Status())
}

// Retry request only upon server errors
func (self *BaseClient) onRetryCondition(resp *resty.Response, err error) bool {
	return resp != nil && resp.StatusCode() >= 500
}

func (self *BaseClient) GetClient() *resty.Client {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	self.currentClientIdx = (self.currentClientIdx + 1) % len(self.clients)
	return self.clients[self.config.FacilitatorUrls[self.currentClientIdx]]
}
