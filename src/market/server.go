package market

import (
	"context"
	"errors"
	"net/http"

	"github.com/gemtrade/marketplace/src/mysterybox"
	"github.com/gemtrade/marketplace/src/payment"
	"github.com/gemtrade/marketplace/src/utils/config"
	"github.com/gemtrade/marketplace/src/utils/currency"
	"github.com/gemtrade/marketplace/src/utils/monitoring"
	"github.com/gemtrade/marketplace/src/utils/task"

	"github.com/gin-gonic/gin"
)

// Rest API server, the outer surface of the market core
type Server struct {
	*task.Task

	httpServer *http.Server
	Router     *gin.Engine

	manager  *Manager
	engine   *mysterybox.Engine
	currency currency.Adapter
	monitor  monitoring.Monitor
}

func NewServer(config *config.Config) (self *Server) {
	self = new(Server)

	self.Task = task.NewTask(config, "gateway").
		WithSubtaskFunc(self.run).
		WithOnStop(self.stop)

	self.Router = gin.New()

	self.httpServer = &http.Server{
		Addr:    self.Config.Market.GatewayListenAddress,
		Handler: self.Router,
	}

	return
}

func (self *Server) WithManager(manager *Manager) *Server {
	self.manager = manager
	return self
}

func (self *Server) WithEngine(engine *mysterybox.Engine) *Server {
	self.engine = engine
	return self
}

func (self *Server) WithCurrency(adapter currency.Adapter) *Server {
	self.currency = adapter
	return self
}

func (self *Server) WithMonitor(monitor monitoring.Monitor) *Server {
	self.monitor = monitor
	return self
}

func (self *Server) run() (err error) {
	if self.Config.IsDevelopment {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	self.setupRoutes()

	err = self.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		self.Log.WithError(err).Error("Failed to start gateway server")
		return
	}
	return nil
}

func (self *Server) setupRoutes() {
	self.Router.Use(self.withTimeout())

	v1 := self.Router.Group("v1")
	{
		v1.POST("listings", self.onCreateListing())
		v1.GET("listings", self.onGetListings())
		v1.GET("listings/:id", self.onGetListing())
		v1.POST("listings/:id/buy", self.onBuyListing())
		v1.POST("listings/:id/cancel", self.onCancelListing())

		v1.GET("mystery-boxes", self.onGetTiers())
		v1.POST("mystery-boxes/:tierId/purchase", self.onPurchaseBox())

		v1.POST("payments/challenge", self.onPaymentChallenge())
		v1.GET("payments/supported", self.onSupportedPayments())
	}
}

func (self *Server) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), self.Config.StopTimeout)
	defer cancel()

	err := self.httpServer.Shutdown(ctx)
	if err != nil {
		self.Log.WithError(err).Error("Failed to gracefully shutdown gateway server")
		return
	}
}

func (self *Server) withTimeout() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), self.Config.Market.GatewayRequestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// statusForError maps core errors to HTTP statuses. Payment rejections
// surface as 402, state conflicts as 409.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrListingNotFound),
		errors.Is(err, mysterybox.ErrTierNotFound):
		return http.StatusNotFound

	case errors.Is(err, ErrInvalidListing),
		errors.Is(err, payment.ErrInvalidSettlementRequest):
		return http.StatusBadRequest

	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden

	case errors.Is(err, ErrListingNotActive),
		errors.Is(err, ErrListingExpired),
		errors.Is(err, ErrListingRaceLost),
		errors.Is(err, mysterybox.ErrDuplicatePaymentReference):
		return http.StatusConflict

	case errors.Is(err, payment.ErrInsufficientPayment),
		errors.Is(err, payment.ErrPayerMismatch),
		errors.Is(err, payment.ErrPaymentAlreadyUsed),
		errors.Is(err, payment.ErrPaymentInvalid):
		return http.StatusPaymentRequired

	case errors.Is(err, payment.ErrVerificationTimeout):
		return http.StatusGatewayTimeout

	default:
		return http.StatusInternalServerError
	}
}
