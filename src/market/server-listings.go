package market

import (
	"net/http"
	"strconv"

	"github.com/gemtrade/marketplace/src/market/request"
	"github.com/gemtrade/marketplace/src/market/response"
	. "github.com/gemtrade/marketplace/src/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func (self *Server) onCreateListing() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in = new(request.CreateListing)
		err := c.ShouldBindWith(in, binding.JSON)
		if err != nil {
			LOGE(c, err, http.StatusBadRequest).Error("Failed to parse request")
			return
		}

		listing, err := self.manager.CreateListing(c.Request.Context(), CreateListingParams{
			ItemId:           in.ItemId,
			ItemType:         in.ItemType,
			ItemData:         in.ItemData,
			SellerWallet:     in.SellerWallet,
			SellerUsername:   in.SellerUsername,
			PriceUSDC:        in.PriceUSDC,
			ExpiresInSeconds: in.ExpiresInSeconds,
			Tags:             in.Tags,
		})
		if err != nil {
			LOGE(c, err, statusForError(err)).Error("Failed to create listing")
			return
		}

		LOG(c).WithField("listingId", listing.ID).Debug("Listing created")
		c.JSON(http.StatusCreated, response.ListingToResponse(listing))
	}
}

func (self *Server) onGetListings() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

		listings, err := self.manager.ListActiveListings(c.Request.Context(), limit, offset)
		if err != nil {
			LOGE(c, err, statusForError(err)).Error("Failed to list listings")
			return
		}

		c.JSON(http.StatusOK, response.ListingsToResponse(listings))
	}
}

func (self *Server) onGetListing() gin.HandlerFunc {
	return func(c *gin.Context) {
		listing, err := self.manager.GetListing(c.Request.Context(), c.Param("id"))
		if err != nil {
			LOGE(c, err, statusForError(err)).Warn("Failed to get listing")
			return
		}

		c.JSON(http.StatusOK, response.ListingToResponse(listing))
	}
}

func (self *Server) onBuyListing() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in = new(request.BuyListing)
		err := c.ShouldBindWith(in, binding.JSON)
		if err != nil {
			LOGE(c, err, http.StatusBadRequest).Error("Failed to parse request")
			return
		}

		listingId := c.Param("id")

		// No payment reference yet, answer with the requirements instead
		if in.TxRef == "" {
			listing, err := self.manager.GetListing(c.Request.Context(), listingId)
			if err != nil {
				LOGE(c, err, statusForError(err)).Warn("Failed to get listing for challenge")
				return
			}

			challenge, err := self.currency.CreateChallenge(c.Request.Context(), listing.PriceUSDC)
			if err != nil {
				LOGE(c, err, http.StatusInternalServerError).Error("Failed to create payment challenge")
				return
			}

			c.JSON(http.StatusPaymentRequired, challenge)
			return
		}

		listing, err := self.manager.BuyListing(c.Request.Context(), listingId, in.BuyerWallet, in.BuyerUsername, in.TxRef)
		if err != nil {
			LOGE(c, err, statusForError(err)).Warn("Failed to buy listing")
			return
		}

		LOG(c).WithField("listingId", listing.ID).
			WithField("buyer", in.BuyerWallet).
			Debug("Listing sold")
		c.JSON(http.StatusOK, response.ListingToResponse(listing))
	}
}

func (self *Server) onCancelListing() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in = new(request.CancelListing)
		err := c.ShouldBindWith(in, binding.JSON)
		if err != nil {
			LOGE(c, err, http.StatusBadRequest).Error("Failed to parse request")
			return
		}

		listing, err := self.manager.CancelListing(c.Request.Context(), c.Param("id"), in.RequesterWallet)
		if err != nil {
			LOGE(c, err, statusForError(err)).Warn("Failed to cancel listing")
			return
		}

		c.JSON(http.StatusOK, response.ListingToResponse(listing))
	}
}
