package market

import (
	"net/http"

	"github.com/gemtrade/marketplace/src/market/request"
	"github.com/gemtrade/marketplace/src/market/response"
	. "github.com/gemtrade/marketplace/src/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func (self *Server) onGetTiers() gin.HandlerFunc {
	return func(c *gin.Context) {
		tiers, err := self.engine.Tiers().List(c.Request.Context())
		if err != nil {
			LOGE(c, err, http.StatusInternalServerError).Error("Failed to list mystery box tiers")
			return
		}

		c.JSON(http.StatusOK, response.TiersToResponse(tiers))
	}
}

func (self *Server) onPurchaseBox() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in = new(request.PurchaseBox)
		err := c.ShouldBindWith(in, binding.JSON)
		if err != nil {
			LOGE(c, err, http.StatusBadRequest).Error("Failed to parse request")
			return
		}

		tierId := c.Param("tierId")

		if in.TxRef == "" {
			tier, err := self.engine.Tiers().Get(c.Request.Context(), tierId)
			if err != nil {
				LOGE(c, err, statusForError(err)).Warn("Failed to get tier for challenge")
				return
			}

			challenge, err := self.currency.CreateChallenge(c.Request.Context(), tier.PriceUSDC)
			if err != nil {
				LOGE(c, err, http.StatusInternalServerError).Error("Failed to create payment challenge")
				return
			}

			c.JSON(http.StatusPaymentRequired, challenge)
			return
		}

		result, err := self.engine.Purchase(c.Request.Context(), tierId, in.BuyerWallet, in.BuyerUsername, in.TxRef)
		if err != nil {
			LOGE(c, err, statusForError(err)).Warn("Failed to purchase mystery box")
			return
		}

		LOG(c).WithField("tierId", tierId).
			WithField("rarity", result.Item.Rarity).
			Debug("Mystery box opened")
		c.JSON(http.StatusOK, &response.PurchaseBox{
			TierId: tierId,
			TxHash: result.TxHash,
			Item:   result.Item,
		})
	}
}

func (self *Server) onPaymentChallenge() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in = new(request.PaymentChallenge)
		err := c.ShouldBindWith(in, binding.JSON)
		if err != nil {
			LOGE(c, err, http.StatusBadRequest).Error("Failed to parse request")
			return
		}

		if in.AmountUSDC <= 0 {
			LOGE(c, nil, http.StatusBadRequest).Error("Challenge amount must be positive")
			return
		}

		challenge, err := self.currency.CreateChallenge(c.Request.Context(), in.AmountUSDC)
		if err != nil {
			LOGE(c, err, http.StatusInternalServerError).Error("Failed to create payment challenge")
			return
		}

		c.JSON(http.StatusOK, challenge)
	}
}

// Lets clients discover which payment scheme and network to pay on
// before requesting a challenge
func (self *Server) onSupportedPayments() gin.HandlerFunc {
	return func(c *gin.Context) {
		kinds, err := self.currency.Supported(c.Request.Context())
		if err != nil {
			LOGE(c, err, http.StatusBadGateway).Error("Failed to fetch supported payment kinds")
			return
		}

		c.JSON(http.StatusOK, gin.H{"kinds": kinds})
	}
}
