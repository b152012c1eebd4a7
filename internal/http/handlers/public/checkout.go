package public

import (
	"errors"

	"github.com/stylefit-next/internal/http/response"
	"github.com/stylefit-next/internal/models"
	"github.com/stylefit-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateCheckoutRequest 发起结账请求
type CreateCheckoutRequest struct {
	ShippingAddress models.JSON `json:"shipping_address"`
}

// CreateCheckoutSession 购物车转订单并创建收银台会话
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	result, err := h.CheckoutService.CreateSession(c.Request.Context(), uid, req.ShippingAddress)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCartEmpty):
			respondError(c, response.CodeBadRequest, "cart is empty", nil)
		case errors.Is(err, service.ErrProductNotAvailable):
			respondError(c, response.CodeBadRequest, "product not available", nil)
		case errors.Is(err, service.ErrInsufficientStock):
			respondError(c, response.CodeBadRequest, "insufficient stock", nil)
		case errors.Is(err, service.ErrPaymentSession):
			respondError(c, response.CodeInternal, "payment session create failed", err)
		default:
			respondError(c, response.CodeInternal, "checkout failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"order":        result.Order,
		"checkout_url": result.CheckoutURL,
	})
}
