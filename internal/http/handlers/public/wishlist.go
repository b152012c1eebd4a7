package public

import (
	"errors"
	"strconv"

	"github.com/stylefit-next/internal/http/response"
	"github.com/stylefit-next/internal/service"

	"github.com/gin-gonic/gin"
)

// WishlistAddRequest 收藏请求
type WishlistAddRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// ListWishlist 获取收藏列表
func (h *Handler) ListWishlist(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	items, err := h.WishlistService.ListByUser(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "wishlist fetch failed", err)
		return
	}
	response.Success(c, gin.H{"items": items})
}

// AddWishlistItem 收藏商品
func (h *Handler) AddWishlistItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req WishlistAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.WishlistService.Add(uid, req.ProductID); err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotAvailable):
			respondError(c, response.CodeBadRequest, "product not available", nil)
		case errors.Is(err, service.ErrWishlistExists):
			respondError(c, response.CodeBadRequest, "already in wishlist", nil)
		default:
			respondError(c, response.CodeInternal, "wishlist update failed", err)
		}
		return
	}
	response.Success(c, gin.H{"added": true})
}

// ToggleWishlistItem 收藏/取消收藏切换
func (h *Handler) ToggleWishlistItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req WishlistAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	wished, err := h.WishlistService.Toggle(uid, req.ProductID)
	if err != nil {
		if errors.Is(err, service.ErrProductNotAvailable) {
			respondError(c, response.CodeBadRequest, "product not available", nil)
			return
		}
		respondError(c, response.CodeInternal, "wishlist update failed", err)
		return
	}
	response.Success(c, gin.H{"wished": wished})
}

// RemoveWishlistItem 取消收藏
func (h *Handler) RemoveWishlistItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "invalid product id", nil)
		return
	}

	if err := h.WishlistService.Remove(uid, uint(productID)); err != nil {
		respondError(c, response.CodeInternal, "wishlist update failed", err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
