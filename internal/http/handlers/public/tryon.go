package public

import (
	"errors"

	"github.com/stylefit-next/internal/http/response"
	"github.com/stylefit-next/internal/service"

	"github.com/gin-gonic/gin"
)

// TryOnGenerateRequest 生成试穿图请求
type TryOnGenerateRequest struct {
	ProductIDs     []uint `json:"product_ids" binding:"required"`
	PersonImageURL string `json:"person_image_url"`
}

// EnableTryOnTrial 开通一次性试穿体验
func (h *Handler) EnableTryOnTrial(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	if err := h.TryOnService.EnableTrial(uid); err != nil {
		switch {
		case errors.Is(err, service.ErrTrialNotAvailable):
			respondError(c, response.CodeBadRequest, "trial not available", nil)
		case errors.Is(err, service.ErrTrialAlreadyUsed):
			respondError(c, response.CodeBadRequest, "trial already used", nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "user not found", nil)
		default:
			respondError(c, response.CodeInternal, "enable trial failed", err)
		}
		return
	}
	response.Success(c, gin.H{"ai_enabled": true})
}

// RequestTryOnGeneration 请求异步生成试穿图
func (h *Handler) RequestTryOnGeneration(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req TryOnGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if len(req.ProductIDs) == 0 {
		respondError(c, response.CodeBadRequest, "no products selected", nil)
		return
	}

	if err := h.TryOnService.RequestGeneration(uid, req.ProductIDs, req.PersonImageURL); err != nil {
		switch {
		case errors.Is(err, service.ErrAIPermissionDenied):
			respondError(c, response.CodeForbidden, "try-on not enabled", nil)
		case errors.Is(err, service.ErrTrialAlreadyUsed):
			respondError(c, response.CodeBadRequest, "trial already used", nil)
		case errors.Is(err, service.ErrTrialNotAvailable):
			respondError(c, response.CodeBadRequest, "product not eligible for trial", nil)
		case errors.Is(err, service.ErrPersonImageMissing):
			respondError(c, response.CodeBadRequest, "person image required", nil)
		case errors.Is(err, service.ErrProductNotAvailable):
			respondError(c, response.CodeBadRequest, "product not available", nil)
		case errors.Is(err, service.ErrTryOnUnavailable):
			respondError(c, response.CodeInternal, "try-on service unavailable", err)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "user not found", nil)
		default:
			respondError(c, response.CodeInternal, "try-on request failed", err)
		}
		return
	}
	response.Success(c, gin.H{"queued": true})
}
