package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/stylefit-next/internal/cache"
	"github.com/stylefit-next/internal/http/response"
	"github.com/stylefit-next/internal/repository"
	"github.com/stylefit-next/internal/service"

	"github.com/gin-gonic/gin"
)

// SetUserPremiumRequest 会员开通/回收请求
type SetUserPremiumRequest struct {
	Premium *bool `json:"premium" binding:"required"`
}

// SetUserPremiumByEmailRequest 按邮箱开通会员请求
type SetUserPremiumByEmailRequest struct {
	Email   string `json:"email" binding:"required"`
	Premium *bool  `json:"premium" binding:"required"`
}

// BatchUpdateUserStatusRequest 批量修改用户状态请求
type BatchUpdateUserStatusRequest struct {
	UserIDs []uint `json:"user_ids" binding:"required"`
	Status  string `json:"status" binding:"required"`
}

// GetAdminUsers 获取用户列表
func (h *Handler) GetAdminUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	keyword := strings.TrimSpace(c.Query("keyword"))
	status := strings.TrimSpace(c.Query("status"))
	onlyPremium := c.Query("premium") == "true"

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	users, total, err := h.UserAdminService.List(repository.UserListFilter{
		Page:        page,
		PageSize:    pageSize,
		Keyword:     keyword,
		Status:      status,
		OnlyPremium: onlyPremium,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "user fetch failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, users, pagination)
}

// GetAdminUser 获取用户详情
func (h *Handler) GetAdminUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.UserAdminService.GetByID(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "user not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "user fetch failed", err)
		return
	}

	response.Success(c, user)
}

// SetUserPremium 开通/回收指定用户会员
func (h *Handler) SetUserPremium(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req SetUserPremiumRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Premium == nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.UserAdminService.SetPremium(id, *req.Premium); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "user not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "user update failed", err)
		return
	}
	_ = cache.DelUserAuthState(c.Request.Context(), id)

	response.Success(c, gin.H{"premium": *req.Premium})
}

// SetUserPremiumByEmail 按邮箱开通/回收会员
func (h *Handler) SetUserPremiumByEmail(c *gin.Context) {
	var req SetUserPremiumByEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Premium == nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	user, err := h.UserAdminService.SetPremiumByEmail(req.Email, *req.Premium)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			respondError(c, response.CodeBadRequest, "invalid email", nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "user not found", nil)
		default:
			respondError(c, response.CodeInternal, "user update failed", err)
		}
		return
	}
	_ = cache.DelUserAuthState(c.Request.Context(), user.ID)

	response.Success(c, gin.H{
		"user_id": user.ID,
		"email":   user.Email,
		"premium": user.IsPremium,
	})
}

// BatchUpdateUserStatus 批量启用/禁用用户
func (h *Handler) BatchUpdateUserStatus(c *gin.Context) {
	var req BatchUpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.UserAdminService.BatchUpdateStatus(req.UserIDs, req.Status); err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondError(c, response.CodeBadRequest, "bad request", nil)
			return
		}
		respondError(c, response.CodeInternal, "user update failed", err)
		return
	}
	for _, userID := range req.UserIDs {
		_ = cache.DelUserAuthState(c.Request.Context(), userID)
	}

	response.Success(c, gin.H{"updated": len(req.UserIDs)})
}
