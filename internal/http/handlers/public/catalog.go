package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/stylefit-next/internal/http/response"
	"github.com/stylefit-next/internal/models"
	"github.com/stylefit-next/internal/service"

	"github.com/gin-gonic/gin"
)

// PublicProductView 公共商品响应结构
// DisplayImages 为按观看者解析后的图片，已登录且开通试穿的用户
// 会在有生成图时看到生成图，其余情况回退原图。
type PublicProductView struct {
	models.Product
	DisplayImages []string `json:"display_images"`
	HasGenerated  bool     `json:"has_generated"`
}

// GetCategories 获取分类列表
func (h *Handler) GetCategories(c *gin.Context) {
	categories, err := h.CategoryService.List()
	if err != nil {
		respondError(c, response.CodeInternal, "category fetch failed", err)
		return
	}

	response.Success(c, categories)
}

// GetCategoryBySlug 根据 slug 获取分类详情
func (h *Handler) GetCategoryBySlug(c *gin.Context) {
	category, err := h.CategoryService.GetBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "category not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "category fetch failed", err)
		return
	}

	response.Success(c, category)
}

// GetProducts 获取商品列表
func (h *Handler) GetProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	categoryID := c.Query("category_id")
	search := strings.TrimSpace(c.Query("search"))
	featured := c.Query("featured") == "true"

	products, total, err := h.ProductService.ListPublic(categoryID, search, featured, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}

	viewer := h.buildImageViewer(c)
	decorated := make([]PublicProductView, 0, len(products))
	for i := range products {
		decorated = append(decorated, h.decoratePublicProduct(c, &products[i], viewer, true))
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, decorated, pagination)
}

// GetProductBySlug 根据 slug 获取商品详情
func (h *Handler) GetProductBySlug(c *gin.Context) {
	slug := c.Param("slug")

	product, err := h.ProductService.GetPublicBySlug(slug)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}

	viewer := h.buildImageViewer(c)
	response.Success(c, h.decoratePublicProduct(c, product, viewer, false))
}

// buildImageViewer 从可选登录态构造图片观看者，游客返回零值。
func (h *Handler) buildImageViewer(c *gin.Context) service.ImageViewer {
	userID := getOptionalUserID(c)
	if userID == 0 {
		return service.ImageViewer{}
	}
	user, err := h.UserAuthService.GetUserByID(userID)
	if err != nil || user == nil {
		requestLog(c).Warnw("image_viewer_load_failed", "user_id", userID, "error", err)
		return service.ImageViewer{}
	}
	return service.ImageViewer{
		UserID:    user.ID,
		IsPremium: user.IsPremium,
		AIEnabled: user.AIEnabled,
	}
}

// coverOnly 列表页只解析首图，详情页解析全部图片。
func (h *Handler) decoratePublicProduct(c *gin.Context, product *models.Product, viewer service.ImageViewer, coverOnly bool) PublicProductView {
	item := PublicProductView{Product: *product}
	if len(product.Images) == 0 {
		item.DisplayImages = []string{}
		return item
	}

	limit := len(product.Images)
	if coverOnly && limit > 1 {
		limit = 1
	}

	display := make([]string, 0, len(product.Images))
	for i := 0; i < limit; i++ {
		resolved := h.ImageService.Resolve(c.Request.Context(), service.ResolveImageInput{
			OriginalURL:  product.Images[i],
			ProductID:    product.ID,
			TrialEnabled: product.TrialEnabled,
			Index:        i,
			Viewer:       viewer,
		})
		display = append(display, resolved.URL)
		if resolved.Generated {
			item.HasGenerated = true
		}
	}
	for i := limit; i < len(product.Images); i++ {
		display = append(display, product.Images[i])
	}
	item.DisplayImages = display
	return item
}
