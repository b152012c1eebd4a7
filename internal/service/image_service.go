package service

import (
	"context"
	"fmt"
	"time"

	"github.com/stylefit-next/internal/cache"
	"github.com/stylefit-next/internal/constants"
	"github.com/stylefit-next/internal/logger"
	"github.com/stylefit-next/internal/media"
)

// MediaResolver 图床资源点查
type MediaResolver interface {
	GetResource(ctx context.Context, publicID string) (*media.Resource, error)
}

// ImageViewer 图片解析视角
type ImageViewer struct {
	UserID    uint
	IsPremium bool
	AIEnabled bool
}

// ResolveImageInput 图片解析输入
type ResolveImageInput struct {
	OriginalURL  string
	ProductID    uint
	TrialEnabled bool
	Index        int
	Viewer       ImageViewer
}

// ResolvedImage 图片解析结果
type ResolvedImage struct {
	URL       string `json:"url"`
	Generated bool   `json:"generated"`
}

// ImageService 商品图与个性化试穿图之间的选择
type ImageService struct {
	resolver MediaResolver
	cacheTTL time.Duration
}

// NewImageService 创建图片解析服务
func NewImageService(resolver MediaResolver, cacheTTLSeconds int) *ImageService {
	ttl := time.Duration(cacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ImageService{resolver: resolver, cacheTTL: ttl}
}

// Resolve 返回应展示的图片地址。
// 匿名访客一律看原图；会员用户、或开了 AI 且商品支持试穿的用户，
// 先查个性化生成图，查不到回退原图。查询失败只降级不报错。
func (s *ImageService) Resolve(ctx context.Context, input ResolveImageInput) ResolvedImage {
	original := ResolvedImage{URL: input.OriginalURL}
	if input.Viewer.UserID == 0 {
		return original
	}
	eligible := input.Viewer.IsPremium ||
		(input.Viewer.AIEnabled && input.TrialEnabled)
	if !eligible {
		return original
	}
	if s.resolver == nil {
		return original
	}

	if url, hit := s.cachedLookup(ctx, input.Viewer.UserID, input.ProductID, input.Index); hit {
		if url == "" {
			return original
		}
		return ResolvedImage{URL: url, Generated: true}
	}

	publicID := media.TryOnPublicID(constants.TryOnImageFolder, input.Viewer.UserID, input.ProductID, input.Index)
	resource, err := s.resolver.GetResource(ctx, publicID)
	if err != nil {
		logger.Warnw("tryon_image_lookup_failed",
			"public_id", publicID,
			"user_id", input.Viewer.UserID,
			"product_id", input.ProductID,
			"error", err.Error())
		return original
	}
	if resource == nil {
		// 未生成是常态，负结果也缓存
		s.storeLookup(ctx, input.Viewer.UserID, input.ProductID, input.Index, "")
		return original
	}
	s.storeLookup(ctx, input.Viewer.UserID, input.ProductID, input.Index, resource.SecureURL)
	return ResolvedImage{URL: resource.SecureURL, Generated: true}
}

type tryOnLookupEntry struct {
	URL string `json:"url"`
}

func tryOnLookupKey(userID, productID uint, index int) string {
	return fmt.Sprintf("tryon:lookup:%d:%d:%d", userID, productID, index)
}

func (s *ImageService) cachedLookup(ctx context.Context, userID, productID uint, index int) (string, bool) {
	var entry tryOnLookupEntry
	hit, err := cache.GetJSON(ctx, tryOnLookupKey(userID, productID, index), &entry)
	if err != nil {
		logger.Warnw("tryon_lookup_cache_read_failed", "user_id", userID, "product_id", productID, "error", err.Error())
		return "", false
	}
	if !hit {
		return "", false
	}
	return entry.URL, true
}

func (s *ImageService) storeLookup(ctx context.Context, userID, productID uint, index int, url string) {
	if err := cache.SetJSON(ctx, tryOnLookupKey(userID, productID, index), tryOnLookupEntry{URL: url}, s.cacheTTL); err != nil {
		logger.Warnw("tryon_lookup_cache_write_failed", "user_id", userID, "product_id", productID, "error", err.Error())
	}
}

// InvalidateLookup 生成请求提交后清理旧的查询缓存
func (s *ImageService) InvalidateLookup(ctx context.Context, userID, productID uint, maxIndex int) {
	for index := 0; index <= maxIndex; index++ {
		if err := cache.Del(ctx, tryOnLookupKey(userID, productID, index)); err != nil {
			logger.Warnw("tryon_lookup_cache_del_failed", "user_id", userID, "product_id", productID, "error", err.Error())
		}
	}
}
