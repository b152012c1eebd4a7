package cache

import (
	"context"
	"fmt"
	"time"
)

const cartSummaryCacheTTL = 60 * time.Second

// CartSummary 购物车角标快照
type CartSummary struct {
	UserID    uint  `json:"user_id"`
	Lines     int64 `json:"lines"`
	Quantity  int64 `json:"quantity"`
	UpdatedAt int64 `json:"updated_at"`
}

func cartSummaryKey(userID uint) string {
	return fmt.Sprintf("cart:summary:%d", userID)
}

// GetCartSummary 获取购物车角标快照
func GetCartSummary(ctx context.Context, userID uint) (*CartSummary, bool, error) {
	if userID == 0 {
		return nil, false, nil
	}
	var summary CartSummary
	hit, err := GetJSON(ctx, cartSummaryKey(userID), &summary)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &summary, true, nil
}

// SetCartSummary 写入购物车角标快照
func SetCartSummary(ctx context.Context, summary *CartSummary) error {
	if summary == nil || summary.UserID == 0 {
		return nil
	}
	return SetJSON(ctx, cartSummaryKey(summary.UserID), summary, cartSummaryCacheTTL)
}

// DelCartSummary 购物车变更后删除角标快照
func DelCartSummary(ctx context.Context, userID uint) error {
	if userID == 0 {
		return nil
	}
	return Del(ctx, cartSummaryKey(userID))
}
