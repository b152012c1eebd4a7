package models

import (
	"time"
)

// SizeStock 商品分尺码库存表
// 商品更新时整表重建（先删后插），不做差量合并
type SizeStock struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                                            // 主键
	ProductID uint      `gorm:"not null;index;uniqueIndex:idx_size_stock_product_size" json:"product_id"`        // 商品ID
	Size      string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_size_stock_product_size" json:"size"` // 尺码
	Quantity  int       `gorm:"not null;default:0" json:"quantity"`                                              // 该尺码库存量
	CreatedAt time.Time `json:"created_at"`                                                                      // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                                                      // 更新时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (SizeStock) TableName() string {
	return "size_stocks"
}
