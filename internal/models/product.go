package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                      // 主键
	CategoryID   uint           `gorm:"not null;index" json:"category_id"`                         // 分类ID
	Slug         string         `gorm:"uniqueIndex;not null" json:"slug"`                          // 唯一标识
	Title        string         `gorm:"not null" json:"title"`                                     // 商品标题
	Description  string         `gorm:"type:text" json:"description"`                              // 商品描述
	PriceAmount  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_amount"` // 价格金额
	Stock        int            `gorm:"not null;default:0" json:"stock"`                           // 总库存（无尺码行时的扣减依据）
	Images       StringArray    `gorm:"type:json" json:"images"`                                   // 图片数组
	Sizes        StringArray    `gorm:"type:json" json:"sizes"`                                    // 可选尺码列表
	IsFeatured   bool           `gorm:"default:false;index" json:"is_featured"`                    // 是否首页推荐
	TrialEnabled bool           `gorm:"default:false;index" json:"trial_enabled"`                  // 是否支持免费试穿体验
	IsActive     bool           `gorm:"default:true;index" json:"is_active"`                       // 是否上架
	SortOrder    int            `gorm:"default:0;index" json:"sort_order"`                         // 排序权重
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt    time.Time      `json:"updated_at"`                                                // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	// 关联
	Category   Category    `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 分类信息
	SizeStocks []SizeStock `gorm:"foreignKey:ProductID" json:"size_stocks,omitempty"` // 分尺码库存
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// SizeFor 返回指定尺码的库存行，未配置时返回 nil
func (p *Product) SizeFor(size string) *SizeStock {
	if p == nil {
		return nil
	}
	for i := range p.SizeStocks {
		if p.SizeStocks[i].Size == size {
			return &p.SizeStocks[i]
		}
	}
	return nil
}

// AvailableStock 返回指定尺码的可用库存；无尺码行时回退到总库存
func (p *Product) AvailableStock(size string) int {
	if p == nil {
		return 0
	}
	if row := p.SizeFor(size); row != nil {
		return row.Quantity
	}
	return p.Stock
}
