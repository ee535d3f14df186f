package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細。UnitPriceは注文時点のコピー（スナップショット）で、
// 以後の商品価格変更の影響を受けない。
type OrderItem struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64           `gorm:"not null;index" json:"order_id"`
	ProductID           int64           `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string          `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	UnitPrice           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Discount            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount"`
	LineTotal           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"line_total"`
	Quantity            int64           `gorm:"not null" json:"quantity"`
	CreatedAt           time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
