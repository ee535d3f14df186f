package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductStatus string

const (
	ProductStatusActive     ProductStatus = "active"
	ProductStatusInactive   ProductStatus = "inactive"
	ProductStatusOutOfStock ProductStatus = "out_of_stock"
)

// Priceがnilの商品は外部URL連携（ローカル価格なし）。
// Quantityがnilの商品は在庫無制限（デジタル等）。
type Product struct {
	ID          int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string           `gorm:"type:varchar(255);not null" json:"name"`
	Description string           `gorm:"type:text" json:"description"`
	Price       *decimal.Decimal `gorm:"type:numeric(12,2)" json:"price"`
	Quantity    *int64           `json:"quantity"`
	Status      ProductStatus    `gorm:"type:varchar(20);not null;default:'inactive';index" json:"status"`
	ExternalURL *string          `gorm:"type:varchar(512);column:external_url" json:"external_url"`
	CreatedAt   time.Time        `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
}

// StockManagedはローカル在庫管理の対象かどうか。
// 外部URL商品と無制限在庫（Quantity=nil）は予約・戻しの対象外。
func (p Product) StockManaged() bool {
	return p.ExternalURL == nil && p.Quantity != nil
}
