package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// 前方向のみ。CANCELLEDと削除済みは終端。
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s != OrderStatusPending {
		return false
	}
	return next == OrderStatusCompleted || next == OrderStatusCancelled
}

func ToOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return OrderStatus(s), true
	}
	return "", false
}

type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodDebitCard  PaymentMethod = "debit_card"
	PaymentMethodPix        PaymentMethod = "pix"
	PaymentMethodBoleto     PaymentMethod = "boleto"
)

func ToPaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(s) {
	case PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodPix, PaymentMethodBoleto:
		return PaymentMethod(s), true
	}
	return "", false
}

// カード系はカード情報と請求先住所（構造化）が必須。
func (m PaymentMethod) RequiresCard() bool {
	return m == PaymentMethodCreditCard || m == PaymentMethodDebitCard
}

// 請求先住所。注文行に埋め込みで保存する（文字列連結では持たない）。
type BillingAddress struct {
	PostalCode string `gorm:"type:varchar(20)" json:"postal_code"`
	State      string `gorm:"type:varchar(100)" json:"state"`
	City       string `gorm:"type:varchar(255)" json:"city"`
	Line1      string `gorm:"type:varchar(255)" json:"line1"`
	Line2      string `gorm:"type:varchar(255)" json:"line2"`
	Name       string `gorm:"type:varchar(255)" json:"name"`
	Phone      string `gorm:"type:varchar(30)" json:"phone"`
}

func (a BillingAddress) Complete() bool {
	return a.PostalCode != "" && a.City != "" && a.Line1 != "" && a.Name != ""
}

// 不変条件: Total = Subtotal + ShippingCost + Tax
// （明細の値引きはSubtotalに織り込み済み）
type Order struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64           `gorm:"not null;index" json:"user_id"`
	Status         OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	ShippingCost   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"shipping_cost"`
	Tax            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"tax"`
	Total          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	PaymentMethod  PaymentMethod   `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentStatus  string          `gorm:"type:varchar(20)" json:"payment_status"`
	TransactionID  string          `gorm:"type:varchar(64)" json:"transaction_id"`
	TrackingNumber string          `gorm:"type:varchar(64)" json:"tracking_number"`
	BillingAddress BillingAddress  `gorm:"embedded;embeddedPrefix:billing_" json:"billing_address"`
	CreatedAt      time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}
