package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeOrderCreated   = "order.created"
	TypeOrderCancelled = "order.cancelled"
)

type OrderEvent struct {
	Type       string          `json:"type"`
	OrderID    int64           `json:"order_id"`
	UserID     int64           `json:"user_id"`
	Total      decimal.Decimal `json:"total"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// 注文イベントの発行。失敗しても注文処理は失敗させない（ログのみ）。
type Publisher interface {
	PublishOrderEvent(ctx context.Context, ev OrderEvent) error
}

// ブローカー未設定時のno-op実装
type NopPublisher struct{}

func (NopPublisher) PublishOrderEvent(ctx context.Context, ev OrderEvent) error {
	return nil
}
