package model

import "time"

type StockMovementKind string

const (
	//注文による在庫予約（減算）
	StockMovementReserve StockMovementKind = "RESERVE"
	//キャンセル・削除による在庫戻し（加算）
	StockMovementRelease StockMovementKind = "RELEASE"
	//管理者による在庫設定
	StockMovementRestock StockMovementKind = "RESTOCK"
)

// 在庫台帳の移動履歴
type StockMovement struct {
	ID          int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64             `gorm:"not null;index" json:"product_id"`
	OrderID     *int64            `gorm:"index" json:"order_id"`
	ActorUserID *int64            `gorm:"index" json:"actor_user_id"`
	Kind        StockMovementKind `gorm:"type:varchar(20);not null;index" json:"kind"`
	Quantity    int64             `gorm:"not null" json:"quantity"`
	Reason      string            `gorm:"type:varchar(255)" json:"reason"`
	CreatedAt   time.Time         `gorm:"not null;autoCreateTime" json:"created_at"`
}
