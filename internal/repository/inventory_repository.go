package repository

import (
	"context"

	"github.com/Mavimarmara/likeme-back-end-sub002/internal/domain/model"
)

// 在庫台帳。Product.quantityの更新は必ずここを通す。
// アプリ層でのread-modify-writeは禁止（条件付きUPDATEのみ）。
type InventoryRepository interface {
	// 在庫が足りるときだけ減算する。足りなければfalse。
	Reserve(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫戻し（キャンセル・削除時の補償）
	Release(ctx context.Context, productID int64, qty int64) error

	// 在庫の現在値を設定（管理者）
	SetStock(ctx context.Context, productID int64, newStock int64) error

	// 移動履歴作成
	CreateMovement(ctx context.Context, m model.StockMovement) error
}
