package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Mavimarmara/likeme-back-end-sub002/internal/apperr"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/domain/model"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/logging"
	repo "github.com/Mavimarmara/likeme-back-end-sub002/internal/repository"
)

// 管理者向けの注文横断操作。一般ユーザーの注文操作はOrderUsecase側。
type AdminOrderUsecase struct {
	orders repo.OrderRepository
	items  repo.OrderItemRepository
	audit  repo.AuditLogRepository
	log    *slog.Logger
}

func NewAdminOrderUsecase(orders repo.OrderRepository, items repo.OrderItemRepository, audit repo.AuditLogRepository) *AdminOrderUsecase {
	return &AdminOrderUsecase{
		orders: orders,
		items:  items,
		audit:  audit,
		log:    logging.New("admin_order"),
	}
}

type AdminOrderListInput struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

func (u *AdminOrderUsecase) ListOrders(ctx context.Context, in AdminOrderListInput) (OrderListOutput, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 50
	}
	if in.Status != "" {
		if _, ok := model.ToOrderStatus(in.Status); !ok {
			return OrderListOutput{}, apperr.Validation("invalid status")
		}
	}

	orders, total, err := u.orders.ListAdmin(ctx, repo.AdminOrderListFilter{
		Page:   in.Page,
		Limit:  in.Limit,
		Status: in.Status,
		UserID: in.UserID,
		From:   in.From,
		To:     in.To,
	})
	if err != nil {
		return OrderListOutput{}, apperr.Unexpected(err)
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		items, err := u.items.ListByOrderID(ctx, o.ID)
		if err != nil {
			return OrderListOutput{}, apperr.Unexpected(err)
		}
		outs = append(outs, toOrderOutput(o, items))
	}

	return OrderListOutput{Items: outs, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

// UpdateStatusは遷移チェック付きのstatus変更＋監査ログ。
// 在庫の戻しは伴わない（それはキャンセルAPIの仕事）。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorUserID int64, orderID int64, status string) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, apperr.Validation("invalid order id")
	}
	st, ok := model.ToOrderStatus(status)
	if !ok {
		return OrderOutput{}, apperr.Validation("invalid status")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return OrderOutput{}, apperr.NotFound("order not found")
	}
	if err != nil {
		return OrderOutput{}, apperr.Unexpected(err)
	}

	if st != o.Status && !o.Status.CanTransitionTo(st) {
		return OrderOutput{}, apperr.Validation(fmt.Sprintf("cannot transition from %s to %s", o.Status, st))
	}

	before := o.Status

	if err := u.orders.UpdateStatus(ctx, orderID, st); err != nil {
		return OrderOutput{}, apperr.Unexpected(err)
	}

	u.writeAudit(ctx, actorUserID, orderID, before, st)

	o.Status = st
	items, err := u.items.ListByOrderID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, apperr.Unexpected(err)
	}
	return toOrderOutput(o, items), nil
}

func (u *AdminOrderUsecase) writeAudit(ctx context.Context, actorUserID int64, orderID int64, before model.OrderStatus, after model.OrderStatus) {
	beforeJSON, _ := json.Marshal(map[string]any{"status": before})
	afterJSON, _ := json.Marshal(map[string]any{"status": after})

	log := model.AuditLog{
		ActorUserID:  actorUserID,
		Action:       model.AuditActionUpdateOrderStatus,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   orderID,
		BeforeJSON:   string(beforeJSON),
		AfterJSON:    string(afterJSON),
	}
	if err := u.audit.Create(ctx, log); err != nil {
		u.log.Warn("write audit log failed", "order_id", orderID, "error", err)
	}
}
