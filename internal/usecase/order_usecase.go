package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Mavimarmara/likeme-back-end-sub002/internal/apperr"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/config"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/domain/model"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/events"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/logging"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/payment"
	repo "github.com/Mavimarmara/likeme-back-end-sub002/internal/repository"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// 注文ライフサイクル: PENDING -> COMPLETED / CANCELLED / 削除。
// 作成は 検証 -> 在庫予約 -> 決済 -> 永続化 の順で、途中で失敗したら
// それまでの予約を全部戻してから失敗を返す（補償は必須）。
type OrderUsecase struct {
	tx      repo.TransactionManager
	gateway payment.Gateway
	split   *payment.SplitRule
	pub     events.Publisher

	shippingFee decimal.Decimal
	taxRatePct  decimal.Decimal

	log *slog.Logger
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	gateway payment.Gateway,
	pub events.Publisher,
	cfg config.Config,
) *OrderUsecase {
	return &OrderUsecase{
		tx:          tx,
		gateway:     gateway,
		split:       payment.SplitRuleFromConfig(cfg.Split),
		pub:         pub,
		shippingFee: cfg.ShippingFee,
		taxRatePct:  cfg.TaxRatePct,
		log:         logging.New("order"),
	}
}

type CreateOrderInput struct {
	Items          []CartItemRequest
	PaymentMethod  string
	Card           *payment.CardData
	BillingAddress *model.BillingAddress
}

type UpdateOrderInput struct {
	Status         *string
	TrackingNumber *string
}

type OrderItemOutput struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
	LineTotal decimal.Decimal `json:"line_total"`
	Quantity  int64           `json:"quantity"`
}

type OrderOutput struct {
	ID             int64             `json:"id"`
	UserID         int64             `json:"user_id"`
	Status         string            `json:"status"`
	Subtotal       decimal.Decimal   `json:"subtotal"`
	ShippingCost   decimal.Decimal   `json:"shipping_cost"`
	Tax            decimal.Decimal   `json:"tax"`
	Total          decimal.Decimal   `json:"total"`
	PaymentMethod  string            `json:"payment_method"`
	PaymentStatus  string            `json:"payment_status"`
	TrackingNumber string            `json:"tracking_number,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	Items          []OrderItemOutput `json:"items"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type ValidCartItemOutput struct {
	ProductID         int64            `json:"product_id"`
	Name              string           `json:"name"`
	UnitPrice         *decimal.Decimal `json:"unit_price"`
	Quantity          int64            `json:"quantity"`
	AvailableQuantity *int64           `json:"available_quantity,omitempty"`
}

type CartValidationOutput struct {
	ValidItems   []ValidCartItemOutput `json:"valid_items"`
	InvalidItems []InvalidCartItem     `json:"invalid_items"`
}

type reservation struct {
	productID int64
	quantity  int64
}

func (u *OrderUsecase) CreateOrder(ctx context.Context, userID int64, in CreateOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, apperr.Unauthorized("unauthorized")
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, apperr.Validation("items are required")
	}
	method, ok := model.ToPaymentMethod(in.PaymentMethod)
	if !ok {
		return OrderOutput{}, apperr.Validation("invalid payment_method")
	}
	//カード系はカード情報と構造化された請求先住所が必須
	if method.RequiresCard() {
		if in.Card == nil {
			return OrderOutput{}, apperr.Validation("card_data is required for card payments")
		}
		if in.BillingAddress == nil || !in.BillingAddress.Complete() {
			return OrderOutput{}, apperr.Validation("billing_address is required for card payments")
		}
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//ユーザーの存在・有効チェック
		user, err := r.Users().FindByID(ctx, userID)
		if err != nil {
			return apperr.Unexpected(err)
		}
		if user == nil {
			return apperr.NotFound("user not found")
		}
		if !user.IsActive {
			return apperr.Forbidden("user is inactive")
		}

		//1件でも無効なら注文全体を拒否（部分注文は作らない）
		valid, invalid, err := ValidateCartItems(ctx, r.Products(), in.Items)
		if err != nil {
			return err
		}
		if len(invalid) > 0 {
			return apperr.Validation("cart contains invalid items").WithDetails(invalid)
		}

		//在庫予約。1つでも失敗したら予約済み分を全部戻す。
		var reserved []reservation
		for _, it := range valid {
			if !it.Product.StockManaged() {
				continue
			}
			ok, err := r.Inventory().Reserve(ctx, it.Product.ID, it.Quantity)
			if err != nil {
				u.releaseAll(ctx, r, reserved)
				return apperr.Unexpected(err)
			}
			if !ok {
				u.releaseAll(ctx, r, reserved)
				return apperr.InsufficientStock(fmt.Sprintf("insufficient stock for product %d", it.Product.ID))
			}
			reserved = append(reserved, reservation{productID: it.Product.ID, quantity: it.Quantity})
		}

		agg := BuildOrderAggregate(valid, u.shippingFee, u.taxRatePct)

		//決済。金額は送信直前だけ2桁に丸める。
		//失敗したら（タイムアウト含む）予約を戻してから返す。
		res, err := u.gateway.Charge(ctx, payment.ChargeRequest{
			Amount: agg.Total.Round(2),
			Method: string(method),
			Card:   in.Card,
			Split:  u.split,
		})
		if err != nil {
			u.releaseAll(ctx, r, reserved)
			return apperr.Wrap(apperr.KindPayment, "payment failed", err)
		}
		if res.Status != payment.StatusAuthorized {
			u.releaseAll(ctx, r, reserved)
			return apperr.Payment("payment refused")
		}

		//注文と明細は同一トランザクションでまとめて永続化
		order := model.Order{
			UserID:        userID,
			Status:        model.OrderStatusPending,
			Subtotal:      agg.Subtotal,
			ShippingCost:  agg.ShippingCost,
			Tax:           agg.Tax,
			Total:         agg.Total,
			PaymentMethod: method,
			PaymentStatus: res.Status,
			TransactionID: res.TransactionID,
		}
		if in.BillingAddress != nil {
			order.BillingAddress = *in.BillingAddress
		}

		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			u.releaseAll(ctx, r, reserved)
			return apperr.Unexpected(err)
		}

		items := lo.Map(agg.Items, func(it PricedItem, _ int) model.OrderItem {
			return model.OrderItem{
				OrderID:             orderID,
				ProductID:           it.Product.ID,
				ProductNameSnapshot: it.Product.Name,
				UnitPrice:           it.UnitPrice,
				Discount:            it.Discount,
				LineTotal:           it.LineTotal,
				Quantity:            it.Quantity,
			}
		})
		if err := r.OrderItems().CreateBulk(ctx, orderID, items); err != nil {
			u.releaseAll(ctx, r, reserved)
			return apperr.Unexpected(err)
		}

		//台帳履歴
		for _, rv := range reserved {
			mv := model.StockMovement{
				ProductID: rv.productID,
				OrderID:   &orderID,
				Kind:      model.StockMovementReserve,
				Quantity:  rv.quantity,
				Reason:    "order created",
			}
			if err := r.Inventory().CreateMovement(ctx, mv); err != nil {
				u.releaseAll(ctx, r, reserved)
				return apperr.Unexpected(err)
			}
		}

		order.ID = orderID
		out = toOrderOutput(order, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.publish(ctx, events.TypeOrderCreated, out)
	return out, nil
}

func (u *OrderUsecase) GetOrder(ctx context.Context, userID int64, role model.Role, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, apperr.Validation("invalid order id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := u.findOwned(ctx, r, userID, role, orderID)
		if err != nil {
			return err
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return apperr.Unexpected(err)
		}

		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) ListOrders(ctx context.Context, userID int64, page int, limit int) (OrderListOutput, error) {
	if page < 1 {
		return OrderListOutput{}, apperr.Validation("invalid page")
	}
	if limit < 1 || limit > 100 {
		return OrderListOutput{}, apperr.Validation("invalid limit")
	}

	var out OrderListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return apperr.Unexpected(err)
		}

		outs := make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return apperr.Unexpected(err)
			}
			outs = append(outs, toOrderOutput(o, items))
		}

		out = OrderListOutput{Items: outs, Total: total, Page: page, Limit: limit}
		return nil
	})
	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

// UpdateOrderはstatusと配送系フィールドの変更。在庫の再検証はしない。
func (u *OrderUsecase) UpdateOrder(ctx context.Context, userID int64, role model.Role, orderID int64, in UpdateOrderInput) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, apperr.Validation("invalid order id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := u.findOwned(ctx, r, userID, role, orderID)
		if err != nil {
			return err
		}

		if in.Status != nil {
			st, ok := model.ToOrderStatus(*in.Status)
			if !ok {
				return apperr.Validation("invalid status")
			}
			if st != o.Status && !o.Status.CanTransitionTo(st) {
				return apperr.Validation(fmt.Sprintf("cannot transition from %s to %s", o.Status, st))
			}
			o.Status = st
		}
		if in.TrackingNumber != nil {
			o.TrackingNumber = *in.TrackingNumber
		}

		if err := r.Orders().Update(ctx, o); err != nil {
			if err == repo.ErrNotFound {
				return apperr.NotFound("order not found")
			}
			return apperr.Unexpected(err)
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return apperr.Unexpected(err)
		}

		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// CancelOrderは在庫を明細ぶん戻してからCANCELLEDにする。
// 既にキャンセル済みなら409。PENDING以外からは遷移できない。
func (u *OrderUsecase) CancelOrder(ctx context.Context, userID int64, role model.Role, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, apperr.Validation("invalid order id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := u.findOwned(ctx, r, userID, role, orderID)
		if err != nil {
			return err
		}

		if o.Status == model.OrderStatusCancelled {
			return apperr.Conflict("order already cancelled")
		}
		if !o.Status.CanTransitionTo(model.OrderStatusCancelled) {
			return apperr.Validation(fmt.Sprintf("cannot transition from %s to %s", o.Status, model.OrderStatusCancelled))
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return apperr.Unexpected(err)
		}

		if err := u.restoreStock(ctx, r, orderID, items, "order cancelled"); err != nil {
			return err
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCancelled); err != nil {
			return apperr.Unexpected(err)
		}

		o.Status = model.OrderStatusCancelled
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.publish(ctx, events.TypeOrderCancelled, out)
	return out, nil
}

// DeleteOrderはsoft delete。restoreStock=trueのときだけ在庫を戻す
// （削除はキャンセルではないので既定では戻さない）。
func (u *OrderUsecase) DeleteOrder(ctx context.Context, userID int64, role model.Role, orderID int64, restoreStock bool) error {
	if orderID <= 0 {
		return apperr.Validation("invalid order id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := u.findOwned(ctx, r, userID, role, orderID)
		if err != nil {
			return err
		}

		//キャンセル済みは在庫が戻っているので二重に戻さない
		if restoreStock && o.Status != model.OrderStatusCancelled {
			items, err := r.OrderItems().ListByOrderID(ctx, orderID)
			if err != nil {
				return apperr.Unexpected(err)
			}
			if err := u.restoreStock(ctx, r, orderID, items, "order deleted"); err != nil {
				return err
			}
		}

		if err := r.Orders().SoftDelete(ctx, orderID); err != nil {
			if err == repo.ErrNotFound {
				return apperr.NotFound("order not found")
			}
			return apperr.Unexpected(err)
		}
		return nil
	})
}

// ValidateCartは読み取りのみ。在庫は一切変更しない。
func (u *OrderUsecase) ValidateCart(ctx context.Context, items []CartItemRequest) (CartValidationOutput, error) {
	if len(items) == 0 {
		return CartValidationOutput{}, apperr.Validation("items are required")
	}

	var out CartValidationOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		valid, invalid, err := ValidateCartItems(ctx, r.Products(), items)
		if err != nil {
			return err
		}

		out = CartValidationOutput{
			ValidItems: lo.Map(valid, func(it ValidCartItem, _ int) ValidCartItemOutput {
				return ValidCartItemOutput{
					ProductID:         it.Product.ID,
					Name:              it.Product.Name,
					UnitPrice:         it.Product.Price,
					Quantity:          it.Quantity,
					AvailableQuantity: it.Product.Quantity,
				}
			}),
			InvalidItems: invalid,
		}
		return nil
	})
	if err != nil {
		return CartValidationOutput{}, err
	}
	return out, nil
}

// findOwnedは注文の取得と所有チェック。
// 存在しない→404、他人の注文（非ADMIN）→403。
func (u *OrderUsecase) findOwned(ctx context.Context, r repo.TxRepos, userID int64, role model.Role, orderID int64) (model.Order, error) {
	o, err := r.Orders().FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return model.Order{}, apperr.NotFound("order not found")
	}
	if err != nil {
		return model.Order{}, apperr.Unexpected(err)
	}
	if o.UserID != userID && role != model.RoleAdmin {
		return model.Order{}, apperr.Forbidden("not allowed")
	}
	return o, nil
}

// releaseAllは予約済みの在庫を全部戻す（補償）。
func (u *OrderUsecase) releaseAll(ctx context.Context, r repo.TxRepos, reserved []reservation) {
	for _, rv := range reserved {
		if err := r.Inventory().Release(ctx, rv.productID, rv.quantity); err != nil {
			u.log.Error("release reservation failed",
				"product_id", rv.productID, "quantity", rv.quantity, "error", err)
		}
	}
}

// restoreStockはキャンセル・削除時の在庫戻し。
// 在庫管理対象外（外部URL・無制限）や削除済み商品はスキップ。
func (u *OrderUsecase) restoreStock(ctx context.Context, r repo.TxRepos, orderID int64, items []model.OrderItem, reason string) error {
	for _, it := range items {
		p, err := r.Products().FindByID(ctx, it.ProductID)
		if err == repo.ErrNotFound {
			continue
		}
		if err != nil {
			return apperr.Unexpected(err)
		}
		if !p.StockManaged() {
			continue
		}

		if err := r.Inventory().Release(ctx, it.ProductID, it.Quantity); err != nil {
			return apperr.Unexpected(err)
		}

		oid := orderID
		mv := model.StockMovement{
			ProductID: it.ProductID,
			OrderID:   &oid,
			Kind:      model.StockMovementRelease,
			Quantity:  it.Quantity,
			Reason:    reason,
		}
		if err := r.Inventory().CreateMovement(ctx, mv); err != nil {
			return apperr.Unexpected(err)
		}
	}
	return nil
}

func (u *OrderUsecase) publish(ctx context.Context, eventType string, o OrderOutput) {
	ev := events.OrderEvent{
		Type:       eventType,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Total:      o.Total,
		OccurredAt: time.Now(),
	}
	//イベント発行の失敗で注文処理は失敗させない
	if err := u.pub.PublishOrderEvent(ctx, ev); err != nil {
		u.log.Warn("publish order event failed", "type", eventType, "order_id", o.ID, "error", err)
	}
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := lo.Map(items, func(it model.OrderItem, _ int) OrderItemOutput {
		return OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			UnitPrice: it.UnitPrice,
			Discount:  it.Discount,
			LineTotal: it.LineTotal,
			Quantity:  it.Quantity,
		}
	})

	return OrderOutput{
		ID:             o.ID,
		UserID:         o.UserID,
		Status:         string(o.Status),
		Subtotal:       o.Subtotal,
		ShippingCost:   o.ShippingCost,
		Tax:            o.Tax,
		Total:          o.Total,
		PaymentMethod:  string(o.PaymentMethod),
		PaymentStatus:  o.PaymentStatus,
		TrackingNumber: o.TrackingNumber,
		CreatedAt:      o.CreatedAt,
		Items:          outItems,
	}
}
