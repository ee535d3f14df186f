package usecase

import (
	"context"

	"github.com/Mavimarmara/likeme-back-end-sub002/internal/apperr"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/domain/model"
	repo "github.com/Mavimarmara/likeme-back-end-sub002/internal/repository"
	"github.com/shopspring/decimal"
)

// 無効理由。複数該当する場合はこの並び順の先勝ち。
const (
	ReasonNotFound          = "not_found"
	ReasonInactive          = "inactive"
	ReasonExternalURL       = "external_url"
	ReasonNoPrice           = "no_price"
	ReasonOutOfStock        = "out_of_stock"
	ReasonInsufficientStock = "insufficient_stock"
)

type CartItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
	//任意の明細値引き（未指定は0）
	Discount decimal.Decimal `json:"discount"`
}

type ValidCartItem struct {
	Product  model.Product
	Quantity int64
	Discount decimal.Decimal
}

type InvalidCartItem struct {
	ProductID         int64  `json:"product_id"`
	Reason            string `json:"reason"`
	RequestedQuantity int64  `json:"requested_quantity"`
	AvailableQuantity *int64 `json:"available_quantity,omitempty"`
}

// ValidateCartItemsは各明細を現在の商品状態に対して分類する。
// 読むだけで在庫は一切減らさない（副作用なし）。
func ValidateCartItems(ctx context.Context, products repo.ProductRepository, items []CartItemRequest) ([]ValidCartItem, []InvalidCartItem, error) {
	valid := make([]ValidCartItem, 0, len(items))
	invalid := make([]InvalidCartItem, 0)

	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, nil, apperr.Validation("quantity must be > 0")
		}
		if it.Discount.IsNegative() {
			return nil, nil, apperr.Validation("discount must be >= 0")
		}
		//セント未満の値引きは永続化後にTotal=Subtotal+Shipping+Taxが崩れる
		if !centPrecision(it.Discount) {
			return nil, nil, apperr.Validation("discount must have at most 2 decimal places")
		}

		p, err := products.FindByID(ctx, it.ProductID)
		if err == repo.ErrNotFound {
			invalid = append(invalid, InvalidCartItem{
				ProductID:         it.ProductID,
				Reason:            ReasonNotFound,
				RequestedQuantity: it.Quantity,
			})
			continue
		}
		if err != nil {
			return nil, nil, apperr.Unexpected(err)
		}

		if reason, avail := classify(p, it.Quantity); reason != "" {
			invalid = append(invalid, InvalidCartItem{
				ProductID:         it.ProductID,
				Reason:            reason,
				RequestedQuantity: it.Quantity,
				AvailableQuantity: avail,
			})
			continue
		}

		valid = append(valid, ValidCartItem{
			Product:  p,
			Quantity: it.Quantity,
			Discount: it.Discount,
		})
	}

	return valid, invalid, nil
}

// classifyは1明細の無効理由を返す。有効なら空文字。
func classify(p model.Product, requested int64) (string, *int64) {
	if p.Status != model.ProductStatusActive {
		return ReasonInactive, nil
	}
	if p.ExternalURL != nil {
		return ReasonExternalURL, nil
	}
	if p.Price == nil {
		return ReasonNoPrice, nil
	}
	//Quantity=nilは無制限在庫（常に購入可能）
	if p.Quantity != nil {
		if *p.Quantity == 0 {
			return ReasonOutOfStock, p.Quantity
		}
		if *p.Quantity < requested {
			return ReasonInsufficientStock, p.Quantity
		}
	}
	return "", nil
}
