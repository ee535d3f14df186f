package usecase

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Mavimarmara/likeme-back-end-sub002/internal/apperr"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/domain/model"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/logging"
	repo "github.com/Mavimarmara/likeme-back-end-sub002/internal/repository"

	"github.com/shopspring/decimal"
)

// 商品の公開閲覧と管理者CRUD。
// 在庫数の変更はUpdateではなくSetStock経由のみ（台帳履歴を残すため）。
type ProductUsecase struct {
	products repo.ProductRepository
	tx       repo.TransactionManager
	audit    repo.AuditLogRepository
	log      *slog.Logger
}

func NewProductUsecase(products repo.ProductRepository, tx repo.TransactionManager, audit repo.AuditLogRepository) *ProductUsecase {
	return &ProductUsecase{
		products: products,
		tx:       tx,
		audit:    audit,
		log:      logging.New("product"),
	}
}

type ProductListInput struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       *decimal.Decimal
	Quantity    *int64
	Status      string
	ExternalURL *string
}

type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Status      *string
	ExternalURL *string
	//trueのときexternal_urlをクリアする
	ClearExternalURL bool
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) ListProducts(ctx context.Context, in ProductListInput) (ProductListOutput, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 20
	}
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return ProductListOutput{}, apperr.Validation("min_price must not exceed max_price")
	}

	items, total, err := u.products.ListPublic(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        in.Q,
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, apperr.Unexpected(err)
	}

	return ProductListOutput{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

// GetProductは公開用。activeでない商品は存在しない扱い。
func (u *ProductUsecase) GetProduct(ctx context.Context, id int64) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, apperr.Validation("invalid product id")
	}

	p, err := u.products.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return model.Product{}, apperr.NotFound("product not found")
	}
	if err != nil {
		return model.Product{}, apperr.Unexpected(err)
	}
	if p.Status != model.ProductStatusActive {
		return model.Product{}, apperr.NotFound("product not found")
	}
	return p, nil
}

// AdminGetProductはstatusに関係なく返す。
func (u *ProductUsecase) AdminGetProduct(ctx context.Context, id int64) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, apperr.Validation("invalid product id")
	}

	p, err := u.products.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return model.Product{}, apperr.NotFound("product not found")
	}
	if err != nil {
		return model.Product{}, apperr.Unexpected(err)
	}
	return p, nil
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, in CreateProductInput) (model.Product, error) {
	if in.Name == "" {
		return model.Product{}, apperr.Validation("name is required")
	}
	if in.Price != nil && in.Price.IsNegative() {
		return model.Product{}, apperr.Validation("price must not be negative")
	}
	if in.Price != nil && !centPrecision(*in.Price) {
		return model.Product{}, apperr.Validation("price must have at most 2 decimal places")
	}
	if in.Quantity != nil && *in.Quantity < 0 {
		return model.Product{}, apperr.Validation("quantity must not be negative")
	}
	//外部URL商品はローカル在庫を持たない
	if in.ExternalURL != nil && in.Quantity != nil {
		return model.Product{}, apperr.Validation("external products cannot have local stock")
	}

	status := model.ProductStatusInactive
	if in.Status != "" {
		st, ok := toProductStatus(in.Status)
		if !ok {
			return model.Product{}, apperr.Validation("invalid status")
		}
		status = st
	}

	p := model.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Status:      status,
		ExternalURL: in.ExternalURL,
	}

	created, err := u.products.Create(ctx, p)
	if err != nil {
		return model.Product{}, apperr.Unexpected(err)
	}
	return created, nil
}

func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, id int64, in UpdateProductInput) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, apperr.Validation("invalid product id")
	}

	p, err := u.products.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return model.Product{}, apperr.NotFound("product not found")
	}
	if err != nil {
		return model.Product{}, apperr.Unexpected(err)
	}

	if in.Name != nil {
		if *in.Name == "" {
			return model.Product{}, apperr.Validation("name is required")
		}
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return model.Product{}, apperr.Validation("price must not be negative")
		}
		if !centPrecision(*in.Price) {
			return model.Product{}, apperr.Validation("price must have at most 2 decimal places")
		}
		price := *in.Price
		p.Price = &price
	}
	if in.Status != nil {
		st, ok := toProductStatus(*in.Status)
		if !ok {
			return model.Product{}, apperr.Validation("invalid status")
		}
		p.Status = st
	}
	if in.ClearExternalURL {
		p.ExternalURL = nil
	} else if in.ExternalURL != nil {
		if p.Quantity != nil {
			return model.Product{}, apperr.Validation("external products cannot have local stock")
		}
		p.ExternalURL = in.ExternalURL
	}

	if err := u.products.Update(ctx, p); err != nil {
		if err == repo.ErrNotFound {
			return model.Product{}, apperr.NotFound("product not found")
		}
		return model.Product{}, apperr.Unexpected(err)
	}
	return p, nil
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperr.Validation("invalid product id")
	}

	if err := u.products.SoftDelete(ctx, id); err != nil {
		if err == repo.ErrNotFound {
			return apperr.NotFound("product not found")
		}
		return apperr.Unexpected(err)
	}
	return nil
}

// AdminSetStockは在庫の現在値を設定し、RESTOCK履歴と監査ログを残す。
// 外部URL商品には在庫を設定できない。
func (u *ProductUsecase) AdminSetStock(ctx context.Context, actorUserID int64, productID int64, newStock int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, apperr.Validation("invalid product id")
	}
	if newStock < 0 {
		return model.Product{}, apperr.Validation("stock must not be negative")
	}

	var (
		before *int64
		out    model.Product
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, productID)
		if err == repo.ErrNotFound {
			return apperr.NotFound("product not found")
		}
		if err != nil {
			return apperr.Unexpected(err)
		}
		if p.ExternalURL != nil {
			return apperr.Validation("external products cannot have local stock")
		}

		before = p.Quantity

		if err := r.Inventory().SetStock(ctx, productID, newStock); err != nil {
			return apperr.Unexpected(err)
		}

		actor := actorUserID
		mv := model.StockMovement{
			ProductID:   productID,
			ActorUserID: &actor,
			Kind:        model.StockMovementRestock,
			Quantity:    newStock,
			Reason:      "admin set stock",
		}
		if err := r.Inventory().CreateMovement(ctx, mv); err != nil {
			return apperr.Unexpected(err)
		}

		p.Quantity = &newStock
		out = p
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}

	u.writeAudit(ctx, actorUserID, model.AuditActionUpdateStock, model.AuditResourceProduct, productID,
		map[string]any{"quantity": before},
		map[string]any{"quantity": newStock},
	)

	return out, nil
}

// writeAuditは失敗しても操作自体は成立させる（ログだけ残す）。
func (u *ProductUsecase) writeAudit(ctx context.Context, actorUserID int64, action model.AuditAction, resource model.AuditResourceType, resourceID int64, before any, after any) {
	beforeJSON, _ := json.Marshal(before)
	afterJSON, _ := json.Marshal(after)

	log := model.AuditLog{
		ActorUserID:  actorUserID,
		Action:       action,
		ResourceType: resource,
		ResourceID:   resourceID,
		BeforeJSON:   string(beforeJSON),
		AfterJSON:    string(afterJSON),
	}
	if err := u.audit.Create(ctx, log); err != nil {
		u.log.Warn("write audit log failed",
			"action", string(action), "resource_id", resourceID, "error", err)
	}
}

func toProductStatus(s string) (model.ProductStatus, bool) {
	switch model.ProductStatus(s) {
	case model.ProductStatusActive, model.ProductStatusInactive, model.ProductStatusOutOfStock:
		return model.ProductStatus(s), true
	default:
		return "", false
	}
}
