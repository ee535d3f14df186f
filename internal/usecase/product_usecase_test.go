package usecase_test

import (
	"context"
	"testing"

	"github.com/Mavimarmara/likeme-back-end-sub002/internal/apperr"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/domain/model"
	repo "github.com/Mavimarmara/likeme-back-end-sub002/internal/repository"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type productFixture struct {
	products  *ProductRepoMock
	tx        *TxManagerMock
	inventory *InventoryRepoMock
	audit     *AuditRepoMock
	uc        *usecase.ProductUsecase
}

func newProductFixture() *productFixture {
	f := &productFixture{
		products:  new(ProductRepoMock),
		inventory: new(InventoryRepoMock),
		audit:     new(AuditRepoMock),
	}
	f.tx = &TxManagerMock{Repos: &TxReposMock{
		products:  f.products,
		inventory: f.inventory,
	}}
	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.uc = usecase.NewProductUsecase(f.products, f.tx, f.audit)
	return f
}

func TestGetProduct_HidesInactive(t *testing.T) {
	f := newProductFixture()

	inactive := activeProduct(1, "10.00", 5)
	inactive.Status = model.ProductStatusInactive
	f.products.On("FindByID", mock.Anything, int64(1)).Return(inactive, nil)

	_, err := f.uc.GetProduct(context.Background(), 1)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAdminGetProduct_ReturnsInactive(t *testing.T) {
	f := newProductFixture()

	inactive := activeProduct(1, "10.00", 5)
	inactive.Status = model.ProductStatusInactive
	f.products.On("FindByID", mock.Anything, int64(1)).Return(inactive, nil)

	out, err := f.uc.AdminGetProduct(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, model.ProductStatusInactive, out.Status)
}

func TestAdminCreateProduct_ExternalURLExcludesStock(t *testing.T) {
	f := newProductFixture()

	url := "https://example.com/item"
	_, err := f.uc.AdminCreateProduct(context.Background(), usecase.CreateProductInput{
		Name:        "external",
		ExternalURL: &url,
		Quantity:    ptrInt64(5),
	})

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	f.products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAdminCreateProduct_NegativePrice(t *testing.T) {
	f := newProductFixture()

	_, err := f.uc.AdminCreateProduct(context.Background(), usecase.CreateProductInput{
		Name:  "bad",
		Price: ptrDecimal("-1.00"),
	})

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

// 価格もセント未満の端数を持てない
func TestAdminCreateProduct_SubCentPriceRejected(t *testing.T) {
	f := newProductFixture()

	_, err := f.uc.AdminCreateProduct(context.Background(), usecase.CreateProductInput{
		Name:  "bad",
		Price: ptrDecimal("9.999"),
	})

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestAdminUpdateProduct_SubCentPriceRejected(t *testing.T) {
	f := newProductFixture()

	f.products.On("FindByID", mock.Anything, int64(1)).Return(activeProduct(1, "10.00", 5), nil)

	_, err := f.uc.AdminUpdateProduct(context.Background(), 1, usecase.UpdateProductInput{
		Price: ptrDecimal("0.005"),
	})

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	f.products.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestAdminCreateProduct_DefaultsInactive(t *testing.T) {
	f := newProductFixture()

	f.products.On("Create", mock.Anything, mock.MatchedBy(func(p model.Product) bool {
		return p.Status == model.ProductStatusInactive
	})).Return(model.Product{ID: 1, Name: "new", Status: model.ProductStatusInactive}, nil)

	out, err := f.uc.AdminCreateProduct(context.Background(), usecase.CreateProductInput{Name: "new"})

	assert.NoError(t, err)
	assert.Equal(t, model.ProductStatusInactive, out.Status)
}

func TestAdminUpdateProduct_InvalidStatus(t *testing.T) {
	f := newProductFixture()

	f.products.On("FindByID", mock.Anything, int64(1)).Return(activeProduct(1, "10.00", 5), nil)

	bad := "unknown"
	_, err := f.uc.AdminUpdateProduct(context.Background(), 1, usecase.UpdateProductInput{Status: &bad})

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestAdminSetStock_WritesMovementAndAudit(t *testing.T) {
	f := newProductFixture()

	f.products.On("FindByID", mock.Anything, int64(1)).Return(activeProduct(1, "10.00", 5), nil)
	f.inventory.On("SetStock", mock.Anything, int64(1), int64(30)).Return(nil)
	f.inventory.On("CreateMovement", mock.Anything, mock.MatchedBy(func(mv model.StockMovement) bool {
		return mv.Kind == model.StockMovementRestock && mv.Quantity == 30 && mv.ActorUserID != nil && *mv.ActorUserID == 9
	})).Return(nil)
	f.audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionUpdateStock && l.ResourceID == 1 && l.ActorUserID == 9
	})).Return(nil)

	out, err := f.uc.AdminSetStock(context.Background(), 9, 1, 30)

	assert.NoError(t, err)
	if assert.NotNil(t, out.Quantity) {
		assert.Equal(t, int64(30), *out.Quantity)
	}
	f.inventory.AssertExpectations(t)
	f.audit.AssertExpectations(t)
}

func TestAdminSetStock_RejectsExternalProducts(t *testing.T) {
	f := newProductFixture()

	url := "https://example.com/item"
	p := model.Product{ID: 1, Status: model.ProductStatusActive, ExternalURL: &url}
	f.products.On("FindByID", mock.Anything, int64(1)).Return(p, nil)

	_, err := f.uc.AdminSetStock(context.Background(), 9, 1, 10)

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	f.inventory.AssertNotCalled(t, "SetStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminSetStock_NegativeStock(t *testing.T) {
	f := newProductFixture()

	_, err := f.uc.AdminSetStock(context.Background(), 9, 1, -1)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestAdminDeleteProduct_NotFound(t *testing.T) {
	f := newProductFixture()

	f.products.On("SoftDelete", mock.Anything, int64(404)).Return(repo.ErrNotFound)

	err := f.uc.AdminDeleteProduct(context.Background(), 404)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListProducts_MinPriceAboveMax(t *testing.T) {
	f := newProductFixture()

	_, err := f.uc.ListProducts(context.Background(), usecase.ProductListInput{
		MinPrice: ptrDecimal("100"),
		MaxPrice: ptrDecimal("50"),
	})

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
