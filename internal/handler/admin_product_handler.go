package handler

import (
	"net/http"

	"github.com/Mavimarmara/likeme-back-end-sub002/internal/apperr"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/config"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/middleware"
	repo "github.com/Mavimarmara/likeme-back-end-sub002/internal/repository"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

type productCreateRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Quantity    *int64           `json:"quantity"`
	Status      string           `json:"status"`
	ExternalURL *string          `json:"external_url"`
}

type productUpdateRequest struct {
	Name             *string          `json:"name"`
	Description      *string          `json:"description"`
	Price            *decimal.Decimal `json:"price"`
	Status           *string          `json:"status"`
	ExternalURL      *string          `json:"external_url"`
	ClearExternalURL bool             `json:"clear_external_url"`
}

type setStockRequest struct {
	Quantity int64 `json:"quantity"`
}

func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repo.UserRepository) {
	// /admin 配下は全部「JWT必須 + token_version一致 + ADMIN限定」
	g := e.Group(
		"/admin/products",
		middleware.AuthJWT(cfg),
		middleware.TokenVersionGuard(userRepo),
		middleware.AdminRoleGuard(),
	)

	g.POST("", h.create)
	g.GET("/:id", h.detail)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.remove)
	g.PUT("/:id/stock", h.setStock)
}

func (h *AdminProductHandler) create(c echo.Context) error {
	var req productCreateRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperr.Validation("invalid body"))
	}

	out, err := h.uc.AdminCreateProduct(c.Request().Context(), usecase.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Status:      req.Status,
		ExternalURL: req.ExternalURL,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusCreated, "product created", out)
}

func (h *AdminProductHandler) detail(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	out, uerr := h.uc.AdminGetProduct(c.Request().Context(), id)
	if uerr != nil {
		return writeError(c, uerr)
	}
	return writeOK(c, http.StatusOK, "", out)
}

func (h *AdminProductHandler) update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	var req productUpdateRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperr.Validation("invalid body"))
	}

	out, uerr := h.uc.AdminUpdateProduct(c.Request().Context(), id, usecase.UpdateProductInput{
		Name:             req.Name,
		Description:      req.Description,
		Price:            req.Price,
		Status:           req.Status,
		ExternalURL:      req.ExternalURL,
		ClearExternalURL: req.ClearExternalURL,
	})
	if uerr != nil {
		return writeError(c, uerr)
	}
	return writeOK(c, http.StatusOK, "product updated", out)
}

func (h *AdminProductHandler) remove(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	if uerr := h.uc.AdminDeleteProduct(c.Request().Context(), id); uerr != nil {
		return writeError(c, uerr)
	}
	return writeOK(c, http.StatusOK, "product deleted", nil)
}

func (h *AdminProductHandler) setStock(c echo.Context) error {
	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return writeError(c, apperr.Unauthorized("unauthorized"))
	}

	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	var req setStockRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperr.Validation("invalid body"))
	}

	out, uerr := h.uc.AdminSetStock(c.Request().Context(), actorID, id, req.Quantity)
	if uerr != nil {
		return writeError(c, uerr)
	}
	return writeOK(c, http.StatusOK, "stock updated", out)
}
