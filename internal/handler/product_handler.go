package handler

import (
	"net/http"

	"github.com/Mavimarmara/likeme-back-end-sub002/internal/apperr"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// 公開エンドポイント（認証不要）。
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/products")
	g.GET("", h.list)
	g.GET("/:id", h.detail)
}

func (h *ProductHandler) list(c echo.Context) error {
	in := usecase.ProductListInput{
		Page:  queryInt(c, "page", 1),
		Limit: queryInt(c, "limit", 20),
		Q:     c.QueryParam("q"),
		Sort:  c.QueryParam("sort"),
	}

	if s := c.QueryParam("min_price"); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return writeError(c, apperr.Validation("invalid min_price"))
		}
		in.MinPrice = &d
	}
	if s := c.QueryParam("max_price"); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return writeError(c, apperr.Validation("invalid max_price"))
		}
		in.MaxPrice = &d
	}

	out, err := h.uc.ListProducts(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "", out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	out, uerr := h.uc.GetProduct(c.Request().Context(), id)
	if uerr != nil {
		return writeError(c, uerr)
	}
	return writeOK(c, http.StatusOK, "", out)
}
