package handler

import (
	"net/http"
	"strconv"

	"github.com/Mavimarmara/likeme-back-end-sub002/internal/apperr"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/config"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/domain/model"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/middleware"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/payment"
	repo "github.com/Mavimarmara/likeme-back-end-sub002/internal/repository"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type orderItemRequest struct {
	ProductID int64            `json:"product_id"`
	Quantity  int64            `json:"quantity"`
	Discount  *decimal.Decimal `json:"discount"`
}

type orderCreateRequest struct {
	Items          []orderItemRequest    `json:"items"`
	PaymentMethod  string                `json:"payment_method"`
	Card           *payment.CardData     `json:"card_data"`
	BillingAddress *model.BillingAddress `json:"billing_address"`
}

type orderUpdateRequest struct {
	Status         *string `json:"status"`
	TrackingNumber *string `json:"tracking_number"`
}

type cartValidateRequest struct {
	Items []orderItemRequest `json:"items"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repo.UserRepository) {
	g := e.Group("/orders")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))

	g.POST("", h.create)
	g.GET("", h.list)
	g.POST("/validate-cart", h.validateCart)
	g.GET("/:id", h.detail)
	g.PUT("/:id", h.update)
	g.POST("/:id/cancel", h.cancel)
	g.DELETE("/:id", h.remove)
}

func (h *OrderHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return writeError(c, apperr.Unauthorized("unauthorized"))
	}

	var req orderCreateRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperr.Validation("invalid body"))
	}

	out, err := h.uc.CreateOrder(c.Request().Context(), userID, usecase.CreateOrderInput{
		Items:          toCartItems(req.Items),
		PaymentMethod:  req.PaymentMethod,
		Card:           req.Card,
		BillingAddress: req.BillingAddress,
	})
	if err != nil {
		return writeError(c, err)
	}

	return writeOK(c, http.StatusCreated, "order created", out)
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return writeError(c, apperr.Unauthorized("unauthorized"))
	}

	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)

	out, err := h.uc.ListOrders(c.Request().Context(), userID, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "", out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return writeError(c, apperr.Unauthorized("unauthorized"))
	}

	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	out, uerr := h.uc.GetOrder(c.Request().Context(), userID, getRoleFromContext(c), id)
	if uerr != nil {
		return writeError(c, uerr)
	}
	return writeOK(c, http.StatusOK, "", out)
}

func (h *OrderHandler) update(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return writeError(c, apperr.Unauthorized("unauthorized"))
	}

	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	var req orderUpdateRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperr.Validation("invalid body"))
	}

	out, uerr := h.uc.UpdateOrder(c.Request().Context(), userID, getRoleFromContext(c), id, usecase.UpdateOrderInput{
		Status:         req.Status,
		TrackingNumber: req.TrackingNumber,
	})
	if uerr != nil {
		return writeError(c, uerr)
	}
	return writeOK(c, http.StatusOK, "order updated", out)
}

func (h *OrderHandler) cancel(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return writeError(c, apperr.Unauthorized("unauthorized"))
	}

	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	out, uerr := h.uc.CancelOrder(c.Request().Context(), userID, getRoleFromContext(c), id)
	if uerr != nil {
		return writeError(c, uerr)
	}
	return writeOK(c, http.StatusOK, "order cancelled", out)
}

func (h *OrderHandler) remove(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return writeError(c, apperr.Unauthorized("unauthorized"))
	}

	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	//既定では在庫は戻さない
	restore := c.QueryParam("restore_stock") == "true"

	if uerr := h.uc.DeleteOrder(c.Request().Context(), userID, getRoleFromContext(c), id, restore); uerr != nil {
		return writeError(c, uerr)
	}
	return writeOK(c, http.StatusOK, "order deleted", nil)
}

func (h *OrderHandler) validateCart(c echo.Context) error {
	if _, ok := getUserIDFromContext(c); !ok {
		return writeError(c, apperr.Unauthorized("unauthorized"))
	}

	var req cartValidateRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperr.Validation("invalid body"))
	}

	out, err := h.uc.ValidateCart(c.Request().Context(), toCartItems(req.Items))
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "", out)
}

func toCartItems(items []orderItemRequest) []usecase.CartItemRequest {
	out := make([]usecase.CartItemRequest, 0, len(items))
	for _, it := range items {
		discount := decimal.Zero
		if it.Discount != nil {
			discount = *it.Discount
		}
		out = append(out, usecase.CartItemRequest{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Discount:  discount,
		})
	}
	return out
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid id")
	}
	return id, nil
}

func queryInt(c echo.Context, name string, def int) int {
	s := c.QueryParam(name)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
