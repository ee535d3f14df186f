package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Mavimarmara/likeme-back-end-sub002/internal/apperr"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/config"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/middleware"
	repo "github.com/Mavimarmara/likeme-back-end-sub002/internal/repository"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

type adminOrderStatusRequest struct {
	Status string `json:"status"`
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repo.UserRepository) {
	g := e.Group(
		"/admin/orders",
		middleware.AuthJWT(cfg),
		middleware.TokenVersionGuard(userRepo),
		middleware.AdminRoleGuard(),
	)

	g.GET("", h.list)
	g.PUT("/:id/status", h.updateStatus)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	in := usecase.AdminOrderListInput{
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 50),
		Status: c.QueryParam("status"),
	}

	if s := c.QueryParam("user_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			return writeError(c, apperr.Validation("invalid user_id"))
		}
		in.UserID = &id
	}
	if s := c.QueryParam("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return writeError(c, apperr.Validation("invalid from"))
		}
		in.From = &t
	}
	if s := c.QueryParam("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return writeError(c, apperr.Validation("invalid to"))
		}
		in.To = &t
	}

	out, err := h.uc.ListOrders(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "", out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return writeError(c, apperr.Unauthorized("unauthorized"))
	}

	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	var req adminOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperr.Validation("invalid body"))
	}

	out, uerr := h.uc.UpdateStatus(c.Request().Context(), actorID, id, req.Status)
	if uerr != nil {
		return writeError(c, uerr)
	}
	return writeOK(c, http.StatusOK, "order status updated", out)
}
