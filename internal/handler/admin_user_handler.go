package handler

import (
	"net/http"

	"github.com/Mavimarmara/likeme-back-end-sub002/internal/apperr"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/config"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/middleware"
	repo "github.com/Mavimarmara/likeme-back-end-sub002/internal/repository"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminUserHandler struct {
	users *usecase.AdminUserUsecase
	auth  *usecase.AuthUsecase
}

func NewAdminUserHandler(users *usecase.AdminUserUsecase, auth *usecase.AuthUsecase) *AdminUserHandler {
	return &AdminUserHandler{users: users, auth: auth}
}

type adminUserUpdateRequest struct {
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

func (h *AdminUserHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repo.UserRepository) {
	g := e.Group(
		"/admin/users",
		middleware.AuthJWT(cfg),
		middleware.TokenVersionGuard(userRepo),
		middleware.AdminRoleGuard(),
	)

	g.GET("", h.list)
	g.PUT("/:id", h.update)
	g.POST("/:id/force-logout", h.forceLogout)
}

func (h *AdminUserHandler) list(c echo.Context) error {
	out, err := h.users.ListUsers(c.Request().Context(), queryInt(c, "page", 1), queryInt(c, "limit", 50))
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "", out)
}

func (h *AdminUserHandler) update(c echo.Context) error {
	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return writeError(c, apperr.Unauthorized("unauthorized"))
	}

	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	var req adminUserUpdateRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperr.Validation("invalid body"))
	}

	out, uerr := h.users.UpdateUser(c.Request().Context(), actorID, id, usecase.AdminUpdateUserInput{
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if uerr != nil {
		return writeError(c, uerr)
	}
	return writeOK(c, http.StatusOK, "user updated", out)
}

func (h *AdminUserHandler) forceLogout(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	out, uerr := h.auth.ForceLogout(c.Request().Context(), id)
	if uerr != nil {
		return writeError(c, uerr)
	}
	return writeOK(c, http.StatusOK, "user logged out", out)
}
