package middleware

import (
	"net/http"

	"github.com/Mavimarmara/likeme-back-end-sub002/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// contextに入っているroleがADMINかどうかを確認する。
func AdminRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawRole := c.Get(CtxUserRoleKey)
			role, ok := rawRole.(string)
			if !ok || role == "" {
				return unauthorized(c)
			}

			//USERは拒否、ADMINだけ許可
			if role != string(model.RoleAdmin) {
				return c.JSON(http.StatusForbidden, errorEnvelope{
					Success: false,
					Error:   errorBody{Code: "FORBIDDEN", Message: "admin only"},
				})
			}

			return next(c)
		}
	}
}
