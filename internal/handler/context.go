package handler

import (
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/domain/model"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/middleware"

	"github.com/labstack/echo/v4"
)

// AuthJWTが保存した認証情報をハンドラ側で取り出す。

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	id, ok := v.(int64)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

func getRoleFromContext(c echo.Context) model.Role {
	v := c.Get(middleware.CtxUserRoleKey)
	s, ok := v.(string)
	if !ok {
		return model.RoleUser
	}
	return model.Role(s)
}
