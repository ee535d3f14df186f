package handler

import (
	"net/http"
	"time"

	"github.com/Mavimarmara/likeme-back-end-sub002/internal/apperr"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/config"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/middleware"
	repo "github.com/Mavimarmara/likeme-back-end-sub002/internal/repository"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/usecase"

	"github.com/labstack/echo/v4"
)

const refreshCookieName = "refresh_token"

type AuthHandler struct {
	uc           *usecase.AuthUsecase
	cookieSecure bool
}

func NewAuthHandler(uc *usecase.AuthUsecase, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		uc: uc,
		//本番以外はhttpでも動くように
		cookieSecure: cfg.GoEnv == "production",
	}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repo.UserRepository) {
	g := e.Group("/auth")
	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/refresh", h.refresh)
	g.POST("/logout", h.logout)

	me := e.Group("/auth", middleware.AuthJWT(cfg), middleware.TokenVersionGuard(userRepo))
	me.GET("/me", h.me)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req usecase.AuthRegisterRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperr.Validation("invalid body"))
	}

	out, err := h.uc.Register(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusCreated, "registered", out)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req usecase.AuthLoginRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperr.Validation("invalid body"))
	}

	//User-Agentはrefresh tokenに紐付ける
	userAgent := c.Request().Header.Get("User-Agent")

	res, err := h.uc.Login(c.Request().Context(), req, userAgent)
	if err != nil {
		return writeError(c, err)
	}

	h.setRefreshCookie(c, res.RefreshTokenPlain)
	return writeOK(c, http.StatusOK, "login success", res.Body)
}

func (h *AuthHandler) refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return writeError(c, apperr.Unauthorized("refresh token is required"))
	}

	userAgent := c.Request().Header.Get("User-Agent")

	res, uerr := h.uc.Refresh(c.Request().Context(), cookie.Value, userAgent)
	if uerr != nil {
		h.clearRefreshCookie(c)
		return writeError(c, uerr)
	}

	h.setRefreshCookie(c, res.RefreshTokenPlain)
	return writeOK(c, http.StatusOK, "token refreshed", res.Body)
}

func (h *AuthHandler) logout(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return writeError(c, apperr.Unauthorized("unauthorized"))
	}

	if uerr := h.uc.Logout(c.Request().Context(), cookie.Value); uerr != nil {
		return writeError(c, uerr)
	}

	h.clearRefreshCookie(c)
	return writeOK(c, http.StatusOK, "logout success", nil)
}

func (h *AuthHandler) me(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return writeError(c, apperr.Unauthorized("unauthorized"))
	}

	out, err := h.uc.Me(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "", out)
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, plain string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    plain,
		Path:     "/auth",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(30 * 24 * time.Hour),
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/auth",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}
