package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Mavimarmara/likeme-back-end-sub002/internal/config"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/domain/model"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/middleware"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(secret))
	assert.NoError(t, err)
	return signed
}

func validClaims(userID int64, role string, tv int) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"tv":   tv,
		"iat":  now.Unix(),
		"exp":  now.Add(15 * time.Minute).Unix(),
	}
}

func doRequest(token string, mws ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	e := echo.New()

	h := func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"user_id": c.Get(middleware.CtxUserIDKey),
			"role":    c.Get(middleware.CtxUserRoleKey),
		})
	}
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	_ = h(e.NewContext(req, rec))
	return rec
}

func TestAuthJWT_ValidToken(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}
	token := signToken(t, testSecret, validClaims(1, "USER", 0))

	rec := doRequest(token, middleware.AuthJWT(cfg))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthJWT_MissingHeader(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}

	rec := doRequest("", middleware.AuthJWT(cfg))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_WrongSecret(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}
	token := signToken(t, "other-secret", validClaims(1, "USER", 0))

	rec := doRequest(token, middleware.AuthJWT(cfg))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_ExpiredToken(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}

	claims := validClaims(1, "USER", 0)
	claims["exp"] = time.Now().Add(-time.Minute).Unix()
	token := signToken(t, testSecret, claims)

	rec := doRequest(token, middleware.AuthJWT(cfg))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type userRepoStub struct{ mock.Mock }

func (m *userRepoStub) Create(ctx context.Context, user *model.User) error { panic("not used") }

func (m *userRepoStub) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *userRepoStub) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	panic("not used")
}

func (m *userRepoStub) Update(ctx context.Context, user *model.User) error { panic("not used") }

func (m *userRepoStub) List(ctx context.Context, page int, limit int) ([]model.User, int64, error) {
	panic("not used")
}

func (m *userRepoStub) IncrementTokenVersion(ctx context.Context, userID int64) error {
	panic("not used")
}

// token_versionが一致すれば通る
func TestTokenVersionGuard_Match(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}
	token := signToken(t, testSecret, validClaims(1, "USER", 2))

	users := new(userRepoStub)
	users.On("FindByID", mock.Anything, int64(1)).Return(&model.User{ID: 1, TokenVersion: 2, IsActive: true}, nil)

	rec := doRequest(token, middleware.AuthJWT(cfg), middleware.TokenVersionGuard(users))
	assert.Equal(t, http.StatusOK, rec.Code)
}

// force-logout後（DB側のtvが進んでいる）は401
func TestTokenVersionGuard_StaleToken(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}
	token := signToken(t, testSecret, validClaims(1, "USER", 2))

	users := new(userRepoStub)
	users.On("FindByID", mock.Anything, int64(1)).Return(&model.User{ID: 1, TokenVersion: 3, IsActive: true}, nil)

	rec := doRequest(token, middleware.AuthJWT(cfg), middleware.TokenVersionGuard(users))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoleGuard_RejectsUser(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}
	token := signToken(t, testSecret, validClaims(1, "USER", 0))

	rec := doRequest(token, middleware.AuthJWT(cfg), middleware.AdminRoleGuard())
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminRoleGuard_AllowsAdmin(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}
	token := signToken(t, testSecret, validClaims(1, "ADMIN", 0))

	rec := doRequest(token, middleware.AuthJWT(cfg), middleware.AdminRoleGuard())
	assert.Equal(t, http.StatusOK, rec.Code)
}
