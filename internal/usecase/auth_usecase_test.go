package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/Mavimarmara/likeme-back-end-sub002/internal/apperr"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/config"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/domain/model"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/usecase"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

func newAuthUsecase(users *UserRepoMock, rt *RefreshTokenRepoMock) *usecase.AuthUsecase {
	cfg := config.Config{JWTSecret: "test-secret"}
	return usecase.NewAuthUsecase(cfg, users, rt, validator.NewAuthValidator())
}

func hashedUser(id int64, email, password string) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return &model.User{
		ID:           id,
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		IsActive:     true,
	}
}

func TestRegister_CreatesUser(t *testing.T) {
	users := new(UserRepoMock)
	rt := new(RefreshTokenRepoMock)

	users.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, nil)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		//平文パスワードは保存しない
		return u.Email == "new@example.com" && u.PasswordHash != "password123" && u.IsActive
	})).Return(nil)

	out, err := newAuthUsecase(users, rt).Register(context.Background(), usecase.AuthRegisterRequest{
		Email:    "new@example.com",
		Password: "password123",
	})

	assert.NoError(t, err)
	assert.Equal(t, "new@example.com", out.Email)
	assert.Equal(t, string(model.RoleUser), out.Role)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := new(UserRepoMock)
	rt := new(RefreshTokenRepoMock)

	users.On("FindByEmail", mock.Anything, "taken@example.com").Return(hashedUser(1, "taken@example.com", "x"), nil)

	_, err := newAuthUsecase(users, rt).Register(context.Background(), usecase.AuthRegisterRequest{
		Email:    "taken@example.com",
		Password: "password123",
	})

	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestRegister_ShortPassword(t *testing.T) {
	users := new(UserRepoMock)
	rt := new(RefreshTokenRepoMock)

	_, err := newAuthUsecase(users, rt).Register(context.Background(), usecase.AuthRegisterRequest{
		Email:    "a@example.com",
		Password: "short",
	})

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestLogin_Success(t *testing.T) {
	users := new(UserRepoMock)
	rt := new(RefreshTokenRepoMock)

	users.On("FindByEmail", mock.Anything, "user@example.com").Return(hashedUser(1, "user@example.com", "password123"), nil)
	users.On("Update", mock.Anything, mock.Anything).Return(nil)
	rt.On("Create", mock.Anything, mock.MatchedBy(func(token *model.RefreshToken) bool {
		//cookieに入る平文とDBのhashは別物
		return token.UserID == 1 && token.TokenHash != "" && token.UserAgent == "test-agent"
	})).Return(nil)

	res, err := newAuthUsecase(users, rt).Login(context.Background(), usecase.AuthLoginRequest{
		Email:    "user@example.com",
		Password: "password123",
	}, "test-agent")

	assert.NoError(t, err)
	assert.NotEmpty(t, res.Body.Token.AccessToken)
	assert.NotEmpty(t, res.RefreshTokenPlain)
	assert.NotEqual(t, res.RefreshTokenPlain, "")
}

func TestLogin_WrongPassword(t *testing.T) {
	users := new(UserRepoMock)
	rt := new(RefreshTokenRepoMock)

	users.On("FindByEmail", mock.Anything, "user@example.com").Return(hashedUser(1, "user@example.com", "password123"), nil)

	_, err := newAuthUsecase(users, rt).Login(context.Background(), usecase.AuthLoginRequest{
		Email:    "user@example.com",
		Password: "wrong-password",
	}, "test-agent")

	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestLogin_UnknownEmail(t *testing.T) {
	users := new(UserRepoMock)
	rt := new(RefreshTokenRepoMock)

	users.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, nil)

	_, err := newAuthUsecase(users, rt).Login(context.Background(), usecase.AuthLoginRequest{
		Email:    "nobody@example.com",
		Password: "password123",
	}, "test-agent")

	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestLogin_InactiveUser(t *testing.T) {
	users := new(UserRepoMock)
	rt := new(RefreshTokenRepoMock)

	u := hashedUser(1, "user@example.com", "password123")
	u.IsActive = false
	users.On("FindByEmail", mock.Anything, "user@example.com").Return(u, nil)

	_, err := newAuthUsecase(users, rt).Login(context.Background(), usecase.AuthLoginRequest{
		Email:    "user@example.com",
		Password: "password123",
	}, "test-agent")

	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

// used済みtokenの再提示はreplay → そのユーザーのtokenを全削除
func TestRefresh_ReplayDeletesAllTokens(t *testing.T) {
	users := new(UserRepoMock)
	rt := new(RefreshTokenRepoMock)

	usedAt := time.Now().Add(-time.Minute)
	rt.On("FindByTokenHash", mock.Anything, mock.Anything).Return(&model.RefreshToken{
		ID:        "rt-1",
		UserID:    1,
		ExpiresAt: time.Now().Add(time.Hour),
		UsedAt:    &usedAt,
	}, nil)
	rt.On("DeleteAllByUserID", mock.Anything, int64(1)).Return(nil)

	_, err := newAuthUsecase(users, rt).Refresh(context.Background(), "some-plain-token", "test-agent")

	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	rt.AssertCalled(t, "DeleteAllByUserID", mock.Anything, int64(1))
}

func TestRefresh_ExpiredTokenDeleted(t *testing.T) {
	users := new(UserRepoMock)
	rt := new(RefreshTokenRepoMock)

	rt.On("FindByTokenHash", mock.Anything, mock.Anything).Return(&model.RefreshToken{
		ID:        "rt-1",
		UserID:    1,
		ExpiresAt: time.Now().Add(-time.Hour),
	}, nil)
	rt.On("DeleteByID", mock.Anything, "rt-1").Return(nil)

	_, err := newAuthUsecase(users, rt).Refresh(context.Background(), "some-plain-token", "test-agent")

	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	rt.AssertCalled(t, "DeleteByID", mock.Anything, "rt-1")
}

func TestRefresh_UserAgentMismatch(t *testing.T) {
	users := new(UserRepoMock)
	rt := new(RefreshTokenRepoMock)

	rt.On("FindByTokenHash", mock.Anything, mock.Anything).Return(&model.RefreshToken{
		ID:        "rt-1",
		UserID:    1,
		UserAgent: "agent-a",
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil)
	rt.On("DeleteAllByUserID", mock.Anything, int64(1)).Return(nil)

	_, err := newAuthUsecase(users, rt).Refresh(context.Background(), "some-plain-token", "agent-b")

	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	rt.AssertCalled(t, "DeleteAllByUserID", mock.Anything, int64(1))
}

func TestRefresh_RotatesToken(t *testing.T) {
	users := new(UserRepoMock)
	rt := new(RefreshTokenRepoMock)

	rt.On("FindByTokenHash", mock.Anything, mock.Anything).Return(&model.RefreshToken{
		ID:        "rt-1",
		UserID:    1,
		UserAgent: "test-agent",
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil)
	users.On("FindByID", mock.Anything, int64(1)).Return(hashedUser(1, "user@example.com", "x"), nil)
	rt.On("MarkUsed", mock.Anything, "rt-1", mock.Anything).Return(nil)
	rt.On("Create", mock.Anything, mock.MatchedBy(func(token *model.RefreshToken) bool {
		return token.ID != "rt-1" && token.UserID == 1
	})).Return(nil)

	res, err := newAuthUsecase(users, rt).Refresh(context.Background(), "some-plain-token", "test-agent")

	assert.NoError(t, err)
	assert.NotEmpty(t, res.Body.AccessToken)
	assert.NotEmpty(t, res.RefreshTokenPlain)
	rt.AssertExpectations(t)
}

func TestForceLogout_BumpsTokenVersion(t *testing.T) {
	users := new(UserRepoMock)
	rt := new(RefreshTokenRepoMock)

	target := hashedUser(5, "target@example.com", "x")
	bumped := *target
	bumped.TokenVersion = 1

	users.On("FindByID", mock.Anything, int64(5)).Return(target, nil).Once()
	users.On("IncrementTokenVersion", mock.Anything, int64(5)).Return(nil)
	rt.On("DeleteAllByUserID", mock.Anything, int64(5)).Return(nil)
	users.On("FindByID", mock.Anything, int64(5)).Return(&bumped, nil).Once()

	out, err := newAuthUsecase(users, rt).ForceLogout(context.Background(), 5)

	assert.NoError(t, err)
	assert.Equal(t, int64(5), out.UserID)
	assert.Equal(t, 1, out.NewTokenVersion)
}

func TestForceLogout_UnknownUser(t *testing.T) {
	users := new(UserRepoMock)
	rt := new(RefreshTokenRepoMock)

	users.On("FindByID", mock.Anything, int64(404)).Return(nil, nil)

	_, err := newAuthUsecase(users, rt).ForceLogout(context.Background(), 404)

	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	users.AssertNotCalled(t, "IncrementTokenVersion", mock.Anything, mock.Anything)
}
