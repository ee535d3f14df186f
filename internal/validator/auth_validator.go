package validator

import (
	"context"
	"regexp"
	"strings"

	"github.com/Mavimarmara/likeme-back-end-sub002/internal/apperr"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/usecase"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type authValidator struct{}

// Usecaseは interface を依存注入
func NewAuthValidator() usecase.AuthValidator {
	return &authValidator{}
}

// サインアップの入力を検証
func (v *authValidator) ValidateRegister(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)

	if email == "" || password == "" {
		return apperr.Validation("email and password are required")
	}
	if !emailRe.MatchString(email) {
		return apperr.Validation("invalid email format")
	}
	//パスワード最低文字数
	if len(password) < 8 {
		return apperr.Validation("password must be at least 8 characters")
	}
	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)

	if email == "" || password == "" {
		return apperr.Validation("email and password are required")
	}
	if !emailRe.MatchString(email) {
		return apperr.Validation("invalid email format")
	}
	return nil
}

// refresh 入力を検証
func (v *authValidator) ValidateRefresh(ctx context.Context, refreshToken string, userAgent string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return apperr.Unauthorized("refresh token is required")
	}
	return nil
}
