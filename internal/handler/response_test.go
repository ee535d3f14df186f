package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Mavimarmara/likeme-back-end-sub002/internal/apperr"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func newTestContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestWriteOK(t *testing.T) {
	c, rec := newTestContext()

	err := writeOK(c, http.StatusCreated, "created", map[string]int{"id": 1})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "created", env.Message)
	assert.NotNil(t, env.Data)
	assert.Nil(t, env.Error)
}

func TestWriteError_Validation(t *testing.T) {
	c, rec := newTestContext()

	err := writeError(c, apperr.Validation("quantity must be > 0"))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	if assert.NotNil(t, env.Error) {
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
		assert.Equal(t, "quantity must be > 0", env.Error.Message)
	}
}

func TestWriteError_WithDetails(t *testing.T) {
	c, rec := newTestContext()

	details := []map[string]any{{"product_id": 1, "reason": "not_found"}}
	err := writeError(c, apperr.Validation("cart contains invalid items").WithDetails(details))
	assert.NoError(t, err)

	env := decodeEnvelope(t, rec)
	if assert.NotNil(t, env.Error) {
		assert.NotNil(t, env.Error.Details)
	}
}

// 内部エラーの詳細はクライアントに漏らさない
func TestWriteError_InternalHidesCause(t *testing.T) {
	c, rec := newTestContext()

	err := writeError(c, apperr.Unexpected(errors.New("pq: connection refused")))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	env := decodeEnvelope(t, rec)
	if assert.NotNil(t, env.Error) {
		assert.Equal(t, "INTERNAL", env.Error.Code)
		assert.Equal(t, "internal error", env.Error.Message)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	}
}

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.NotFound("order not found"), http.StatusNotFound},
		{apperr.Forbidden("not allowed"), http.StatusForbidden},
		{apperr.Conflict("order already cancelled"), http.StatusConflict},
		{apperr.Unauthorized("unauthorized"), http.StatusUnauthorized},
		{apperr.InsufficientStock("insufficient stock"), http.StatusBadRequest},
		{apperr.Payment("payment refused"), http.StatusBadRequest},
	}

	for _, tc := range cases {
		c, rec := newTestContext()
		_ = writeError(c, tc.err)
		assert.Equal(t, tc.want, rec.Code, "err=%v", tc.err)
	}
}
