package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad input"), http.StatusBadRequest},
		{InsufficientStock("no stock"), http.StatusBadRequest},
		{Payment("refused"), http.StatusBadRequest},
		{Unauthorized("no token"), http.StatusUnauthorized},
		{Forbidden("not yours"), http.StatusForbidden},
		{NotFound("missing"), http.StatusNotFound},
		{Conflict("already cancelled"), http.StatusConflict},
		{Unexpected(errors.New("db down")), http.StatusInternalServerError},
		{errors.New("plain error"), http.StatusInternalServerError},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, HTTPStatus(c.err), "err=%v", c.err)
	}
}

func TestCode(t *testing.T) {
	assert.Equal(t, "VALIDATION_ERROR", Code(Validation("x")))
	assert.Equal(t, "INSUFFICIENT_STOCK", Code(InsufficientStock("x")))
	assert.Equal(t, "PAYMENT_ERROR", Code(Payment("x")))
	assert.Equal(t, "NOT_FOUND", Code(NotFound("x")))
	assert.Equal(t, "CONFLICT", Code(Conflict("x")))
	assert.Equal(t, "INTERNAL", Code(errors.New("x")))
}

// wrapされていてもerrors.Asで種別が取れる
func TestKindOf_Wrapped(t *testing.T) {
	inner := NotFound("order not found")
	wrapped := fmt.Errorf("while loading: %w", inner)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(wrapped))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindPayment, "payment failed", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "payment failed")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWithDetails(t *testing.T) {
	err := Validation("cart contains invalid items").WithDetails([]string{"a", "b"})

	ae, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, ae.Details)
}
