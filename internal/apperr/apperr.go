package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// エラーの種別。handlerがHTTPステータスへ変換する。
// メッセージ文字列でのマッチは禁止（種別で判定する）。
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindUnauthorized
	KindNotFound
	KindForbidden
	KindConflict
	KindInsufficientStock
	KindPayment
)

type Error struct {
	Kind    Kind
	Message string
	// Detailsはクライアントに返す補足（例：カート検証の結果）
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error        { return New(KindValidation, message) }
func Unauthorized(message string) *Error      { return New(KindUnauthorized, message) }
func NotFound(message string) *Error          { return New(KindNotFound, message) }
func Forbidden(message string) *Error         { return New(KindForbidden, message) }
func Conflict(message string) *Error          { return New(KindConflict, message) }
func InsufficientStock(message string) *Error { return New(KindInsufficientStock, message) }
func Payment(message string) *Error           { return New(KindPayment, message) }

// Unexpectedは内部エラー。元のerrは保持するがクライアントには出さない。
func Unexpected(err error) *Error {
	return &Error{Kind: KindUnexpected, Message: "internal error", Err: err}
}

func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

func As(err error) (*Error, bool) {
	var ae *Error
	ok := errors.As(err, &ae)
	return ae, ok
}

func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return KindUnexpected
}

// HTTPStatusは種別をステータスコードへ対応させる。
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindInsufficientStock, KindPayment:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Codeはレスポンスのerror.codeに使う識別子。
func Code(err error) string {
	switch KindOf(err) {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindNotFound:
		return "NOT_FOUND"
	case KindForbidden:
		return "FORBIDDEN"
	case KindConflict:
		return "CONFLICT"
	case KindInsufficientStock:
		return "INSUFFICIENT_STOCK"
	case KindPayment:
		return "PAYMENT_ERROR"
	default:
		return "INTERNAL"
	}
}
