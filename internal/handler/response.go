package handler

import (
	"net/http"

	"github.com/Mavimarmara/likeme-back-end-sub002/internal/apperr"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/logging"

	"github.com/labstack/echo/v4"
)

// 全エンドポイント共通のレスポンス形。
// 成功: {success:true, message, data}
// 失敗: {success:false, error:{code, message, details}}
type Envelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeOK(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// writeErrorは種別からstatus/codeを決める。
// 内部エラーの詳細はログにだけ出してクライアントには返さない。
func writeError(c echo.Context, err error) error {
	status := apperr.HTTPStatus(err)
	body := ErrorBody{
		Code:    apperr.Code(err),
		Message: "internal error",
	}

	if ae, ok := apperr.As(err); ok && ae.Kind != apperr.KindUnexpected {
		body.Message = ae.Message
		body.Details = ae.Details
	}

	if status >= http.StatusInternalServerError {
		logging.From(c).Error("request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
	}

	return c.JSON(status, Envelope{Success: false, Error: &body})
}
