// Package httputil はHTTPレスポンス生成のユーティリティを提供する。
package httputil

import (
	"net/http"

	"github.com/go-chi/render"
)

// ErrorResponse はエラーレスポンスの形式。
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// JSON はJSONレスポンスを返す。
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	render.Status(r, status)
	render.JSON(w, r, data)
}

// RawJSON はエンコード済みのJSONをそのまま返す。
func RawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Error はエラーレスポンスを返す。
func Error(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	JSON(w, r, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
