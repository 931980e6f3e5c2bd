// Package middleware はHTTPミドルウェアと監査ログを提供する。
package middleware

import (
	"context"
	"log/slog"
	"time"
)

// 監査ログの結果値。
const (
	ResultSuccess = "SUCCESS"
	ResultFailed  = "FAILED"
)

// WriteAuditLog は鍵・トークン操作の監査ログを出力する。kid が空なら kid 属性は付けない。
func WriteAuditLog(ctx context.Context, operation string, kid string, result string, attrs ...any) {
	args := []any{
		"operation", operation,
		"result", result,
		"timestamp", time.Now().UTC().Format(time.RFC3339),
	}
	if kid != "" {
		args = append(args, "kid", kid)
	}
	args = append(args, attrs...)

	level := slog.LevelInfo
	if result != ResultSuccess {
		level = slog.LevelWarn
	}
	slog.Log(ctx, level, "key operation completed", args...)
}
