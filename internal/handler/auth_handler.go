// Package handler はHTTPハンドラを提供する。
package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"jwks-server/internal/domain"
	"jwks-server/internal/middleware"
	"jwks-server/internal/usecase"
	"jwks-server/pkg/httputil"
)

// TokenResponse はトークン発行のレスポンス形式。
type TokenResponse struct {
	Token string `json:"token"`
}

// AuthHandler はJWKSとトークン発行のハンドラを提供する。
type AuthHandler struct {
	jwks      *usecase.JWKSService
	tokens    *usecase.TokenService
	issuances *usecase.IssuanceService
	now       func() time.Time
}

// NewAuthHandler は新しいAuthHandlerを生成する。issuances が nil なら発行履歴を保存しない。
func NewAuthHandler(jwks *usecase.JWKSService, tokens *usecase.TokenService, issuances *usecase.IssuanceService, now func() time.Time) *AuthHandler {
	if now == nil {
		now = time.Now
	}
	return &AuthHandler{
		jwks:      jwks,
		tokens:    tokens,
		issuances: issuances,
		now:       now,
	}
}

// parseExpiredFlag は expired クエリを真偽値に変換する。
// 値なしで指定された場合と "true" / "1" のみ true。
func parseExpiredFlag(r *http.Request) bool {
	q := r.URL.Query()
	if !q.Has("expired") {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(q.Get("expired"))) {
	case "", "true", "1":
		return true
	default:
		return false
	}
}

// GetJWKS は有効な公開鍵のJWKSを返す。
func (h *AuthHandler) GetJWKS(w http.ResponseWriter, r *http.Request) {
	body, err := h.jwks.KeySet(r.Context(), h.now())
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "GET_JWKS", "", middleware.ResultFailed, "error", err)
		httputil.Error(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}
	httputil.RawJSON(w, http.StatusOK, body)
}

// IssueToken は署名済みトークンを発行する。?expired=true で期限切れ鍵を使う。
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wantExpired := parseExpiredFlag(r)

	token, err := h.tokens.Issue(ctx, h.now(), wantExpired)
	if err != nil {
		middleware.WriteAuditLog(ctx, "ISSUE_TOKEN", "", middleware.ResultFailed,
			"expired", wantExpired,
			"error", err,
		)
		if errors.Is(err, domain.ErrNoSuitableKey) {
			httputil.Error(w, r, http.StatusInternalServerError, "NO_SUITABLE_KEY", "No suitable key found")
			return
		}
		httputil.Error(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	middleware.WriteAuditLog(ctx, "ISSUE_TOKEN", token.KeyID, middleware.ResultSuccess,
		"expired", wantExpired,
		"exp", token.ExpiresAt.UTC().Format(time.RFC3339),
	)
	if h.issuances != nil {
		if err := h.issuances.Record(ctx, token); err != nil {
			middleware.WriteAuditLog(ctx, "RECORD_ISSUANCE", token.KeyID, middleware.ResultFailed, "error", err)
		}
	}

	httputil.JSON(w, r, http.StatusOK, TokenResponse{Token: token.Token})
}
