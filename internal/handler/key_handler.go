package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"jwks-server/internal/domain"
	"jwks-server/internal/middleware"
	"jwks-server/internal/usecase"
	"jwks-server/pkg/httputil"
)

// KeyMetadataResponse は鍵メタデータのレスポンス形式。
type KeyMetadataResponse struct {
	Kid       string `json:"kid"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	ExpiresAt string `json:"expires_at"`
}

// KeyListResponse は鍵一覧のレスポンス形式。
type KeyListResponse struct {
	Keys []KeyMetadataResponse `json:"keys"`
}

// IssuanceResponse は発行履歴1件のレスポンス形式。
type IssuanceResponse struct {
	ID        string `json:"id"`
	Kid       string `json:"kid"`
	Subject   string `json:"subject"`
	Expired   bool   `json:"expired"`
	IssuedAt  string `json:"issued_at"`
	ExpiresAt string `json:"expires_at"`
}

// IssuanceListResponse は発行履歴一覧のレスポンス形式。
type IssuanceListResponse struct {
	Issuances []IssuanceResponse `json:"issuances"`
}

// KeyHandler は管理用の鍵操作ハンドラを提供する。
type KeyHandler struct {
	keys      *usecase.KeyService
	issuances *usecase.IssuanceService
	now       func() time.Time
}

// NewKeyHandler は新しいKeyHandlerを生成する。
func NewKeyHandler(keys *usecase.KeyService, issuances *usecase.IssuanceService, now func() time.Time) *KeyHandler {
	if now == nil {
		now = time.Now
	}
	return &KeyHandler{
		keys:      keys,
		issuances: issuances,
		now:       now,
	}
}

func toKeyMetadataResponse(m *domain.KeyMetadata) KeyMetadataResponse {
	return KeyMetadataResponse{
		Kid:       m.ID,
		Status:    string(m.State),
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt: m.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

// CreateKey は鍵を追加生成する。?expired=true で期限切れの鍵を作る。
func (h *KeyHandler) CreateKey(w http.ResponseWriter, r *http.Request) {
	expired := parseExpiredFlag(r)

	metadata, err := h.keys.CreateKey(r.Context(), h.now(), expired)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "CREATE_KEY", "", middleware.ResultFailed, "error", err)
		httputil.Error(w, r, http.StatusInternalServerError, "KEY_GENERATION_FAILED", "key generation failed")
		return
	}

	middleware.WriteAuditLog(r.Context(), "CREATE_KEY", metadata.ID, middleware.ResultSuccess, "state", metadata.State)
	httputil.JSON(w, r, http.StatusCreated, toKeyMetadataResponse(metadata))
}

// ListKeys は全ての鍵のメタデータを返す。
func (h *KeyHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	keys := h.keys.ListKeys(r.Context(), h.now())

	response := KeyListResponse{Keys: make([]KeyMetadataResponse, len(keys))}
	for i, k := range keys {
		response.Keys[i] = toKeyMetadataResponse(k)
	}
	httputil.JSON(w, r, http.StatusOK, response)
}

// ListIssuances は指定された鍵で発行されたトークンの履歴を返す。
func (h *KeyHandler) ListIssuances(w http.ResponseWriter, r *http.Request) {
	if h.issuances == nil {
		httputil.Error(w, r, http.StatusNotFound, "ISSUANCE_LOG_DISABLED", "issuance log is not configured")
		return
	}

	kid := chi.URLParam(r, "kid")
	issuances, err := h.issuances.ListByKeyID(r.Context(), kid)
	if err != nil {
		httputil.Error(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	response := IssuanceListResponse{Issuances: make([]IssuanceResponse, len(issuances))}
	for i, is := range issuances {
		response.Issuances[i] = IssuanceResponse{
			ID:        is.ID,
			Kid:       is.KeyID,
			Subject:   is.Subject,
			Expired:   is.Expired,
			IssuedAt:  is.IssuedAt.UTC().Format(time.RFC3339),
			ExpiresAt: is.ExpiresAt.UTC().Format(time.RFC3339),
		}
	}
	httputil.JSON(w, r, http.StatusOK, response)
}
