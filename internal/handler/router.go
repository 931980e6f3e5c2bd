package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter はルーターを生成する。keys が nil の場合は管理APIを公開しない。
func NewRouter(auth *AuthHandler, keys *KeyHandler, metrics http.Handler) http.Handler {
	r := chi.NewRouter()

	// ミドルウェア
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// 公開鍵セットのパスはどちらでも取得できるようにする
	r.Get("/.well-known/jwks.json", auth.GetJWKS)
	r.Get("/jwks.json", auth.GetJWKS)
	r.Post("/auth", auth.IssueToken)

	if keys != nil {
		r.Route("/keys", func(r chi.Router) {
			r.Get("/", keys.ListKeys)
			r.Post("/", keys.CreateKey)
			r.Get("/{kid}/issuances", keys.ListIssuances)
		})
	}

	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	return r
}
