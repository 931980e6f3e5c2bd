package handler

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"jwks-server/internal/domain"
	"jwks-server/internal/repository"
	"jwks-server/internal/usecase"
)

var fixedNow = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

var (
	keyOnce sync.Once
	keyPair [2]*rsa.PrivateKey
)

func testKeys(t *testing.T) [2]*rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		for i := range keyPair {
			k, err := rsa.GenerateKey(rand.Reader, 2048)
			if err != nil {
				t.Fatalf("failed to generate rsa key: %v", err)
			}
			keyPair[i] = k
		}
	})
	if keyPair[1] == nil {
		t.Fatal("rsa test keys are not available")
	}
	return keyPair
}

// newSeededStore は有効鍵 "valid-key" と期限切れ鍵 "expired-key" を持つストアを返す。
func newSeededStore(t *testing.T) *repository.KeyRepository {
	t.Helper()
	keys := testKeys(t)
	store := repository.NewKeyRepository()
	for _, k := range []*domain.SigningKey{
		{ID: "valid-key", PrivateKey: keys[0], PublicKey: &keys[0].PublicKey, CreatedAt: fixedNow, ExpiresAt: fixedNow.Add(5 * time.Minute)},
		{ID: "expired-key", PrivateKey: keys[1], PublicKey: &keys[1].PublicKey, CreatedAt: fixedNow.Add(-time.Minute), ExpiresAt: fixedNow.Add(-time.Minute)},
	} {
		if err := store.Add(context.Background(), k); err != nil {
			t.Fatalf("failed to add key: %v", err)
		}
	}
	return store
}

func newAuthHandler(store *repository.KeyRepository, issuances *usecase.IssuanceService) *AuthHandler {
	return NewAuthHandler(
		usecase.NewJWKSService(store, 0, nil),
		usecase.NewTokenService(store, "", 0, nil),
		issuances,
		clock,
	)
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
