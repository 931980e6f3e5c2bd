// Package repository はデータアクセス層の実装を提供する。
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"jwks-server/internal/domain"
)

// KeyRepository はプロセス内で署名鍵を保持するストア。
// 鍵は追加順に保持され、削除・更新はされない。
type KeyRepository struct {
	mu   sync.RWMutex
	keys []*domain.SigningKey
	ids  map[string]struct{}
}

// NewKeyRepository は空のKeyRepositoryを生成する。
func NewKeyRepository() *KeyRepository {
	return &KeyRepository{ids: make(map[string]struct{})}
}

// Add は鍵を末尾に追加する。
func (r *KeyRepository) Add(ctx context.Context, key *domain.SigningKey) error {
	if key == nil {
		return fmt.Errorf("%w: nil key", domain.ErrKeyGeneration)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ids[key.ID]; ok {
		slog.ErrorContext(ctx, "duplicate key id",
			"operation", "add",
			"kid", key.ID,
		)
		return fmt.Errorf("%w: %s", domain.ErrDuplicateKeyID, key.ID)
	}
	r.ids[key.ID] = struct{}{}
	r.keys = append(r.keys, key)
	return nil
}

// snapshot は現在の鍵一覧を返す。追加のみなので先頭からlen分は以後も不変。
func (r *KeyRepository) snapshot() []*domain.SigningKey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.keys[:len(r.keys):len(r.keys)]
}

// All は全ての鍵を追加順に返す。
func (r *KeyRepository) All() []*domain.SigningKey {
	keys := r.snapshot()
	out := make([]*domain.SigningKey, len(keys))
	copy(out, keys)
	return out
}

// Len は保持している鍵の数を返す。
func (r *KeyRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys)
}

// ValidKeys は now 時点で有効な鍵を追加順に返す。
func (r *KeyRepository) ValidKeys(now time.Time) []*domain.SigningKey {
	var out []*domain.SigningKey
	for _, k := range r.snapshot() {
		if k.IsValid(now) {
			out = append(out, k)
		}
	}
	return out
}

// ExpiredKeys は now 時点で期限切れの鍵を追加順に返す。
func (r *KeyRepository) ExpiredKeys(now time.Time) []*domain.SigningKey {
	var out []*domain.SigningKey
	for _, k := range r.snapshot() {
		if k.IsExpired(now) {
			out = append(out, k)
		}
	}
	return out
}

// AnyValid は最初の有効な鍵を返す。
func (r *KeyRepository) AnyValid(now time.Time) (*domain.SigningKey, bool) {
	for _, k := range r.snapshot() {
		if k.IsValid(now) {
			return k, true
		}
	}
	return nil, false
}

// AnyExpired は最初の期限切れの鍵を返す。
func (r *KeyRepository) AnyExpired(now time.Time) (*domain.SigningKey, bool) {
	for _, k := range r.snapshot() {
		if k.IsExpired(now) {
			return k, true
		}
	}
	return nil, false
}
