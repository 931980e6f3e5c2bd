package usecase

import (
	"context"
	"fmt"
	"time"

	"jwks-server/internal/domain"
)

// KeyStore は鍵の追加と一覧取得ができるストアのインターフェース。
type KeyStore interface {
	KeyAdder
	All() []*domain.SigningKey
}

// KeyService は管理用の鍵操作（追加生成・一覧）を提供する。
type KeyService struct {
	store     KeyStore
	generator *KeyGenerator
}

// NewKeyService は新しいKeyServiceを生成する。
func NewKeyService(store KeyStore, generator *KeyGenerator) *KeyService {
	return &KeyService{
		store:     store,
		generator: generator,
	}
}

// CreateKey は鍵を1つ生成してストアに追加する。
func (s *KeyService) CreateKey(ctx context.Context, now time.Time, expired bool) (*domain.KeyMetadata, error) {
	key, err := s.generator.Generate(ctx, expired)
	if err != nil {
		return nil, err
	}
	if err := s.store.Add(ctx, key); err != nil {
		return nil, fmt.Errorf("adding key: %w", err)
	}
	return key.Metadata(now), nil
}

// ListKeys は全ての鍵のメタデータを追加順に返す。
func (s *KeyService) ListKeys(ctx context.Context, now time.Time) []*domain.KeyMetadata {
	keys := s.store.All()
	out := make([]*domain.KeyMetadata, len(keys))
	for i, k := range keys {
		out[i] = k.Metadata(now)
	}
	return out
}
