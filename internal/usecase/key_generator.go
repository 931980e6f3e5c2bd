// Package usecase はアプリケーションのユースケースを実装する。
package usecase

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"jwks-server/internal/domain"
)

const (
	keyBits = 2048

	// DefaultKeyTTL は有効な鍵の有効期間。
	DefaultKeyTTL = 5 * time.Minute
	// expiredKeyAge は期限切れ鍵を生成するときに過去へずらす時間。
	expiredKeyAge = time.Minute
)

// KeyAdder は生成した鍵を受け取るストアのインターフェース。
type KeyAdder interface {
	Add(ctx context.Context, key *domain.SigningKey) error
}

// KeyGenerator はRSA鍵ペアを生成し、IDと有効期間を付与する。
type KeyGenerator struct {
	keyTTL  time.Duration
	now     func() time.Time
	metrics Metrics

	generateRSA func(bits int) (*rsa.PrivateKey, error)
}

// GeneratorOption はKeyGeneratorの設定を変更する。
type GeneratorOption func(*KeyGenerator)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *KeyGenerator) { g.now = now }
}

// WithKeyTTL は有効な鍵の有効期間を変更する。
func WithKeyTTL(ttl time.Duration) GeneratorOption {
	return func(g *KeyGenerator) {
		if ttl > 0 {
			g.keyTTL = ttl
		}
	}
}

// WithGeneratorMetrics は計測先を設定する。
func WithGeneratorMetrics(m Metrics) GeneratorOption {
	return func(g *KeyGenerator) { g.metrics = metricsOrNop(m) }
}

// NewKeyGenerator は新しいKeyGeneratorを生成する。
func NewKeyGenerator(opts ...GeneratorOption) *KeyGenerator {
	g := &KeyGenerator{
		keyTTL:  DefaultKeyTTL,
		now:     time.Now,
		metrics: nopMetrics{},
		generateRSA: func(bits int) (*rsa.PrivateKey, error) {
			return rsa.GenerateKey(rand.Reader, bits)
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate は新しい鍵を生成する。expired が true の場合は生成時点で期限切れの鍵になる。
func (g *KeyGenerator) Generate(ctx context.Context, expired bool) (*domain.SigningKey, error) {
	privateKey, err := g.generateRSA(keyBits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKeyGeneration, err)
	}

	now := g.now()
	expiresAt := now.Add(g.keyTTL)
	if expired {
		expiresAt = now.Add(-expiredKeyAge)
	}

	key := &domain.SigningKey{
		ID:         uuid.New().String(),
		PrivateKey: privateKey,
		PublicKey:  &privateKey.PublicKey,
		CreatedAt:  now,
		ExpiresAt:  expiresAt,
	}

	state := key.State(now)
	g.metrics.KeyGenerated(string(state))
	slog.InfoContext(ctx, "generated signing key",
		"kid", key.ID,
		"state", state,
		"expires_at", key.ExpiresAt.UTC().Format(time.RFC3339),
	)
	return key, nil
}

// Seed は有効な鍵と期限切れの鍵を1つずつ生成してストアに追加する。
func (g *KeyGenerator) Seed(ctx context.Context, store KeyAdder) error {
	for _, expired := range []bool{false, true} {
		key, err := g.Generate(ctx, expired)
		if err != nil {
			return err
		}
		if err := store.Add(ctx, key); err != nil {
			return fmt.Errorf("adding seed key: %w", err)
		}
	}
	return nil
}
