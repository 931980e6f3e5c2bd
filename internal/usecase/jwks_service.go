package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"jwks-server/internal/domain"
)

const (
	keyTypeRSA     = "RSA"
	keyUseSig      = "sig"
	algorithmRS256 = "RS256"
)

// ValidKeySource は有効な鍵を列挙できるストア。
type ValidKeySource interface {
	ValidKeys(now time.Time) []*domain.SigningKey
}

// KeySetStore はJWKSServiceが参照するストアのインターフェース。
type KeySetStore interface {
	ValidKeySource
	Len() int
}

// Project は now 時点で有効な鍵だけをJWKSに変換する。秘密鍵の情報は含めない。
func Project(store ValidKeySource, now time.Time) (*domain.JWKS, error) {
	return projectKeys(store.ValidKeys(now))
}

func projectKeys(keys []*domain.SigningKey) (*domain.JWKS, error) {
	jwks := &domain.JWKS{Keys: make([]domain.JWK, 0, len(keys))}
	for _, k := range keys {
		jwk, err := toJWK(k)
		if err != nil {
			return nil, err
		}
		jwks.Keys = append(jwks.Keys, jwk)
	}
	return jwks, nil
}

func toJWK(k *domain.SigningKey) (domain.JWK, error) {
	pub := k.PublicKey
	if pub == nil || pub.N == nil || pub.N.Sign() <= 0 || pub.E <= 0 {
		return domain.JWK{}, fmt.Errorf("%w: malformed public key %s", domain.ErrEncoding, k.ID)
	}
	return domain.JWK{
		Kty: keyTypeRSA,
		Kid: k.ID,
		Use: keyUseSig,
		Alg: algorithmRS256,
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}, nil
}

// JWKSService は公開鍵セットをJSONで提供する。
type JWKSService struct {
	store    KeySetStore
	cache    *gocache.Cache
	cacheTTL time.Duration
	metrics  Metrics
}

// keySetEntry はキャッシュしたJWKSと、それが正しい時刻の範囲 [from, until) を持つ。
// until がゼロ値なら上限なし。
type keySetEntry struct {
	body  []byte
	from  time.Time
	until time.Time
}

func (e *keySetEntry) validAt(now time.Time) bool {
	if now.Before(e.from) {
		return false
	}
	return e.until.IsZero() || now.Before(e.until)
}

// NewJWKSService は新しいJWKSServiceを生成する。cacheTTL が0以下ならキャッシュしない。
func NewJWKSService(store KeySetStore, cacheTTL time.Duration, metrics Metrics) *JWKSService {
	s := &JWKSService{
		store:    store,
		cacheTTL: cacheTTL,
		metrics:  metricsOrNop(metrics),
	}
	if cacheTTL > 0 {
		s.cache = gocache.New(cacheTTL, time.Minute)
	}
	return s
}

// KeySet は now 時点のJWKSをJSONで返す。
// ストアは追加のみなので、鍵の件数をキャッシュキーにしている。
// キャッシュは now が生成時刻から最初の鍵の失効時刻までの間にある場合だけ使う。
func (s *JWKSService) KeySet(ctx context.Context, now time.Time) ([]byte, error) {
	ctx, span := otel.Tracer("jwks-server/usecase").Start(ctx, "JWKSService.KeySet")
	defer span.End()

	s.metrics.KeySetServed()

	cacheKey := "jwks:" + strconv.Itoa(s.store.Len())
	if s.cache != nil {
		if v, ok := s.cache.Get(cacheKey); ok {
			if entry := v.(*keySetEntry); entry.validAt(now) {
				span.SetAttributes(attribute.Bool("jwks.cache_hit", true))
				return entry.body, nil
			}
		}
	}

	valid := s.store.ValidKeys(now)
	jwks, err := projectKeys(valid)
	if err != nil {
		slog.ErrorContext(ctx, "failed to project key set", "error", err)
		return nil, err
	}
	body, err := json.Marshal(jwks)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEncoding, err)
	}
	span.SetAttributes(attribute.Int("jwks.keys", len(jwks.Keys)))

	if s.cache != nil {
		s.cache.Set(cacheKey, &keySetEntry{body: body, from: now, until: earliestExpiry(valid)}, s.ttlFor(valid, now))
	}
	return body, nil
}

// earliestExpiry は鍵のうち最も早い失効時刻を返す。鍵がなければゼロ値。
func earliestExpiry(keys []*domain.SigningKey) time.Time {
	var earliest time.Time
	for _, k := range keys {
		if earliest.IsZero() || k.ExpiresAt.Before(earliest) {
			earliest = k.ExpiresAt
		}
	}
	return earliest
}

// ttlFor はキャッシュの保持期間を、含まれる鍵のうち最も早い失効時刻までに制限する。
func (s *JWKSService) ttlFor(valid []*domain.SigningKey, now time.Time) time.Duration {
	ttl := s.cacheTTL
	if until := earliestExpiry(valid); !until.IsZero() {
		if remaining := until.Sub(now); remaining < ttl {
			ttl = remaining
		}
	}
	return ttl
}
