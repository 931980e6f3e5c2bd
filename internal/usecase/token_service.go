package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"jwks-server/internal/domain"
)

const (
	// DefaultSubject はデモ用に固定で埋め込むsubクレーム。
	DefaultSubject = "sample-user"
	// DefaultTokenTTL は有効なトークンのexpまでの時間。
	DefaultTokenTTL = 5 * time.Minute
)

// KeySelector はモードに応じて署名鍵を選ぶストアのインターフェース。
type KeySelector interface {
	AnyValid(now time.Time) (*domain.SigningKey, bool)
	AnyExpired(now time.Time) (*domain.SigningKey, bool)
}

// TokenService は選択した鍵でRS256トークンに署名する。
type TokenService struct {
	store    KeySelector
	subject  string
	tokenTTL time.Duration
	metrics  Metrics
}

// NewTokenService は新しいTokenServiceを生成する。
func NewTokenService(store KeySelector, subject string, tokenTTL time.Duration, metrics Metrics) *TokenService {
	if subject == "" {
		subject = DefaultSubject
	}
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &TokenService{
		store:    store,
		subject:  subject,
		tokenTTL: tokenTTL,
		metrics:  metricsOrNop(metrics),
	}
}

// Issue はトークンを発行する。
// wantExpired が true の場合は期限切れ鍵で署名し、expも鍵の失効時刻（過去）にする。
func (s *TokenService) Issue(ctx context.Context, now time.Time, wantExpired bool) (*domain.IssuedToken, error) {
	mode := tokenMode(wantExpired)
	ctx, span := otel.Tracer("jwks-server/usecase").Start(ctx, "TokenService.Issue")
	defer span.End()
	span.SetAttributes(attribute.String("token.mode", mode))

	var (
		key *domain.SigningKey
		ok  bool
	)
	if wantExpired {
		key, ok = s.store.AnyExpired(now)
	} else {
		key, ok = s.store.AnyValid(now)
	}
	if !ok {
		s.metrics.SelectionFailed(mode)
		span.SetStatus(codes.Error, domain.ErrNoSuitableKey.Error())
		return nil, domain.ErrNoSuitableKey
	}

	expiresAt := now.Add(s.tokenTTL)
	if wantExpired {
		expiresAt = key.ExpiresAt
	}

	claims := jwt.RegisteredClaims{
		Subject:   s.subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = key.ID

	signed, err := token.SignedString(key.PrivateKey)
	if err != nil {
		slog.ErrorContext(ctx, "failed to sign token", "kid", key.ID, "error", err)
		span.SetStatus(codes.Error, "signing failed")
		return nil, fmt.Errorf("%w: signing with %s: %v", domain.ErrEncoding, key.ID, err)
	}

	s.metrics.TokenIssued(mode)
	span.SetAttributes(attribute.String("token.kid", key.ID))
	return &domain.IssuedToken{
		Token:     signed,
		KeyID:     key.ID,
		Subject:   s.subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		Expired:   wantExpired,
	}, nil
}
