package usecase

import (
	"context"
	"fmt"

	"jwks-server/internal/domain"
)

// IssuanceRepository はトークン発行履歴の保存先。
type IssuanceRepository interface {
	Record(ctx context.Context, issuance *domain.TokenIssuance) error
	FindByKeyID(ctx context.Context, kid string) ([]*domain.TokenIssuance, error)
}

// IssuanceService はトークン発行履歴を記録・参照する。
type IssuanceService struct {
	repo IssuanceRepository
}

// NewIssuanceService は新しいIssuanceServiceを生成する。
func NewIssuanceService(repo IssuanceRepository) *IssuanceService {
	return &IssuanceService{repo: repo}
}

// Record は発行済みトークンの履歴を保存する。トークン文字列は保存しない。
func (s *IssuanceService) Record(ctx context.Context, token *domain.IssuedToken) error {
	issuance := &domain.TokenIssuance{
		KeyID:     token.KeyID,
		Subject:   token.Subject,
		Expired:   token.Expired,
		IssuedAt:  token.IssuedAt.UTC(),
		ExpiresAt: token.ExpiresAt.UTC(),
	}
	if err := s.repo.Record(ctx, issuance); err != nil {
		return fmt.Errorf("recording issuance: %w", err)
	}
	return nil
}

// ListByKeyID は指定された鍵で発行された履歴を返す。
func (s *IssuanceService) ListByKeyID(ctx context.Context, kid string) ([]*domain.TokenIssuance, error) {
	issuances, err := s.repo.FindByKeyID(ctx, kid)
	if err != nil {
		return nil, fmt.Errorf("finding issuances: %w", err)
	}
	return issuances, nil
}
