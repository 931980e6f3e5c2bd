package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jwks-server/internal/domain"
)

// mockIssuanceRepository はテスト用のモック。
type mockIssuanceRepository struct {
	records   []*domain.TokenIssuance
	recordErr error
}

func (m *mockIssuanceRepository) Record(ctx context.Context, issuance *domain.TokenIssuance) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	issuance.ID = "issuance-1"
	m.records = append(m.records, issuance)
	return nil
}

func (m *mockIssuanceRepository) FindByKeyID(ctx context.Context, kid string) ([]*domain.TokenIssuance, error) {
	var out []*domain.TokenIssuance
	for _, r := range m.records {
		if r.KeyID == kid {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestIssuanceService_Record(t *testing.T) {
	repo := &mockIssuanceRepository{}
	svc := NewIssuanceService(repo)
	jst := time.FixedZone("JST", 9*60*60)

	err := svc.Record(context.Background(), &domain.IssuedToken{
		Token:     "header.payload.signature",
		KeyID:     "kid-1",
		Subject:   "sample-user",
		IssuedAt:  baseTime.In(jst),
		ExpiresAt: baseTime.Add(5 * time.Minute).In(jst),
	})
	require.NoError(t, err)

	list, err := svc.ListByKeyID(context.Background(), "kid-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "sample-user", list[0].Subject)
	assert.Equal(t, time.UTC, list[0].IssuedAt.Location())
	assert.True(t, baseTime.Equal(list[0].IssuedAt))

	list, err = svc.ListByKeyID(context.Background(), "other")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestIssuanceService_Record_Error(t *testing.T) {
	repoErr := errors.New("connection refused")
	svc := NewIssuanceService(&mockIssuanceRepository{recordErr: repoErr})

	err := svc.Record(context.Background(), &domain.IssuedToken{KeyID: "kid-1"})
	require.ErrorIs(t, err, repoErr)
}
