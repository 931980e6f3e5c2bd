package usecase

import (
	"context"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jwks-server/internal/domain"
	"jwks-server/internal/repository"
)

func TestKeyService_CreateAndList(t *testing.T) {
	ctx := context.Background()
	store := repository.NewKeyRepository()
	g := NewKeyGenerator(WithClock(func() time.Time { return baseTime }))
	g.generateRSA = fakeRSA(t)
	svc := NewKeyService(store, g)

	valid, err := svc.CreateKey(ctx, baseTime, false)
	require.NoError(t, err)
	assert.Equal(t, domain.KeyStateValid, valid.State)

	expired, err := svc.CreateKey(ctx, baseTime, true)
	require.NoError(t, err)
	assert.Equal(t, domain.KeyStateExpired, expired.State)

	list := svc.ListKeys(ctx, baseTime)
	require.Len(t, list, 2)
	assert.Equal(t, valid.ID, list[0].ID)
	assert.Equal(t, expired.ID, list[1].ID)

	// 状態は問い合わせ時刻から導出される
	list = svc.ListKeys(ctx, baseTime.Add(10*time.Minute))
	assert.Equal(t, domain.KeyStateExpired, list[0].State)
}

func TestKeyService_CreateKey_GenerationFailure(t *testing.T) {
	store := repository.NewKeyRepository()
	g := NewKeyGenerator()
	g.generateRSA = func(int) (*rsa.PrivateKey, error) { return nil, assert.AnError }
	svc := NewKeyService(store, g)

	_, err := svc.CreateKey(context.Background(), baseTime, false)
	require.ErrorIs(t, err, domain.ErrKeyGeneration)
	assert.Zero(t, store.Len())
}
