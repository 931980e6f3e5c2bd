package usecase

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"jwks-server/internal/domain"
	"jwks-server/internal/repository"
)

var baseTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

var (
	rsaOnce sync.Once
	rsaKeys []*rsa.PrivateKey
	rsaErr  error
)

// testRSAKey は i 番目の共有テスト鍵を返す。2048bit鍵の生成は遅いので使い回す。
func testRSAKey(t *testing.T, i int) *rsa.PrivateKey {
	t.Helper()
	rsaOnce.Do(func() {
		for n := 0; n < 3; n++ {
			k, err := rsa.GenerateKey(rand.Reader, keyBits)
			if err != nil {
				rsaErr = err
				return
			}
			rsaKeys = append(rsaKeys, k)
		}
	})
	require.NoError(t, rsaErr)
	return rsaKeys[i]
}

func newSigningKey(t *testing.T, i int, id string, expiresAt time.Time) *domain.SigningKey {
	t.Helper()
	priv := testRSAKey(t, i)
	return &domain.SigningKey{
		ID:         id,
		PrivateKey: priv,
		PublicKey:  &priv.PublicKey,
		CreatedAt:  baseTime,
		ExpiresAt:  expiresAt,
	}
}

// seededStore は5分後に失効する鍵と1分前に失効した鍵を持つストアを返す。
func seededStore(t *testing.T) (*repository.KeyRepository, *domain.SigningKey, *domain.SigningKey) {
	t.Helper()
	store := repository.NewKeyRepository()
	valid := newSigningKey(t, 0, "valid-key", baseTime.Add(5*time.Minute))
	expired := newSigningKey(t, 1, "expired-key", baseTime.Add(-time.Minute))
	require.NoError(t, store.Add(context.Background(), valid))
	require.NoError(t, store.Add(context.Background(), expired))
	return store, valid, expired
}

type countingMetrics struct {
	mu        sync.Mutex
	generated map[string]int
	served    int
	issued    map[string]int
	failed    map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		generated: map[string]int{},
		issued:    map[string]int{},
		failed:    map[string]int{},
	}
}

func (m *countingMetrics) KeyGenerated(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generated[state]++
}

func (m *countingMetrics) KeySetServed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.served++
}

func (m *countingMetrics) TokenIssued(mode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issued[mode]++
}

func (m *countingMetrics) SelectionFailed(mode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed[mode]++
}
