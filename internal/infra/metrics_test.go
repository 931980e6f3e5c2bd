package infra

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue は登録済みメトリクスから指定ラベルのカウンタ値を取り出す。
func counterValue(t *testing.T, reg prometheus.Gatherer, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	m.KeyGenerated("valid")
	m.KeyGenerated("expired")
	m.KeyGenerated("valid")
	m.KeySetServed()
	m.TokenIssued("expired")
	m.SelectionFailed("valid")

	assert.Equal(t, 2.0, counterValue(t, reg, "jwks_keys_generated_total", map[string]string{"state": "valid"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "jwks_keys_generated_total", map[string]string{"state": "expired"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "jwks_keyset_requests_total", nil))
	assert.Equal(t, 1.0, counterValue(t, reg, "jwks_tokens_issued_total", map[string]string{"mode": "expired"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "jwks_token_selection_failures_total", map[string]string{"mode": "valid"}))
}

func TestMetrics_RegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	require.NoError(t, err)
	second, err := NewMetrics(reg)
	require.NoError(t, err)

	first.TokenIssued("valid")
	second.TokenIssued("valid")

	// 2つ目は登録済みのコレクタを共有する
	assert.Equal(t, 2.0, counterValue(t, reg, "jwks_tokens_issued_total", map[string]string{"mode": "valid"}))
}
