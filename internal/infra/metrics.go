package infra

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics は鍵・トークン操作のPrometheusメトリクス。
type Metrics struct {
	keysGenerated     *prometheus.CounterVec
	keySetRequests    prometheus.Counter
	tokensIssued      *prometheus.CounterVec
	selectionFailures *prometheus.CounterVec
}

// NewMetrics はメトリクスを生成して reg に登録する。reg が nil ならデフォルトに登録する。
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		keysGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jwks_keys_generated_total",
			Help: "Signing keys generated, by state at creation",
		}, []string{"state"}),
		keySetRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jwks_keyset_requests_total",
			Help: "Key set documents served",
		}),
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jwks_tokens_issued_total",
			Help: "Tokens signed, by requested mode",
		}, []string{"mode"}),
		selectionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jwks_token_selection_failures_total",
			Help: "Token requests with no matching key, by requested mode",
		}, []string{"mode"}),
	}

	var err error
	if m.keysGenerated, err = register(reg, m.keysGenerated); err != nil {
		return nil, err
	}
	if m.keySetRequests, err = register(reg, m.keySetRequests); err != nil {
		return nil, err
	}
	if m.tokensIssued, err = register(reg, m.tokensIssued); err != nil {
		return nil, err
	}
	if m.selectionFailures, err = register(reg, m.selectionFailures); err != nil {
		return nil, err
	}
	return m, nil
}

// register は c を登録する。同名のコレクタが登録済みならそちらを返す。
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) KeyGenerated(state string)   { m.keysGenerated.WithLabelValues(state).Inc() }
func (m *Metrics) KeySetServed()               { m.keySetRequests.Inc() }
func (m *Metrics) TokenIssued(mode string)     { m.tokensIssued.WithLabelValues(mode).Inc() }
func (m *Metrics) SelectionFailed(mode string) { m.selectionFailures.WithLabelValues(mode).Inc() }
