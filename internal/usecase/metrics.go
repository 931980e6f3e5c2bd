package usecase

// Metrics は鍵・トークン操作の計測点。
type Metrics interface {
	KeyGenerated(state string)
	KeySetServed()
	TokenIssued(mode string)
	SelectionFailed(mode string)
}

type nopMetrics struct{}

func (nopMetrics) KeyGenerated(string)    {}
func (nopMetrics) KeySetServed()          {}
func (nopMetrics) TokenIssued(string)     {}
func (nopMetrics) SelectionFailed(string) {}

func metricsOrNop(m Metrics) Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}

// tokenMode はメトリクスや監査ログで使う発行モード名を返す。
func tokenMode(wantExpired bool) string {
	if wantExpired {
		return "expired"
	}
	return "valid"
}
