package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome 標籤值。
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// AuthMetrics 記錄驗證流程各操作的結果次數；每個實例擁有獨立 registry。
type AuthMetrics struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
}

// New 建立 AuthMetrics 並註冊 Go runtime collector。
func New() *AuthMetrics {
	reg := prometheus.NewRegistry()
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "huntclub",
		Subsystem: "auth",
		Name:      "events_total",
		Help:      "Authentication flow outcomes by operation.",
	}, []string{"operation", "outcome"})
	reg.MustRegister(events, collectors.NewGoCollector())
	return &AuthMetrics{registry: reg, events: events}
}

// Record 累加一次 operation/outcome 事件。
func (m *AuthMetrics) Record(operation, outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(operation, outcome).Inc()
}

// Handler 以 Prometheus 文字格式輸出。
func (m *AuthMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
