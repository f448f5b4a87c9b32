package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 上游服务名
const (
	UpstreamOpenAI   = "openai"
	UpstreamTMDB     = "tmdb"
	UpstreamWhatsApp = "whatsapp"
)

// 消息处理结果
const (
	OutcomeNotUnderstood = "not_understood"
	OutcomeNoResults     = "no_results"
	OutcomeReplied       = "replied"
)

var (
	MessagesHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviebot_messages_total",
			Help: "Count of handled inbound messages by outcome",
		},
		[]string{"outcome"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviebot_upstream_requests_total",
			Help: "Count of outbound API calls",
		},
		[]string{"upstream", "status"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moviebot_upstream_duration_seconds",
			Help:    "Time taken by outbound API calls",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"upstream"},
	)
)

// ObserveUpstream 记录一次上游调用
func ObserveUpstream(upstream string, seconds float64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	UpstreamRequests.WithLabelValues(upstream, status).Inc()
	UpstreamDuration.WithLabelValues(upstream).Observe(seconds)
}
