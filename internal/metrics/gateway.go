package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		gatewayCalls,
		gatewayLatencyMs,
		gatewayFallbacks,
	)
}

var (
	gatewayCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_calls_total",
			Help: "Completion calls issued to the model gateway per model and outcome.",
		},
		[]string{"model", "outcome"},
	)

	gatewayLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_call_latency_ms",
			Help:    "Model gateway call latency distribution in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2000, 4000, 8000, 16000, 32000},
		},
		[]string{"model"},
	)

	gatewayFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_fallbacks_total",
			Help: "Retries against the fallback model after a primary model failure.",
		},
		[]string{"from", "to"},
	)
)

// ObserveGatewayCall records one completion call. outcome is "ok", "error" or "canceled".
func ObserveGatewayCall(model, outcome string, latencyMs int64) {
	gatewayCalls.WithLabelValues(norm(model), norm(outcome)).Inc()
	gatewayLatencyMs.WithLabelValues(norm(model)).Observe(float64(latencyMs))
}

func GatewayFallback(from, to string) {
	gatewayFallbacks.WithLabelValues(norm(from), norm(to)).Inc()
}
