package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(turnsTotal, advisorAnalyses)
}

var (
	turnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turns_total",
			Help: "Finished chat turns by final status.",
		},
		[]string{"status"},
	)

	advisorAnalyses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_analyses_total",
			Help: "Secondary analyses by advisor kind and outcome (produced|empty|failed).",
		},
		[]string{"kind", "outcome"},
	)
)

func TurnFinished(status string) {
	turnsTotal.WithLabelValues(norm(status)).Inc()
}

func AdvisorAnalysis(kind, outcome string) {
	advisorAnalyses.WithLabelValues(norm(kind), norm(outcome)).Inc()
}
