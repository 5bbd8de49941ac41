// Package metrics exposes Prometheus instrumentation for the chat pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "safety_insight"

// Pipeline stages observed by StageDuration.
const (
	StageRetrieve = "retrieve"
	StageComplete = "complete"
	StageEvaluate = "evaluate"
)

// Metrics holds the chat pipeline collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ChatRequests  *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	Documents     prometheus.Histogram
	Citations     prometheus.Histogram
	Evaluations   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ChatRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Total number of chat requests by outcome",
		}, []string{"status"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of chat pipeline stages",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"stage"}),
		Documents: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieved_documents",
			Help:      "Number of documents kept after the similarity threshold",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 10},
		}),
		Citations: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reply_links",
			Help:      "Number of markdown links in formatted replies",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 10},
		}),
		Evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Total number of reply evaluations by outcome",
		}, []string{"status"}),
	}
}

// RecordChat counts a chat request with the given outcome status.
func (m *Metrics) RecordChat(status string) {
	if m == nil || m.ChatRequests == nil {
		return
	}
	m.ChatRequests.WithLabelValues(status).Inc()
}

// ObserveStage records how long a pipeline stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil || m.StageDuration == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveDocuments records the number of documents retrieved for a question.
func (m *Metrics) ObserveDocuments(n int) {
	if m == nil || m.Documents == nil {
		return
	}
	m.Documents.Observe(float64(n))
}

// ObserveCitations records the number of markdown links in a reply.
func (m *Metrics) ObserveCitations(n int) {
	if m == nil || m.Citations == nil {
		return
	}
	m.Citations.Observe(float64(n))
}

// RecordEvaluation counts an evaluation attempt by outcome.
func (m *Metrics) RecordEvaluation(status string) {
	if m == nil || m.Evaluations == nil {
		return
	}
	m.Evaluations.WithLabelValues(status).Inc()
}
