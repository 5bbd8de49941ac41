package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordChat(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordChat("ok")
	m.RecordChat("ok")
	m.RecordChat("error")

	expected := `
# HELP safety_insight_chat_requests_total Total number of chat requests by outcome
# TYPE safety_insight_chat_requests_total counter
safety_insight_chat_requests_total{status="error"} 1
safety_insight_chat_requests_total{status="ok"} 2
`
	if err := testutil.CollectAndCompare(m.ChatRequests, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metric output: %v", err)
	}
}

func TestObservations(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveStage(StageRetrieve, 120*time.Millisecond)
	m.ObserveStage(StageComplete, 2*time.Second)
	m.ObserveDocuments(3)
	m.ObserveCitations(3)
	m.RecordEvaluation("ok")

	if count := testutil.CollectAndCount(m.StageDuration); count != 2 {
		t.Errorf("expected 2 stage series, got %d", count)
	}
	if count := testutil.CollectAndCount(m.Documents); count != 1 {
		t.Errorf("expected 1 documents series, got %d", count)
	}
	if v := testutil.ToFloat64(m.Evaluations.WithLabelValues("ok")); v != 1 {
		t.Errorf("evaluations{ok} = %v, want 1", v)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	// Must not panic
	m.RecordChat("ok")
	m.ObserveStage(StageEvaluate, time.Second)
	m.ObserveDocuments(1)
	m.ObserveCitations(1)
	m.RecordEvaluation("error")
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	defer func() {
		if recover() == nil {
			t.Error("registering metrics twice on one registry should panic")
		}
	}()
	New(reg)
}
