package jobmetrics

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	_ = metrics.Track("leaderboard:warm").End(nil)
	err := metrics.Track("leaderboard:warm").End(errors.New("boom"))
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected error to pass through, got %v", err)
	}
	metrics.AddSolve()

	expected := `
# HELP mockround_jobs_total Total job executions partitioned by task and status.
# TYPE mockround_jobs_total counter
mockround_jobs_total{status="failure",task="leaderboard:warm"} 1
mockround_jobs_total{status="success",task="leaderboard:warm"} 1
`
	if err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "mockround_jobs_total"); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(metrics.solves); got != 1 {
		t.Fatalf("expected 1 solve, got %v", got)
	}
}

func TestNilMetricsTrackerIsNoop(t *testing.T) {
	var metrics *Metrics
	if err := metrics.Track("x").End(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	metrics.AddSolve()
}
