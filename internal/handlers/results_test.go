package handlers

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/metrics"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/repository"
)

func TestExpectationChartFillsMissingCells(t *testing.T) {
	chart := generateExpectationChart([]repository.ExpectationCell{
		{ExpectedResponse: "agree", ActualResponse: "agree", Count: 3},
		{ExpectedResponse: "disagree", ActualResponse: "agree", Count: 1},
		{ExpectedResponse: "disagree", ActualResponse: "disagree", Count: 2},
	})
	raw, err := json.Marshal(chart.JSON())
	if err != nil {
		t.Fatal(err)
	}
	out := string(raw)
	for _, want := range []string{`"agree"`, `"disagree"`, "Expected vs. Actual Response"} {
		if !strings.Contains(out, want) {
			t.Errorf("chart JSON missing %s: %s", want, out)
		}
	}
	if got := len(chart.MultiSeries); got != 2 {
		t.Fatalf("series = %d, want one per actual response", got)
	}
}

func TestAlignmentAndTimelineCharts(t *testing.T) {
	bar := generateAlignmentChart([]repository.AlignmentCount{
		{Alignment: "ALIGNED", Count: 4},
		{Alignment: "MISALIGNED", Count: 1},
	})
	raw, _ := json.Marshal(bar.JSON())
	if !strings.Contains(string(raw), "MISALIGNED") {
		t.Errorf("alignment chart: %s", raw)
	}

	line := generateTimelineChart([]repository.TimelineDataPoint{
		{Date: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), Value: 0.75},
	}, metrics.BiasFrameworkAccuracy)
	raw, _ = json.Marshal(line.JSON())
	if !strings.Contains(string(raw), metrics.BiasFrameworkAccuracy) {
		t.Errorf("timeline chart: %s", raw)
	}
}

func TestValidMetric(t *testing.T) {
	if !validMetric(metrics.Phase2ScrollDepthMean) {
		t.Error("scroll depth metric rejected")
	}
	if validMetric("typing_speed") || validMetric("") {
		t.Error("unknown metric accepted")
	}
}
