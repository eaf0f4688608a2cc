package metrics

import (
	"math"
	"testing"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/models"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCalculateSessionMetrics(t *testing.T) {
	in := Input{
		Responses: []models.StatementResponse{
			{StatementCode: "S1", SelectedOption: "4", AgreementReactionTime: "2.000", AttentionCheckResponse: "YES", AttentionCheckReactionTime: "1.000"},
			{StatementCode: "S2", SelectedOption: "2", AgreementReactionTime: "4.000 seconds", AttentionCheckResponse: "YES", AttentionCheckReactionTime: "3.000"},
			{StatementCode: "S3", SelectedOption: models.NoResponse, AgreementReactionTime: "30.000", AttentionCheckResponse: models.AttentionNoResponse, AttentionCheckReactionTime: models.AttentionTimeout},
		},
		AttentionAnswers: map[string]string{"S1": "yes", "S2": "NO", "S3": "YES"},
		Articles: []models.SelectedArticle{
			{SelectedOption: "5", AttentionAnswer: "yes", AttentionCheckResponse: "YES", AttentionCheckReactionTime: "0.800"},
			{SelectedOption: models.NoResponse},
		},
		BiasEvents: []models.BiasExpectationEvent{
			{Phase1Rating: 5, Phase2Rating: 4, ReadingTime: 40, ScrollDepth: 0.5, Alignment: models.Aligned},
			{Phase1Rating: 1, Phase2Rating: 3, ReadingTime: 20, ScrollDepth: 1, Alignment: models.UnexpectedNeutral},
			{Phase1Rating: 3, Alignment: models.AlignmentPending},
		},
		BiasReport: &models.ValidationReport{CompletedEvents: 2, FrameworkAccuracy: 0.5, AverageSurpriseScore: 0.25},
	}
	m := CalculateSessionMetrics(in)

	check := func(key string, want float64, calculated bool) {
		t.Helper()
		got := m[key]
		if got.Calculated != calculated || (calculated && !approx(got.Value, want)) {
			t.Errorf("%s = %+v, want %v (calculated=%v)", key, got, want, calculated)
		}
	}
	check(Phase1AgreementRTMean, 3, true)
	check(Phase1AgreementRTSD, 1, true)
	check(Phase1NoResponseCount, 1, true)
	check(Phase1AttentionAccuracy, 1.0/3.0, true)
	check(Phase1AttentionTimeouts, 1, true)
	check(Phase1AttentionRTMean, 2, true)
	check(Phase2NoResponseCount, 1, true)
	check(Phase2AttentionAccuracy, 1, true)
	check(Phase2AttentionTimeouts, 0, true)
	check(Phase2ReadingTimeMean, 30, true)
	check(Phase2ScrollDepthMean, 0.75, true)
	check(Phase2RatingShiftMean, 0.5, true)
	check(BiasFrameworkAccuracy, 0.5, true)
}

func TestMetricsWithoutData(t *testing.T) {
	m := CalculateSessionMetrics(Input{})
	for _, key := range []string{Phase1AgreementRTMean, Phase1AgreementRTSD, Phase1AttentionAccuracy, Phase2ReadingTimeMean, BiasAverageSurprise} {
		if m[key].Calculated {
			t.Errorf("%s calculated without data", key)
		}
	}
}

func TestScrollTracker(t *testing.T) {
	s := NewScrollTracker(0.1, 5)
	if s.MaxDepth() != 0 {
		t.Fatal("depth before any observation")
	}

	if _, stream := s.Observe(0.95); stream || s.SignificantChanges() != 0 {
		t.Fatal("small change counted as significant")
	}

	positions := []float64{0.8, 0.6, 0.4, 0.2, 0.0}
	var streamed []int
	for i, p := range positions {
		depth, stream := s.Observe(p)
		if !approx(depth, 1-p) {
			t.Errorf("depth = %v, want %v", depth, 1-p)
		}
		if stream {
			streamed = append(streamed, i)
		}
	}
	if len(streamed) != 1 || streamed[0] != 4 {
		t.Errorf("streamed = %v, want only the 5th significant change", streamed)
	}

	s.Observe(0.9)
	if !approx(s.MaxDepth(), 1) {
		t.Errorf("max depth = %v, want 1", s.MaxDepth())
	}
	s.Observe(-3)
	if !approx(s.MaxDepth(), 1) {
		t.Error("out of range position not clamped")
	}
}
