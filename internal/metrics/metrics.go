// Package metrics derives summary measures from a session's responses and
// tracks scroll behaviour while an article is read.
package metrics

import (
	"math"
	"strconv"
	"strings"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/models"
)

// Metric keys of the session summary.
const (
	Phase1AgreementRTMean   = "phase1_agreement_rt_mean"
	Phase1AgreementRTSD     = "phase1_agreement_rt_sd"
	Phase1NoResponseCount   = "phase1_no_response_count"
	Phase1AttentionAccuracy = "phase1_attention_accuracy"
	Phase1AttentionTimeouts = "phase1_attention_timeouts"
	Phase1AttentionRTMean   = "phase1_attention_rt_mean"
	Phase2NoResponseCount   = "phase2_no_response_count"
	Phase2AttentionAccuracy = "phase2_attention_accuracy"
	Phase2AttentionTimeouts = "phase2_attention_timeouts"
	Phase2ReadingTimeMean   = "phase2_reading_time_mean"
	Phase2ScrollDepthMean   = "phase2_scroll_depth_mean"
	Phase2RatingShiftMean   = "phase2_rating_shift_mean"
	BiasFrameworkAccuracy   = "bias_framework_accuracy"
	BiasAverageSurprise     = "bias_average_surprise"
)

// Input gathers what the summary is computed from. AttentionAnswers maps a
// statement code to its expected attention-check answer.
type Input struct {
	Responses        []models.StatementResponse
	AttentionAnswers map[string]string
	Articles         []models.SelectedArticle
	BiasEvents       []models.BiasExpectationEvent
	BiasReport       *models.ValidationReport
}

// CalculateSessionMetrics computes every summary metric. Metrics without
// enough data are returned with Calculated=false.
func CalculateSessionMetrics(in Input) map[string]models.MetricResult {
	out := make(map[string]models.MetricResult)

	rts := agreementReactionTimes(in.Responses)
	out[Phase1AgreementRTMean] = meanResult(rts)
	out[Phase1AgreementRTSD] = sdResult(rts)
	out[Phase1NoResponseCount] = countResult(countNoResponse(in.Responses), len(in.Responses))

	p1 := make([]attentionOutcome, 0, len(in.Responses))
	for _, r := range in.Responses {
		if r.StatementCode == "" || !r.AttentionAnswered() {
			continue
		}
		p1 = append(p1, attentionOutcome{
			response: r.AttentionCheckResponse,
			expected: in.AttentionAnswers[r.StatementCode],
			rt:       r.AttentionCheckReactionTime,
		})
	}
	out[Phase1AttentionAccuracy] = accuracyResult(p1)
	out[Phase1AttentionTimeouts] = countResult(countTimeouts(p1), len(p1))
	out[Phase1AttentionRTMean] = meanResult(attentionReactionTimes(p1))

	p2 := make([]attentionOutcome, 0, len(in.Articles))
	nr := 0
	for _, a := range in.Articles {
		if a.SelectedOption == models.NoResponse {
			nr++
		}
		if a.AttentionCheckResponse == "" {
			continue
		}
		p2 = append(p2, attentionOutcome{response: a.AttentionCheckResponse, expected: a.AttentionAnswer, rt: a.AttentionCheckReactionTime})
	}
	out[Phase2NoResponseCount] = countResult(nr, len(in.Articles))
	out[Phase2AttentionAccuracy] = accuracyResult(p2)
	out[Phase2AttentionTimeouts] = countResult(countTimeouts(p2), len(p2))

	var reading, scroll, shift []float64
	for _, e := range in.BiasEvents {
		if !e.Completed() {
			continue
		}
		reading = append(reading, e.ReadingTime)
		scroll = append(scroll, e.ScrollDepth)
		shift = append(shift, float64(e.Phase2Rating-e.Phase1Rating))
	}
	out[Phase2ReadingTimeMean] = meanResult(reading)
	out[Phase2ScrollDepthMean] = meanResult(scroll)
	out[Phase2RatingShiftMean] = meanResult(shift)

	if r := in.BiasReport; r != nil && r.CompletedEvents > 0 {
		out[BiasFrameworkAccuracy] = models.MetricResult{Value: r.FrameworkAccuracy, Calculated: true, SampleSize: r.CompletedEvents}
		out[BiasAverageSurprise] = models.MetricResult{Value: r.AverageSurpriseScore, Calculated: true, SampleSize: r.CompletedEvents}
	} else {
		out[BiasFrameworkAccuracy] = models.MetricResult{}
		out[BiasAverageSurprise] = models.MetricResult{}
	}
	return out
}

type attentionOutcome struct {
	response string
	expected string
	rt       string
}

func (a attentionOutcome) timedOut() bool {
	return a.response == models.AttentionNoResponse || a.rt == models.AttentionTimeout
}

func (a attentionOutcome) correct() bool {
	return !a.timedOut() && a.expected != "" && a.response == strings.ToUpper(a.expected)
}

// agreementReactionTimes parses the answered (non-NR) reaction times.
func agreementReactionTimes(responses []models.StatementResponse) []float64 {
	var rts []float64
	for _, r := range responses {
		if r.SelectedOption == models.NoResponse {
			continue
		}
		if v, ok := parseSeconds(r.AgreementReactionTime); ok {
			rts = append(rts, v)
		}
	}
	return rts
}

func attentionReactionTimes(outcomes []attentionOutcome) []float64 {
	var rts []float64
	for _, o := range outcomes {
		if o.timedOut() {
			continue
		}
		if v, ok := parseSeconds(o.rt); ok {
			rts = append(rts, v)
		}
	}
	return rts
}

func countNoResponse(responses []models.StatementResponse) int {
	n := 0
	for _, r := range responses {
		if r.SelectedOption == models.NoResponse {
			n++
		}
	}
	return n
}

func countTimeouts(outcomes []attentionOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.timedOut() {
			n++
		}
	}
	return n
}

// parseSeconds accepts "1.234" and "1.234 seconds".
func parseSeconds(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "seconds"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// standardDeviation is the population SD; it needs at least two values.
func standardDeviation(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	avg := mean(values)
	var sumSquaredDiff float64
	for _, v := range values {
		diff := v - avg
		sumSquaredDiff += diff * diff
	}
	return math.Sqrt(sumSquaredDiff / float64(len(values)))
}

func meanResult(values []float64) models.MetricResult {
	if len(values) == 0 {
		return models.MetricResult{}
	}
	return models.MetricResult{Value: mean(values), Calculated: true, SampleSize: len(values)}
}

func sdResult(values []float64) models.MetricResult {
	if len(values) < 2 {
		return models.MetricResult{SampleSize: len(values)}
	}
	return models.MetricResult{Value: standardDeviation(values), Calculated: true, SampleSize: len(values)}
}

func countResult(n, sample int) models.MetricResult {
	return models.MetricResult{Value: float64(n), Calculated: true, SampleSize: sample}
}

func accuracyResult(outcomes []attentionOutcome) models.MetricResult {
	if len(outcomes) == 0 {
		return models.MetricResult{}
	}
	correct := 0
	for _, o := range outcomes {
		if o.correct() {
			correct++
		}
	}
	return models.MetricResult{Value: float64(correct) / float64(len(outcomes)), Calculated: true, SampleSize: len(outcomes)}
}
