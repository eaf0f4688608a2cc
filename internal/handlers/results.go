// internal/handlers/results.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/metrics"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/repository"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/views"
)

// timelineMetrics are the session metrics offered on the timeline chart.
var timelineMetrics = []string{
	metrics.BiasFrameworkAccuracy,
	metrics.BiasAverageSurprise,
	metrics.Phase1AttentionAccuracy,
	metrics.Phase2AttentionAccuracy,
	metrics.Phase1AgreementRTMean,
	metrics.Phase2ReadingTimeMean,
	metrics.Phase2ScrollDepthMean,
	metrics.Phase2RatingShiftMean,
}

type ResultsHandler struct {
	log     *zap.Logger
	archive *repository.Archive
}

func NewResultsHandler(log *zap.Logger, archive *repository.Archive) *ResultsHandler {
	return &ResultsHandler{log: log.Named("results"), archive: archive}
}

// ShowReport renders the validation charts across every archived session.
func (h *ResultsHandler) ShowReport(c *gin.Context) {
	_, nonce := tokens(c)
	if h.archive == nil {
		render(c, h.log, http.StatusOK, "Report", views.Report(views.ReportData{
			Message: "The session archive is disabled. Configure a database to see the report.",
		}, nonce))
		return
	}

	metricKey := c.Query("metric")
	if !validMetric(metricKey) {
		metricKey = timelineMetrics[0]
	}

	ctx := c.Request.Context()
	alignment, err := h.archive.AlignmentCounts(ctx)
	if err != nil {
		h.fail(c, "Failed to get alignment counts", err)
		return
	}
	matrix, err := h.archive.ExpectationMatrix(ctx)
	if err != nil {
		h.fail(c, "Failed to get expectation matrix", err)
		return
	}
	timeline, err := h.archive.MetricTimeline(ctx, metricKey)
	if err != nil {
		h.fail(c, "Failed to get timeline data", err, zap.String("metricKey", metricKey))
		return
	}
	sessions, err := h.archive.ListSessions(ctx, 50)
	if err != nil {
		h.fail(c, "Failed to list sessions", err)
		return
	}

	alignmentJSON, _ := json.Marshal(generateAlignmentChart(alignment).JSON())
	matrixJSON, _ := json.Marshal(generateExpectationChart(matrix).JSON())
	timelineJSON, _ := json.Marshal(generateTimelineChart(timeline, metricKey).JSON())

	render(c, h.log, http.StatusOK, "Report", views.Report(views.ReportData{
		Charts: []views.Chart{
			{ID: "alignment-chart", Options: string(alignmentJSON)},
			{ID: "expectation-chart", Options: string(matrixJSON)},
			{ID: "timeline-chart", Options: string(timelineJSON)},
		},
		Sessions: sessions,
		Metric:   metricKey,
		Metrics:  timelineMetrics,
	}, nonce))
}

// ShowSession renders one archived session.
func (h *ResultsHandler) ShowSession(c *gin.Context) {
	rec, err := h.archive.GetSession(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, repository.ErrNotFound):
		render(c, h.log, http.StatusNotFound, "Session", views.Message("Session not found."))
		return
	case errors.Is(err, repository.ErrArchiveDisabled):
		render(c, h.log, http.StatusNotFound, "Session", views.Message("The session archive is disabled."))
		return
	case err != nil:
		h.fail(c, "Failed to load session", err, zap.String("sessionID", c.Param("id")))
		return
	}
	render(c, h.log, http.StatusOK, "Session "+rec.SubjectNumber, views.SessionDetail(rec))
}

func (h *ResultsHandler) fail(c *gin.Context, msg string, err error, fields ...zap.Field) {
	h.log.Error(msg, append(fields, zap.Error(err))...)
	c.String(http.StatusInternalServerError, "Failed to load report data")
}

func validMetric(key string) bool {
	for _, m := range timelineMetrics {
		if m == key {
			return true
		}
	}
	return false
}

func generateAlignmentChart(data []repository.AlignmentCount) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Bias Alignment",
			Subtitle: "Expected versus actual response, all sessions",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	labels := make([]string, 0, len(data))
	items := make([]opts.BarData, 0, len(data))
	for _, d := range data {
		labels = append(labels, d.Alignment)
		items = append(items, opts.BarData{Value: d.Count})
	}
	bar.SetXAxis(labels).AddSeries("Events", items)
	return bar
}

// generateExpectationChart groups the expected responses on the x axis with
// one series per actual response.
func generateExpectationChart(data []repository.ExpectationCell) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Expected vs. Actual Response",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
	)

	var expected, actual []string
	counts := make(map[[2]string]int)
	seenE, seenA := map[string]bool{}, map[string]bool{}
	for _, d := range data {
		if !seenE[d.ExpectedResponse] {
			seenE[d.ExpectedResponse] = true
			expected = append(expected, d.ExpectedResponse)
		}
		if !seenA[d.ActualResponse] {
			seenA[d.ActualResponse] = true
			actual = append(actual, d.ActualResponse)
		}
		counts[[2]string{d.ExpectedResponse, d.ActualResponse}] = d.Count
	}
	sort.Strings(expected)
	sort.Strings(actual)

	bar.SetXAxis(expected)
	for _, a := range actual {
		items := make([]opts.BarData, 0, len(expected))
		for _, e := range expected {
			items = append(items, opts.BarData{Value: counts[[2]string{e, a}]})
		}
		bar.AddSeries(a, items)
	}
	return bar
}

func generateTimelineChart(data []repository.TimelineDataPoint, metricLabel string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Metric Over Sessions",
			Subtitle: metricLabel,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "time",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:  "value",
			Scale: opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)

	// [date, value] pairs
	items := make([]opts.LineData, 0)
	for _, point := range data {
		items = append(items, opts.LineData{Value: []interface{}{point.Date, point.Value}})
	}

	line.AddSeries(metricLabel, items).SetSeriesOptions(charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))
	return line
}
