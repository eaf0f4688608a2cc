// internal/repository/charts.go
package repository

import (
	"context"
	"time"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/models"
)

type TimelineDataPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

type AlignmentCount struct {
	Alignment string `json:"alignment"`
	Count     int    `json:"count"`
}

// ExpectationCell counts events per expected/actual pair.
type ExpectationCell struct {
	ExpectedResponse string `json:"expectedResponse"`
	ActualResponse   string `json:"actualResponse"`
	Count            int    `json:"count"`
}

// AlignmentCounts aggregates alignments across every archived session.
func (a *Archive) AlignmentCounts(ctx context.Context) ([]AlignmentCount, error) {
	if a == nil {
		return nil, ErrArchiveDisabled
	}
	var data []AlignmentCount
	err := a.db.WithContext(ctx).
		Model(&models.BiasEventRecord{}).
		Select("alignment, COUNT(*) AS count").
		Where("alignment <> ?", string(models.AlignmentPending)).
		Group("alignment").
		Order("alignment").
		Scan(&data).Error
	return data, err
}

// ExpectationMatrix aggregates expected versus actual categories.
func (a *Archive) ExpectationMatrix(ctx context.Context) ([]ExpectationCell, error) {
	if a == nil {
		return nil, ErrArchiveDisabled
	}
	var data []ExpectationCell
	err := a.db.WithContext(ctx).
		Model(&models.BiasEventRecord{}).
		Select("expected_response, actual_response, COUNT(*) AS count").
		Where("alignment <> ?", string(models.AlignmentPending)).
		Group("expected_response, actual_response").
		Order("expected_response, actual_response").
		Scan(&data).Error
	return data, err
}

// MetricTimeline returns one metric of every session in chronological order.
func (a *Archive) MetricTimeline(ctx context.Context, metricKey string) ([]TimelineDataPoint, error) {
	if a == nil {
		return nil, ErrArchiveDisabled
	}
	var data []TimelineDataPoint
	err := a.db.WithContext(ctx).
		Table("session_metric_records AS m").
		Select("s.started_at AS date, m.metric_value AS value").
		Joins("JOIN session_records s ON s.id = m.session_id").
		Where("m.metric_key = ?", metricKey).
		Order("s.started_at").
		Scan(&data).Error
	return data, err
}
