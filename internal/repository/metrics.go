// internal/repository/metrics.go
package repository

import (
	"sort"

	"gorm.io/gorm"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/models"
)

// saveMetrics stores the calculated summary metrics of a session.
func saveMetrics(tx *gorm.DB, sessionID string, summary map[string]models.MetricResult) error {
	keys := make([]string, 0, len(summary))
	for k, m := range summary {
		if m.Calculated {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)

	rows := make([]models.SessionMetricRecord, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, models.SessionMetricRecord{
			SessionID:   sessionID,
			MetricKey:   k,
			MetricValue: summary[k].Value,
			SampleSize:  summary[k].SampleSize,
		})
	}
	return tx.Create(&rows).Error
}
