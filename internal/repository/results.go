// internal/repository/results.go
package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/models"
)

var (
	ErrNotFound        = errors.New("repository: session not found")
	ErrArchiveDisabled = errors.New("repository: session archive disabled")
)

// Archive stores finished sessions in the database. A nil Archive reports
// ErrArchiveDisabled.
type Archive struct {
	db *gorm.DB
}

// NewArchive returns nil when db is nil.
func NewArchive(db *gorm.DB) *Archive {
	if db == nil {
		return nil
	}
	return &Archive{db: db}
}

// ArchivedSession is what SaveSessionTx needs besides the document itself.
type ArchivedSession struct {
	Session   models.ParticipantSession
	StartedAt time.Time
	EndedAt   time.Time
	Duration  float64
	FilePath  string
	Raw       []byte
}

// SaveSessionTx saves the summary row, every bias event, every event marker
// and the summary metrics in a single transaction.
func (a *Archive) SaveSessionTx(ctx context.Context, in ArchivedSession) error {
	if a == nil {
		return ErrArchiveDisabled
	}
	s := in.Session

	record := models.SessionRecord{
		ID:                      s.SessionID,
		SubjectNumber:           s.SubjectNumber,
		StartedAt:               in.StartedAt,
		EndedAt:                 in.EndedAt,
		DurationSeconds:         in.Duration,
		TotalReadArticleClicks:  s.TotalReadArticleClicks,
		TotalUniqueArticlesRead: s.TotalUniqueArticlesRead,
		CompletedTopics:         models.TopicList(s.CompletedTopics),
		FilePath:                in.FilePath,
		RawData:                 models.RawJSON(in.Raw),
	}
	if r := s.BiasReport; r != nil {
		record.AlignedCount = r.AlignedCount
		record.MisalignedCount = r.CompletedEvents - r.AlignedCount
		record.AverageSurpriseScore = r.AverageSurpriseScore
	}

	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Summary row
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		// 2. Granular rows referencing the summary ID
		events := make([]models.BiasEventRecord, 0, len(s.BiasEvents))
		for i, e := range s.BiasEvents {
			events = append(events, models.BiasEventRecord{
				SessionID:            record.ID,
				Sequence:             i,
				ArticleCode:          e.ArticleCode,
				PrimaryStatementCode: e.PrimaryStatementCode,
				ArticleType:          string(e.ArticleType),
				Phase1Rating:         e.Phase1Rating,
				ExpectedResponse:     string(e.ExpectedResponse),
				ExpectedStrength:     e.ExpectedStrength,
				ActualResponse:       string(e.ActualResponse),
				Phase2Rating:         e.Phase2Rating,
				ReadingTime:          e.ReadingTime,
				ScrollDepth:          e.ScrollDepth,
				Alignment:            string(e.Alignment),
				SurpriseScore:        e.SurpriseScore,
			})
		}
		if len(events) > 0 {
			if err := tx.CreateInBatches(events, 100).Error; err != nil {
				return err
			}
		}

		markers := make([]models.EventMarkerRecord, 0, len(s.EventMarkers))
		for i, m := range s.EventMarkers {
			markers = append(markers, models.EventMarkerRecord{
				SessionID:       record.ID,
				Sequence:        i,
				LocalTimestamp:  m.LocalTimestamp,
				GlobalTimestamp: m.GlobalTimestamp,
				Label:           m.Label,
			})
		}
		if len(markers) > 0 {
			if err := tx.CreateInBatches(markers, 200).Error; err != nil {
				return err
			}
		}

		return saveMetrics(tx, record.ID, s.Summary)
	})
}

// ListSessions returns the newest sessions first, without their details.
func (a *Archive) ListSessions(ctx context.Context, limit int) ([]models.SessionRecord, error) {
	if a == nil {
		return nil, ErrArchiveDisabled
	}
	if limit <= 0 {
		limit = 50
	}
	var out []models.SessionRecord
	err := a.db.WithContext(ctx).
		Omit("raw_data").
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetSession loads one session with its events, markers and metrics.
func (a *Archive) GetSession(ctx context.Context, id string) (*models.SessionRecord, error) {
	if a == nil {
		return nil, ErrArchiveDisabled
	}
	var rec models.SessionRecord
	err := a.db.WithContext(ctx).
		Preload("BiasEvents", func(db *gorm.DB) *gorm.DB { return db.Order("sequence") }).
		Preload("EventMarkers", func(db *gorm.DB) *gorm.DB { return db.Order("sequence") }).
		Preload("Metrics").
		First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
