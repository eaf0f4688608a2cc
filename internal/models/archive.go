package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// TopicList is stored as a postgres text[] and as its text form elsewhere.
type TopicList []string

func (t TopicList) Value() (driver.Value, error) {
	return pq.StringArray(t).Value()
}

func (t *TopicList) Scan(src any) error {
	return (*pq.StringArray)(t).Scan(src)
}

func (TopicList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// RawJSON holds the full session document, jsonb on postgres.
type RawJSON []byte

func (j RawJSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

func (j *RawJSON) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append(RawJSON(nil), v...)
	case string:
		*j = RawJSON(v)
	default:
		return fmt.Errorf("cannot scan %T into RawJSON", src)
	}
	return nil
}

func (RawJSON) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}

// SessionRecord is the archived summary of a finished participant session.
type SessionRecord struct {
	ID                      string `gorm:"primaryKey;size:36"`
	SubjectNumber           string `gorm:"index"`
	StartedAt               time.Time
	EndedAt                 time.Time
	DurationSeconds         float64
	TotalReadArticleClicks  int
	TotalUniqueArticlesRead int
	CompletedTopics         TopicList
	AlignedCount            int
	MisalignedCount         int
	AverageSurpriseScore    float64
	FilePath                string
	RawData                 RawJSON
	BiasEvents              []BiasEventRecord     `gorm:"foreignKey:SessionID"`
	EventMarkers            []EventMarkerRecord   `gorm:"foreignKey:SessionID"`
	Metrics                 []SessionMetricRecord `gorm:"foreignKey:SessionID"`
	CreatedAt               time.Time
}

// BiasEventRecord represents one expectation/actual comparison of a session.
type BiasEventRecord struct {
	ID                   int `gorm:"primaryKey"`
	SessionID            string
	Sequence             int
	ArticleCode          string
	PrimaryStatementCode string
	ArticleType          string
	Phase1Rating         int
	ExpectedResponse     string
	ExpectedStrength     float64
	ActualResponse       string
	Phase2Rating         int
	ReadingTime          float64
	ScrollDepth          float64
	Alignment            string
	SurpriseScore        float64
}

// EventMarkerRecord represents a single labelled timestamp of a session.
type EventMarkerRecord struct {
	ID              int `gorm:"primaryKey"`
	SessionID       string
	Sequence        int
	LocalTimestamp  float64
	GlobalTimestamp float64
	Label           string
}

// SessionMetricRecord is one summary metric of a session.
type SessionMetricRecord struct {
	ID          int    `gorm:"primaryKey"`
	SessionID   string `gorm:"index:idx_session_metric,unique"`
	MetricKey   string `gorm:"index:idx_session_metric,unique"`
	MetricValue float64
	SampleSize  int
}
