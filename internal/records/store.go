// Package records accumulates every participant-facing observation of a
// session into one serializable aggregate, in strict append order.
package records

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/models"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/tracker"
)

// TimeLayout formats the wall-clock fields of the session file.
const TimeLayout = "2006-01-02 15:04:05 MST"

// Seconds formats a reaction time or duration the way it is stored.
func Seconds(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

// Store is the append-only session log. A nil Store ignores writes and
// returns empty results. It is not safe for concurrent use; the owning
// experiment serializes access.
type Store struct {
	log       *zap.Logger
	tracker   *tracker.Tracker
	session   models.ParticipantSession
	finalized *models.ParticipantSession
}

func New(log *zap.Logger, tr *tracker.Tracker) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if tr == nil {
		tr = tracker.New()
	}
	return &Store{
		log:     log.Named("records"),
		tracker: tr,
		session: models.ParticipantSession{
			Responses:        []models.StatementResponse{},
			SelectedArticles: []models.SelectedArticle{},
			EventMarkers:     []models.EventMarker{},
			CompletedTopics:  []string{},
		},
	}
}

// Tracker returns the selection tracker backing article selections.
func (s *Store) Tracker() *tracker.Tracker {
	if s == nil {
		return nil
	}
	return s.tracker
}

// RecordStatementResponse appends a phase-1 answer and returns its index.
// Timeout records are legitimate entries.
func (s *Store) RecordStatementResponse(r models.StatementResponse) int {
	if s == nil {
		return -1
	}
	s.session.Responses = append(s.session.Responses, r)
	return len(s.session.Responses) - 1
}

// CompleteStatementAttention fills the attention-check fields of a response.
// Responses whose attention fields are already set are left untouched.
func (s *Store) CompleteStatementAttention(index int, response, reactionTime string) bool {
	if s == nil || index < 0 || index >= len(s.session.Responses) {
		return false
	}
	r := &s.session.Responses[index]
	if r.AttentionAnswered() {
		s.log.Warn("Attention check already recorded", zap.Int("index", index), zap.String("statement", r.StatementCode))
		return false
	}
	r.AttentionCheckResponse = response
	r.AttentionCheckReactionTime = reactionTime
	return true
}

func (s *Store) Responses() []models.StatementResponse {
	if s == nil {
		return nil
	}
	return append([]models.StatementResponse(nil), s.session.Responses...)
}

// RecordEvent appends a labelled timestamp.
func (s *Store) RecordEvent(label string, local, global float64) {
	if s == nil {
		return
	}
	s.session.EventMarkers = append(s.session.EventMarkers, models.EventMarker{
		LocalTimestamp:  local,
		GlobalTimestamp: global,
		Label:           label,
	})
}

func (s *Store) Events() []models.EventMarker {
	if s == nil {
		return nil
	}
	return append([]models.EventMarker(nil), s.session.EventMarkers...)
}

// RecordArticleSelection stores an opened article unless the same topic and
// headline was read before; the raw click counter always increments. The
// returned record is the one later screens should fill in.
func (s *Store) RecordArticleSelection(topic, headline, content, attentionWord, attentionAnswer, articleCode, linkedStatement string) (*models.SelectedArticle, bool) {
	if s == nil {
		return nil, false
	}
	return s.tracker.AddSelectedArticle(models.SelectedArticle{
		Topic:           topic,
		Headline:        headline,
		Content:         content,
		AttentionWord:   attentionWord,
		AttentionAnswer: attentionAnswer,
		ArticleCode:     articleCode,
		LinkedStatement: linkedStatement,
	})
}

func (s *Store) SetSessionID(id string) {
	if s != nil {
		s.session.SessionID = id
	}
}

func (s *Store) SetSubjectNumber(n string) {
	if s != nil {
		s.session.SubjectNumber = n
	}
}

func (s *Store) SubjectNumber() string {
	if s == nil {
		return ""
	}
	return s.session.SubjectNumber
}

func (s *Store) SetStartTime(t time.Time) {
	if s != nil {
		s.session.ExperimentStartTime = t.Format(TimeLayout)
	}
}

func (s *Store) SetAge(age int) {
	if s != nil {
		s.session.Age = age
	}
}

func (s *Store) SetFeedback(f string) {
	if s != nil {
		s.session.Feedback = f
	}
}

func (s *Store) SetInstructionReactionTime(secs float64) {
	if s != nil {
		s.session.InstructionScreenReactionTime = Seconds(secs)
	}
}

func (s *Store) SetSurveyDuration(secs float64) {
	if s != nil {
		s.session.SurveySceneDuration = Seconds(secs)
	}
}

func (s *Store) SetThankYouDuration(secs float64) {
	if s != nil {
		s.session.ThankYouSceneDuration = Seconds(secs)
	}
}

func (s *Store) SetSelectedFinalTopic(topic string) {
	if s != nil {
		s.session.SelectedFinalTopic = topic
	}
}

// SetBias attaches the classifier output to the aggregate.
func (s *Store) SetBias(events []models.BiasExpectationEvent, report models.ValidationReport) {
	if s == nil {
		return
	}
	s.session.BiasEvents = events
	s.session.BiasReport = &report
}

func (s *Store) SetSummary(summary map[string]models.MetricResult) {
	if s != nil {
		s.session.Summary = summary
	}
}

// Finalized reports whether Finalize has been called.
func (s *Store) Finalized() bool {
	return s != nil && s.finalized != nil
}

// Snapshot copies the aggregate as it stands, with derived counters filled
// in. It does not finalize the store.
func (s *Store) Snapshot(minPerTopic int) models.ParticipantSession {
	if s == nil {
		return models.ParticipantSession{}
	}
	snap := s.session
	snap.Responses = append([]models.StatementResponse{}, s.session.Responses...)
	snap.EventMarkers = append([]models.EventMarker{}, s.session.EventMarkers...)
	snap.SelectedArticles = s.tracker.Articles()
	snap.TotalReadArticleClicks = s.tracker.TotalClicks()
	snap.TotalUniqueArticlesRead = s.tracker.TotalUniqueArticlesRead()
	snap.CompletedTopics = append([]string{}, s.tracker.CompletedTopics(minPerTopic)...)
	snap.BiasEvents = append([]models.BiasExpectationEvent{}, s.session.BiasEvents...)
	return snap
}

// Finalize stamps the end time and duration and freezes the aggregate. It is
// meant to be called once; later calls log a warning and return the first
// snapshot unchanged.
func (s *Store) Finalize(end time.Time, durationSecs float64, minPerTopic int) models.ParticipantSession {
	if s == nil {
		return models.ParticipantSession{}
	}
	if s.finalized != nil {
		s.log.Warn("Session already finalized", zap.String("subject", s.session.SubjectNumber))
		return *s.finalized
	}
	s.session.ExperimentEndTime = end.Format(TimeLayout)
	s.session.Duration = Seconds(durationSecs)
	snap := s.Snapshot(minPerTopic)
	s.finalized = &snap
	return snap
}
