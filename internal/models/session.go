package models

// NoResponse is recorded when a rating screen times out or the participant
// never answered.
const NoResponse = "NR"

// Attention-check outcomes recorded when the participant does not answer in time.
const (
	AttentionNoResponse = "NO_RESPONSE"
	AttentionTimeout    = "TIMEOUT"
)

// StatementResponse is one phase-1 belief statement answer.
type StatementResponse struct {
	QuestionIndex              int    `json:"questionIndex"`
	TopicCode                  string `json:"topicCode"`
	StatementCode              string `json:"statementCode"`
	SelectedOption             string `json:"selectedOption"`
	AgreementReactionTime      string `json:"agreementReactionTime"`
	AttentionCheckResponse     string `json:"attentionCheckResponse"`
	AttentionCheckReactionTime string `json:"attentionCheckReactionTime"`
}

// AttentionAnswered reports whether the attention-check fields are filled,
// after which the record is immutable.
func (r *StatementResponse) AttentionAnswered() bool {
	return r.AttentionCheckResponse != ""
}

// SelectedArticle is an article the participant opened in phase 2.
// Later screens fill in the rating and attention-check fields in place.
type SelectedArticle struct {
	Topic                      string `json:"topic"`
	Headline                   string `json:"headline"`
	Content                    string `json:"content"`
	SelectedOption             string `json:"selectedOption"`
	AttentionWord              string `json:"attentionWord"`
	AttentionAnswer            string `json:"attentionAnswer"`
	AttentionCheckResponse     string `json:"attentionCheckResponse"`
	AttentionCheckReactionTime string `json:"attentionCheckReactionTime"`
	ArticleCode                string `json:"articleCode"`
	LinkedStatement            string `json:"linkedStatement"`
}

// EventMarker is an append-only labelled timestamp. Timestamps are seconds.
type EventMarker struct {
	LocalTimestamp  float64 `json:"localTimestamp"`
	GlobalTimestamp float64 `json:"globalTimestamp"`
	Label           string  `json:"label"`
}

// ParticipantSession is the aggregate written once at the end of a session.
type ParticipantSession struct {
	SessionID                     string                  `json:"sessionId"`
	SubjectNumber                 string                  `json:"subjectNumber"`
	Age                           int                     `json:"age"`
	Feedback                      string                  `json:"feedback"`
	ExperimentStartTime           string                  `json:"experimentStartTime"`
	ExperimentEndTime             string                  `json:"experimentEndTime"`
	Duration                      string                  `json:"duration"`
	InstructionScreenReactionTime string                  `json:"instructionScreenReactionTime"`
	SurveySceneDuration           string                  `json:"surveySceneDuration"`
	ThankYouSceneDuration         string                  `json:"thankYouSceneDuration"`
	Responses                     []StatementResponse     `json:"responses"`
	TotalReadArticleClicks        int                     `json:"totalReadArticleClicks"`
	TotalUniqueArticlesRead       int                     `json:"totalUniqueArticlesRead"`
	CompletedTopics               []string                `json:"completedTopics"`
	SelectedFinalTopic            string                  `json:"selectedFinalTopic"`
	SelectedArticles              []SelectedArticle       `json:"selectedArticles"`
	EventMarkers                  []EventMarker           `json:"eventMarkers"`
	BiasEvents                    []BiasExpectationEvent  `json:"biasEvents"`
	BiasReport                    *ValidationReport       `json:"biasReport,omitempty"`
	Summary                       map[string]MetricResult `json:"summary,omitempty"`
}

// MetricResult mirrors a computed metric and whether enough data existed for it.
type MetricResult struct {
	Value      float64 `json:"value"`
	Calculated bool    `json:"calculated"`
	SampleSize int     `json:"sampleSize,omitempty"`
}
