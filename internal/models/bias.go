package models

// ArticleType is the polarity tag of an article relative to its linked statement.
type ArticleType string

const (
	ArticleConfirmatory    ArticleType = "confirmatory"
	ArticleDisconfirmatory ArticleType = "disconfirmatory"
	ArticleNeutral         ArticleType = "neutral"
)

// ExpectedResponse is the bias category predicted at article selection.
type ExpectedResponse string

const (
	ExpectedConfirmation    ExpectedResponse = "EXPECTED_CONFIRMATION"
	ExpectedDisconfirmation ExpectedResponse = "EXPECTED_DISCONFIRMATION"
	ExpectedNeutral         ExpectedResponse = "EXPECTED_NEUTRAL"
)

// Code is the numeric channel value streamed in behavioural samples.
func (e ExpectedResponse) Code() int {
	switch e {
	case ExpectedConfirmation:
		return 0
	case ExpectedDisconfirmation:
		return 1
	default:
		return 2
	}
}

// ActualResponse is the bias category observed after reading.
type ActualResponse string

const (
	ActualConfirmation    ActualResponse = "ACTUAL_CONFIRMATION"
	ActualDisconfirmation ActualResponse = "ACTUAL_DISCONFIRMATION"
	ActualNeutral         ActualResponse = "ACTUAL_NEUTRAL"
	ActualUndetermined    ActualResponse = "UNDETERMINED"
)

// Alignment compares the observed category with the predicted one.
type Alignment string

const (
	Aligned                   Alignment = "ALIGNED"
	UnexpectedConfirmation    Alignment = "UNEXPECTED_CONFIRMATION"
	UnexpectedDisconfirmation Alignment = "UNEXPECTED_DISCONFIRMATION"
	UnexpectedNeutral         Alignment = "UNEXPECTED_NEUTRAL"
	AlignmentPending          Alignment = "PENDING"
)

// BiasExpectationEvent is created at article preview and completed once the
// participant has rated the article.
type BiasExpectationEvent struct {
	Timestamp            string           `json:"timestamp"`
	ArticleCode          string           `json:"articleCode"`
	PrimaryStatementCode string           `json:"primaryStatementCode"`
	ArticleType          ArticleType      `json:"articleType"`
	Phase1Rating         int              `json:"phase1StatementRating"`
	ExpectedResponse     ExpectedResponse `json:"expectedResponse"`
	ExpectedStrength     float64          `json:"expectedStrength"`
	ExpectedRationale    string           `json:"expectedRationale"`
	ActualResponse       ActualResponse   `json:"actualResponse"`
	Phase2Rating         int              `json:"phase2ArticleRating"`
	ReadingTime          float64          `json:"readingTime"`
	ScrollDepth          float64          `json:"scrollDepth"`
	NeuralMarkers        []string         `json:"eegMarkers"`
	Alignment            Alignment        `json:"alignment"`
	SurpriseScore        float64          `json:"surpriseScore"`
}

// Completed reports whether the actual response has been recorded.
func (e *BiasExpectationEvent) Completed() bool {
	return e.Alignment != AlignmentPending && e.Alignment != ""
}

// ValidationReport aggregates the expectation events of a session.
type ValidationReport struct {
	TotalEvents                    int      `json:"totalEvents"`
	CompletedEvents                int      `json:"completedEvents"`
	AlignedCount                   int      `json:"alignedCount"`
	UnexpectedConfirmationCount    int      `json:"unexpectedConfirmationCount"`
	UnexpectedDisconfirmationCount int      `json:"unexpectedDisconfirmationCount"`
	UnexpectedNeutralCount         int      `json:"unexpectedNeutralCount"`
	PendingCount                   int      `json:"pendingCount"`
	AverageSurpriseScore           float64  `json:"averageSurpriseScore"`
	FrameworkAccuracy              float64  `json:"frameworkAccuracy"`
	CommonMisalignments            []string `json:"commonMisalignments"`
}
