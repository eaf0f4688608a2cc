package bias

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/markers"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/models"
)

var (
	ErrUnknownArticle = errors.New("bias: article has no statement relationship")
	ErrNoPhase1Rating = errors.New("bias: no phase-1 rating for linked statement")
)

// PatternThreshold is the number of occurrences a misalignment cluster must
// exceed before it is reported.
const PatternThreshold = 2

// Relationship links an article to the statement it argues for or against.
type Relationship struct {
	ArticleCode         string
	LinkedStatementCode string
	ArticleType         models.ArticleType
}

// Classifier holds the expectation events of one session.
type Classifier struct {
	log           *zap.Logger
	outlet        *markers.Outlet
	now           func() time.Time
	relationships map[string]Relationship
	phase1        map[string]int
	events        []*models.BiasExpectationEvent
}

// NewClassifier builds an empty classifier. now defaults to time.Now.
func NewClassifier(log *zap.Logger, outlet *markers.Outlet, now func() time.Time) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Classifier{
		log:           log.Named("bias"),
		outlet:        outlet,
		now:           now,
		relationships: make(map[string]Relationship),
		phase1:        make(map[string]int),
	}
}

// RegisterArticle records the article's statement link. Articles without a
// code or a linked statement are ignored.
func (c *Classifier) RegisterArticle(a models.Article) bool {
	if a.ArticleCode == "" || a.LinkedStatementCode == "" {
		return false
	}
	t := a.ArticleType
	if t == "" {
		t = models.ArticleNeutral
	}
	c.relationships[a.ArticleCode] = Relationship{
		ArticleCode:         a.ArticleCode,
		LinkedStatementCode: a.LinkedStatementCode,
		ArticleType:         t,
	}
	return true
}

// SetPhase1Rating stores the participant's rating of a statement.
func (c *Classifier) SetPhase1Rating(statementCode string, rating int) {
	c.phase1[statementCode] = rating
}

// ComputeExpected creates the expectation event for an article being opened
// and emits the expected-response markers.
func (c *Classifier) ComputeExpected(articleCode string) (models.BiasExpectationEvent, error) {
	rel, ok := c.relationships[articleCode]
	if !ok {
		return models.BiasExpectationEvent{}, fmt.Errorf("%w: %s", ErrUnknownArticle, articleCode)
	}
	rating, ok := c.phase1[rel.LinkedStatementCode]
	if !ok {
		return models.BiasExpectationEvent{}, fmt.Errorf("%w: %s (article %s)", ErrNoPhase1Rating, rel.LinkedStatementCode, articleCode)
	}

	evt := &models.BiasExpectationEvent{
		Timestamp:            c.now().Format("2006-01-02 15:04:05.000"),
		ArticleCode:          articleCode,
		PrimaryStatementCode: rel.LinkedStatementCode,
		ArticleType:          rel.ArticleType,
		Phase1Rating:         rating,
		ExpectedResponse:     Expected(rel.ArticleType, rating),
		ExpectedStrength:     Strength(rating),
		ExpectedRationale:    Rationale(rel.ArticleType, rating),
		ActualResponse:       models.ActualUndetermined,
		NeuralMarkers:        []string{},
		Alignment:            models.AlignmentPending,
	}

	c.outlet.Marker(fmt.Sprintf("EXPECTED_BIAS_%s_%s_STRENGTH%.2f_PHASE1_R%d",
		evt.ArticleCode, evt.ExpectedResponse, evt.ExpectedStrength, evt.Phase1Rating))
	c.outlet.Marker("EXPECTED_RATIONALE_" + evt.ExpectedRationale)

	c.events = append(c.events, evt)
	return *evt, nil
}

// latest returns the most recently created event for the article.
func (c *Classifier) latest(articleCode string) *models.BiasExpectationEvent {
	for i := len(c.events) - 1; i >= 0; i-- {
		if c.events[i].ArticleCode == articleCode {
			return c.events[i]
		}
	}
	return nil
}

// RecordActual completes the latest expectation event for the article. A
// missing event is logged and reported as false.
func (c *Classifier) RecordActual(articleCode string, phase2 int, readingTime, scrollDepth float64) (models.BiasExpectationEvent, bool) {
	evt := c.latest(articleCode)
	if evt == nil {
		c.log.Error("No expected response found for article", zap.String("articleCode", articleCode))
		return models.BiasExpectationEvent{}, false
	}

	evt.Phase2Rating = phase2
	evt.ReadingTime = readingTime
	evt.ScrollDepth = scrollDepth
	evt.ActualResponse = Actual(evt.ArticleType, evt.Phase1Rating, phase2, readingTime)
	evt.Alignment = Compare(evt.ExpectedResponse, evt.ActualResponse)
	evt.SurpriseScore = Surprise(evt.ExpectedResponse, evt.Alignment)

	c.outlet.Marker(fmt.Sprintf("ACTUAL_BIAS_%s_%s_PHASE2_R%d_TIME%.1f",
		evt.ArticleCode, evt.ActualResponse, evt.Phase2Rating, evt.ReadingTime))
	c.outlet.Marker(fmt.Sprintf("BIAS_ALIGNMENT_%s_%s_SURPRISE%.2f",
		evt.ArticleCode, evt.Alignment, evt.SurpriseScore))

	topicID, articleID, err := ParseArticleCode(evt.ArticleCode)
	if err != nil {
		c.log.Warn("Could not parse article code", zap.Error(err))
	}
	c.outlet.Behavior("BiasComparison", map[string]any{
		"trial":       len(c.events),
		"topicId":     topicID,
		"articleId":   articleID,
		"biasType":    evt.ExpectedResponse.Code(),
		"scrollDepth": evt.ScrollDepth,
		"dwellTime":   evt.ReadingTime,
	})

	c.log.Info("Expected vs actual",
		zap.String("articleCode", evt.ArticleCode),
		zap.String("articleType", string(evt.ArticleType)),
		zap.String("statement", evt.PrimaryStatementCode),
		zap.Int("phase1", evt.Phase1Rating),
		zap.String("expected", string(evt.ExpectedResponse)),
		zap.Float64("strength", evt.ExpectedStrength),
		zap.String("actual", string(evt.ActualResponse)),
		zap.Int("phase2", evt.Phase2Rating),
		zap.Float64("readingTime", evt.ReadingTime),
		zap.String("alignment", string(evt.Alignment)),
		zap.Float64("surprise", evt.SurpriseScore),
	)
	return *evt, true
}

// RecordNeuralMarker attaches a marker observed while the article was read.
func (c *Classifier) RecordNeuralMarker(articleCode, marker string) bool {
	evt := c.latest(articleCode)
	if evt == nil {
		return false
	}
	evt.NeuralMarkers = append(evt.NeuralMarkers, marker)
	c.outlet.Marker(fmt.Sprintf("EEG_DURING_%s_%s", evt.ExpectedResponse, marker))
	return true
}

// Events returns copies of all events in creation order.
func (c *Classifier) Events() []models.BiasExpectationEvent {
	out := make([]models.BiasExpectationEvent, 0, len(c.events))
	for _, e := range c.events {
		cp := *e
		cp.NeuralMarkers = append([]string{}, e.NeuralMarkers...)
		out = append(out, cp)
	}
	return out
}
