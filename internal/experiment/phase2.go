package experiment

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/bias"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/markers"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/metrics"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/models"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/prefs"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/records"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/utils"
)

// DefaultAttentionWord is asked about when an article defines none.
const DefaultAttentionWord = "IMPORTANT"

// BreakChoice is the key pressed to leave a rest break.
type BreakChoice string

const (
	BreakContinue BreakChoice = "continue"
	// BreakMoreTopics (left arrow) keeps reading after the final break.
	BreakMoreTopics BreakChoice = "more"
	// BreakEnd (right arrow) ends reading after the final break.
	BreakEnd BreakChoice = "end"
)

func markersRating(phase int, item string, rating int, rt float64) markers.Rating {
	return markers.Rating{Phase: phase, ItemID: item, Rating: rating, ReactionTime: rt}
}

// ContinueArticleInstructions leaves the phase-2 instruction screen.
func (e *Experiment) ContinueArticleInstructions() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return ErrNoSession
	}
	if e.scene != SceneArticleInstructions {
		return ErrOutOfOrder
	}
	e.event("ArticleInstructions_CONTINUE_PRESSED")
	e.goTo(SceneTopics)
	return nil
}

// SelectTopic opens the article list of a topic.
func (e *Experiment) SelectTopic(topic string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return ErrNoSession
	}
	if e.scene != SceneTopics {
		return ErrOutOfOrder
	}
	if !e.knownTopic(topic) {
		e.log.Warn("Unknown topic selected", zap.String("topic", topic))
		return fmt.Errorf("%w: topic", ErrInvalidInput)
	}
	e.prefs.Set(prefs.SelectedTopic, topic)
	e.store.SetSelectedFinalTopic(topic)
	e.event("TopicSelected", field{"Topic", topic})
	e.goTo(SceneArticles)
	return nil
}

func (e *Experiment) knownTopic(topic string) bool {
	for _, t := range e.catalog.Topics() {
		if t == topic {
			return true
		}
	}
	return false
}

// enterArticles loads the unread articles of the selected topic. A missing
// or malformed file leaves the list empty.
func (e *Experiment) enterArticles() {
	topic := e.prefs.Get(prefs.SelectedTopic, "")
	e.available, e.loadErr = e.catalog.Available(topic, e.store.Tracker())
	if e.loadErr != nil {
		e.log.Error("Failed to load articles", zap.String("topic", topic), zap.Error(e.loadErr))
		e.available = nil
	}
}

// BackToTopics returns from the article list to the topic screen.
func (e *Experiment) BackToTopics() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return ErrNoSession
	}
	if e.scene != SceneArticles {
		return ErrOutOfOrder
	}
	e.event("BackToTopics", field{"Topic", e.prefs.Get(prefs.SelectedTopic, "")})
	e.goTo(SceneTopics)
	return nil
}

// OpenArticle records the selection of an article from the list and
// computes the expected bias response for it.
func (e *Experiment) OpenArticle(headline string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return ErrNoSession
	}
	if e.scene != SceneArticles {
		return ErrOutOfOrder
	}
	var article *models.Article
	for i := range e.available {
		if e.available[i].Headline == headline {
			article = &e.available[i]
			break
		}
	}
	if article == nil {
		e.log.Warn("Unknown article selected", zap.String("headline", headline))
		return fmt.Errorf("%w: article", ErrInvalidInput)
	}

	topic := e.prefs.Get(prefs.SelectedTopic, "")
	a := *article
	sel, _ := e.store.RecordArticleSelection(topic, a.Headline, a.Content, a.AttentionWord, a.AttentionAnswer, a.ArticleCode, a.LinkedStatementCode)
	e.article = &a
	e.selected = sel
	e.prefs.Set(prefs.CurrentArticleCode, a.ArticleCode)

	if a.ArticleCode != "" {
		e.classifier.RegisterArticle(a)
		if _, err := e.classifier.ComputeExpected(a.ArticleCode); err != nil {
			e.log.Warn("No bias expectation for article", zap.String("article", a.ArticleCode), zap.Error(err))
		}
	}
	e.event("ArticleOpened", field{"Headline", a.Headline}, field{"ArticleCode", a.ArticleCode}, field{"LinkedStatement", a.LinkedStatementCode})
	e.goTo(SceneArticle)
	return nil
}

func (e *Experiment) enterArticle() {
	if e.article == nil {
		e.goTo(SceneTopics)
		return
	}
	e.articleStage = stageRating
	e.rated = false
	e.readingTime = 0
	e.scroll = metrics.NewScrollTracker(e.cfg.ScrollThreshold, e.cfg.ScrollStreamEvery)
	code := e.article.ArticleCode
	e.outlet.Marker("ARTICLE_READ_START_" + code)
	e.outlet.Behavior("ArticleReadStart", map[string]any{
		"articleCode": code,
		"topicCode":   bias.TopicCode(code),
	})

	e.promptShown = e.cfg.AgreementPromptDelay <= 0
	e.after(e.cfg.AgreementPromptDelay, func() { e.promptShown = true })
	e.after(e.cfg.MaxReadTime, e.expireReading)
}

// expireReading auto-rates an article left unanswered for the maximum
// reading time, unless the reading minimum is already met.
func (e *Experiment) expireReading() {
	if e.rated || e.articleStage != stageRating || e.finalBreakDone {
		return
	}
	e.log.Info("Maximum reading time reached", zap.String("article", e.article.ArticleCode))
	e.rateArticle(models.NoResponse, 0)
}

// ReportScroll records a scroll position of the article viewer, 1 at the
// top and 0 at the bottom.
func (e *Experiment) ReportScroll(position float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return ErrNoSession
	}
	if e.scene != SceneArticle || e.articleStage != stageRating {
		return ErrOutOfOrder
	}
	depth, stream := e.scroll.Observe(position)
	if stream {
		e.outlet.Behavior("ArticleScroll", map[string]any{
			"articleCode":   e.article.ArticleCode,
			"scrollDepth":   depth,
			"timeInArticle": e.sceneClock.Elapsed().Seconds(),
		})
	}
	return nil
}

// RateArticle records the phase-2 agreement rating. It is refused until the
// agreement prompt is on screen.
func (e *Experiment) RateArticle(option string) error {
	rating, err := utils.ParseRating(option)
	if err != nil {
		e.log.Warn("Rejected article rating", zap.String("option", option), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return ErrNoSession
	}
	if e.scene != SceneArticle || e.articleStage != stageRating || e.rated || !e.promptShown {
		return ErrOutOfOrder
	}
	e.rateArticle(strconv.Itoa(rating), rating)
	return nil
}

// rateArticle stores option and moves on to the attention check. rating is 0
// for a no-response.
func (e *Experiment) rateArticle(option string, rating int) {
	e.rated = true
	e.readingTime = e.sceneClock.Elapsed().Seconds()
	depth := e.scroll.MaxDepth()
	code := e.article.ArticleCode
	if e.selected != nil {
		e.selected.SelectedOption = option
	}

	r := markersRating(2, code, rating, e.readingTime)
	r.ScrollDepth = &depth
	e.outlet.Rating(r)
	e.outlet.Marker(fmt.Sprintf("ARTICLE_RATING_%s_R%s_TIME%.1f", code, option, e.readingTime))
	e.outlet.Behavior("ArticleReadingBehavior", map[string]any{
		"articleCode":     code,
		"readingTime":     e.readingTime,
		"scrollDepth":     depth,
		"backButtonCount": 0,
	})
	if rating > 0 && code != "" {
		e.classifier.RecordActual(code, rating, e.readingTime, depth)
	}
	e.event("AgreementSelected: "+option, field{"Headline", e.article.Headline}, field{"ArticleCode", code})
	e.startArticleAttention()
}

func (e *Experiment) startArticleAttention() {
	e.leave()
	if e.article.AttentionWord == "" {
		e.log.Warn("Article has no attention word, using default", zap.String("headline", e.article.Headline))
		e.article.AttentionWord = DefaultAttentionWord
		if e.selected != nil {
			e.selected.AttentionWord = DefaultAttentionWord
		}
	}
	e.articleStage = stageAttention
	e.attentionClock = e.ledger.NewScene()
	e.outlet.Marker("ATTENTION_CHECK_START_PHASE2_" + e.article.ArticleCode)
	e.after(e.cfg.AttentionTimeout, e.expireArticleAttention)
}

// AnswerArticleAttention records the YES/NO answer to the phase-2
// attention check and moves on.
func (e *Experiment) AnswerArticleAttention(answer string) error {
	answer, ok := normalizeAnswer(answer)
	if !ok {
		e.log.Warn("Rejected attention answer", zap.String("answer", answer))
		return fmt.Errorf("%w: attention answer", ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return ErrNoSession
	}
	if e.scene != SceneArticle || e.articleStage != stageAttention {
		return ErrOutOfOrder
	}

	rt := e.attentionClock.Elapsed().Seconds()
	if e.selected != nil {
		e.selected.AttentionCheckResponse = answer
		e.selected.AttentionCheckReactionTime = records.Seconds(rt)
	}
	r := e.articleRatingRecord()
	r.AttentionCheck = answer
	r.AttentionCheckRT = &rt
	e.outlet.Rating(r)
	e.outlet.Marker(fmt.Sprintf("ATTENTION_CHECK_RESPONSE_PHASE2_%s_RT%.3f", correctness(answer, e.article.AttentionAnswer), rt))
	e.event("AttentionCheckAnswered", field{"Headline", e.article.Headline}, field{"AttentionCheckResponse", answer})
	e.afterArticle()
	return nil
}

func (e *Experiment) expireArticleAttention() {
	if e.articleStage != stageAttention {
		return
	}
	if e.selected != nil {
		e.selected.AttentionCheckResponse = models.AttentionNoResponse
		e.selected.AttentionCheckReactionTime = models.AttentionTimeout
	}
	timeout := e.cfg.AttentionTimeout.Seconds()
	r := e.articleRatingRecord()
	r.AttentionCheck = models.AttentionTimeout
	r.AttentionCheckRT = &timeout
	e.outlet.Rating(r)
	e.event("AttentionCheckTimedOut", field{"Headline", e.article.Headline}, field{"AttentionCheckResponse", models.AttentionNoResponse})
	e.afterArticle()
}

// articleRatingRecord repeats the article's rating record so the attention
// result can be attached to it.
func (e *Experiment) articleRatingRecord() markers.Rating {
	rating := 0
	if e.selected != nil {
		rating, _ = strconv.Atoi(e.selected.SelectedOption)
	}
	depth := e.scroll.MaxDepth()
	r := markersRating(2, e.article.ArticleCode, rating, e.readingTime)
	r.ScrollDepth = &depth
	return r
}

// minimumReadingsCompleted is the final-break condition.
func (e *Experiment) minimumReadingsCompleted() bool {
	tr := e.store.Tracker()
	if !tr.HasMinimumAcrossTopics(e.cfg.MinPerTopic, e.cfg.MinTopics) {
		return false
	}
	if len(e.cfg.RequiredTopics) > 0 && !tr.HasMinimumPerTopic(e.cfg.RequiredTopics, e.cfg.MinPerTopic) {
		return false
	}
	return tr.TotalUniqueArticlesRead() >= e.cfg.MinTotalArticles
}

// afterArticle decides between the final break, a normal break and the
// topic screen.
func (e *Experiment) afterArticle() {
	e.article = nil
	e.selected = nil
	if !e.finalBreakDone && e.minimumReadingsCompleted() {
		e.finalBreakDone = true
		e.event("MinimumReadingsCompleted")
		e.breakKind = breakFinal
		e.enter(SceneBreak)
		return
	}

	every := e.cfg.RestBreakEvery
	if every > 0 {
		if !e.finalBreakDone {
			if n := e.store.Tracker().TotalUniqueArticlesRead(); n > 0 && n%every == 0 {
				e.breakKind = breakNormal
				e.enter(SceneBreak)
				return
			}
		} else {
			e.sinceFinal++
			if e.sinceFinal%every == 0 {
				e.sinceFinal = 0
				e.breakKind = breakNormal
				e.enter(SceneBreak)
				return
			}
		}
	}
	e.goTo(SceneTopics)
}

// enterBreak pauses the global clock for the duration of the break.
func (e *Experiment) enterBreak() {
	e.ledger.BeginPause()
	if e.breakKind == breakFinal {
		e.outlet.Marker("FINAL_REST_BREAK_START")
		e.event("FinalRestBreakStarted")
		return
	}
	e.outlet.Marker("REST_BREAK_START_PHASE2")
	e.event("RestBreakStarted")
}

// FinalBreak reports whether the active break is the final one.
func (e *Experiment) FinalBreak() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scene == SceneBreak && e.breakKind == breakFinal
}

// ContinueBreak ends the rest break. After the final break, BreakEnd moves
// to the survey and BreakMoreTopics back to the topics; a normal break
// always returns to the topics.
func (e *Experiment) ContinueBreak(choice BreakChoice) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return ErrNoSession
	}
	if e.scene != SceneBreak {
		return ErrOutOfOrder
	}
	if e.breakKind == breakFinal && choice != BreakMoreTopics && choice != BreakEnd {
		return fmt.Errorf("%w: break choice", ErrInvalidInput)
	}

	duration := e.sceneClock.Elapsed().Seconds()
	e.ledger.EndPause()

	switch {
	case e.breakKind == breakFinal && choice == BreakEnd:
		e.outlet.Behavior("RestBreak", map[string]any{"type": "FinalRestBreak_EndExperiment", "duration": duration})
		e.event("FinalRestBreakEnded_RightArrow")
		e.goTo(SceneSurvey)
	case e.breakKind == breakFinal:
		e.outlet.Behavior("RestBreak", map[string]any{"type": "FinalRestBreak_ContinueReading", "duration": duration})
		e.event("FinalRestBreakEnded_LeftArrow")
		e.goTo(SceneTopics)
	default:
		e.outlet.Behavior("RestBreak", map[string]any{"type": "NormalRestBreak", "duration": duration})
		e.event("RestBreakEnded")
		e.goTo(SceneTopics)
	}
	return nil
}

// NeuralMarker tags the article being read with a marker reported by the
// recording side, such as an artifact or a frontal asymmetry event.
func (e *Experiment) NeuralMarker(marker string) error {
	marker = strings.ToUpper(strings.TrimSpace(marker))
	if marker == "" || strings.ContainsAny(marker, " \t\n") {
		return fmt.Errorf("%w: marker", ErrInvalidInput)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return ErrNoSession
	}
	if e.scene != SceneArticle || e.article == nil || e.article.ArticleCode == "" {
		return ErrOutOfOrder
	}
	if !e.classifier.RecordNeuralMarker(e.article.ArticleCode, marker) {
		return ErrOutOfOrder
	}
	e.event("NeuralMarker: "+marker, field{"ArticleCode", e.article.ArticleCode})
	return nil
}
