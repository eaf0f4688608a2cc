package experiment

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/bias"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/ledger"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/models"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/prefs"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/records"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/tracker"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/utils"
)

// Attention check answers.
const (
	AnswerYes = "YES"
	AnswerNo  = "NO"
)

func normalizeAnswer(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, s == AnswerYes || s == AnswerNo
}

// StartSession begins a session for the subject number the experimenter
// entered. A finished session may be followed by a new one; a running one
// may not.
func (e *Experiment) StartSession(subject string) error {
	subject = strings.TrimSpace(subject)
	if !utils.IsValidSubjectNumber(subject) {
		e.log.Warn("Rejected subject number", zap.String("subject", subject))
		return fmt.Errorf("%w: subject number", ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active {
		return ErrOutOfOrder
	}

	e.ledger = ledger.New(e.clock)
	e.ledger.Start()
	e.store = records.New(e.log, tracker.New())
	e.classifier = bias.NewClassifier(e.log, e.outlet, e.clock.Now)
	e.active = true
	e.lastFile = ""
	e.finalBreakDone = false
	e.sinceFinal = 0

	id := e.newID()
	e.store.SetSessionID(id)
	e.store.SetSubjectNumber(subject)
	e.prefs.Set(prefs.SubjectNumber, subject)

	registered := 0
	for _, list := range e.catalog.All() {
		for _, a := range list.Articles {
			if e.classifier.RegisterArticle(a) {
				registered++
			}
		}
	}

	e.statements = nil
	e.scale = models.DefaultScale
	e.attentionAnswers = make(map[string]string)
	set, err := e.catalog.Statements()
	if err != nil {
		e.log.Error("Failed to load statements", zap.Error(err))
	} else {
		e.statements = append(e.statements, set.Statements...)
		e.scale = set.Scale
		if e.cfg.ShuffleStatements {
			models.ShuffleStatements(e.statements)
		}
		for _, s := range e.statements {
			if s.AttentionAnswer != "" {
				e.attentionAnswers[s.Code] = s.AttentionAnswer
			}
		}
	}
	e.stmtIndex = 0

	e.log.Info("Session started",
		zap.String("session_id", id),
		zap.String("subject", subject),
		zap.Int("statements", len(e.statements)),
		zap.Int("classified_articles", registered))
	e.enter(SceneInstructions)
	return nil
}

// ContinueInstructions leaves the phase-1 instruction screen and stamps the
// experiment start time.
func (e *Experiment) ContinueInstructions() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return ErrNoSession
	}
	if e.scene != SceneInstructions {
		return ErrOutOfOrder
	}
	e.store.SetInstructionReactionTime(e.sceneClock.Elapsed().Seconds())
	e.store.SetStartTime(e.ledger.Now())
	e.event("Instruction_CONTINUE_PRESSED")
	if len(e.statements) == 0 {
		e.goTo(SceneArticleInstructions)
		return nil
	}
	e.goTo(SceneStatements)
	return nil
}

func (e *Experiment) currentStatement() *models.Statement {
	if e.stmtIndex < 0 || e.stmtIndex >= len(e.statements) {
		return nil
	}
	return &e.statements[e.stmtIndex]
}

func (e *Experiment) enterStatement() {
	if e.currentStatement() == nil {
		e.goTo(SceneArticleInstructions)
		return
	}
	e.stmtStage = stageRating
	e.responseIndex = -1
	e.after(e.cfg.StatementTimeout, e.expireStatement)
}

// RateStatement records the agreement rating of the shown statement.
func (e *Experiment) RateStatement(option string) error {
	rating, err := utils.ParseRating(option)
	if err != nil {
		e.log.Warn("Rejected statement rating", zap.String("option", option), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return ErrNoSession
	}
	stmt := e.currentStatement()
	if e.scene != SceneStatements || stmt == nil || e.stmtStage != stageRating {
		return ErrOutOfOrder
	}

	rt := e.sceneClock.Elapsed().Seconds()
	e.responseIndex = e.store.RecordStatementResponse(models.StatementResponse{
		QuestionIndex:         e.stmtIndex,
		TopicCode:             stmt.TopicCode,
		StatementCode:         stmt.Code,
		SelectedOption:        option,
		AgreementReactionTime: records.Seconds(rt),
	})
	e.classifier.SetPhase1Rating(stmt.Code, rating)
	e.outlet.Rating(markersRating(1, stmt.Code, rating, rt))
	e.event("StatementRated", field{"StatementCode", stmt.Code}, field{"Rating", option})
	e.startStatementAttention(stmt)
	return nil
}

func (e *Experiment) expireStatement() {
	stmt := e.currentStatement()
	if stmt == nil || e.stmtStage != stageRating {
		return
	}
	e.store.RecordStatementResponse(models.StatementResponse{
		QuestionIndex:         e.stmtIndex,
		TopicCode:             stmt.TopicCode,
		StatementCode:         stmt.Code,
		SelectedOption:        models.NoResponse,
		AgreementReactionTime: models.NoResponse,
	})
	e.event("StatementTimedOut", field{"StatementCode", stmt.Code})
	e.log.Info("Statement timed out", zap.String("statement", stmt.Code))
	e.nextStatement()
}

func (e *Experiment) startStatementAttention(stmt *models.Statement) {
	if stmt.AttentionWord == "" {
		e.nextStatement()
		return
	}
	e.leave()
	e.stmtStage = stageAttention
	e.attentionClock = e.ledger.NewScene()
	e.outlet.Marker("ATTENTION_CHECK_START_PHASE1_" + stmt.Code)
	e.after(e.cfg.AttentionTimeout, e.expireStatementAttention)
}

// AnswerStatementAttention records the YES/NO answer to the phase-1
// attention check.
func (e *Experiment) AnswerStatementAttention(answer string) error {
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
	stmt := e.currentStatement()
	if e.scene != SceneStatements || stmt == nil || e.stmtStage != stageAttention {
		return ErrOutOfOrder
	}

	rt := e.attentionClock.Elapsed().Seconds()
	e.store.CompleteStatementAttention(e.responseIndex, answer, records.Seconds(rt))
	e.outlet.Marker(fmt.Sprintf("ATTENTION_CHECK_RESPONSE_PHASE1_%s_RT%.3f", correctness(answer, stmt.AttentionAnswer), rt))
	e.event("StatementAttentionAnswered", field{"StatementCode", stmt.Code}, field{"AttentionCheckResponse", answer})
	e.nextStatement()
	return nil
}

func (e *Experiment) expireStatementAttention() {
	stmt := e.currentStatement()
	if stmt == nil || e.stmtStage != stageAttention {
		return
	}
	e.store.CompleteStatementAttention(e.responseIndex, models.AttentionNoResponse, models.AttentionTimeout)
	e.outlet.Marker("ATTENTION_CHECK_TIMEOUT_PHASE1_" + stmt.Code)
	e.event("StatementAttentionTimedOut", field{"StatementCode", stmt.Code})
	e.nextStatement()
}

// nextStatement re-enters the statement screen for the following
// statement, which resets its local clock.
func (e *Experiment) nextStatement() {
	e.stmtIndex++
	if e.currentStatement() == nil {
		e.goTo(SceneArticleInstructions)
		return
	}
	e.enter(SceneStatements)
}

func correctness(response, expected string) string {
	if expected != "" && response == strings.ToUpper(expected) {
		return "CORRECT"
	}
	return "INCORRECT"
}
