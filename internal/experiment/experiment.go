// Package experiment owns one participant session: the timestamp ledger, the
// record store, the bias classifier and the screen timers. Every screen
// operation goes through the Experiment under a single mutex, so append
// order equals call order no matter which goroutine (HTTP handler or timer)
// makes the call.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/bias"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/catalog"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/config"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/ledger"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/markers"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/metrics"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/models"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/prefs"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/records"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/repository"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/timers"
)

var (
	ErrNoSession    = errors.New("experiment: no session in progress")
	ErrInvalidInput = errors.New("experiment: invalid input")
	ErrOutOfOrder   = errors.New("experiment: action not available on this screen")
)

// Scene identifies a screen.
type Scene string

const (
	SceneSubject             Scene = "subject"
	SceneInstructions        Scene = "instructions"
	SceneStatements          Scene = "statements"
	SceneArticleInstructions Scene = "article_instructions"
	SceneTopics              Scene = "topics"
	SceneArticles            Scene = "articles"
	SceneArticle             Scene = "article"
	SceneBreak               Scene = "break"
	SceneSurvey              Scene = "survey"
	SceneThankYou            Scene = "thankyou"
	SceneTransition          Scene = "transition"
)

// Path is the route that renders the scene.
func (s Scene) Path() string {
	switch s {
	case SceneInstructions:
		return "/instructions"
	case SceneStatements:
		return "/statements"
	case SceneArticleInstructions:
		return "/articles/instructions"
	case SceneTopics:
		return "/topics"
	case SceneArticles:
		return "/articles"
	case SceneArticle:
		return "/article"
	case SceneBreak:
		return "/break"
	case SceneSurvey:
		return "/survey"
	case SceneThankYou:
		return "/thankyou"
	case SceneTransition:
		return "/transition"
	default:
		return "/"
	}
}

// Deps are the collaborators of an Experiment. Log, Catalog and Config are
// required; the rest fall back to no-op or in-memory defaults.
type Deps struct {
	Log     *zap.Logger
	Config  config.ExperimentConfig
	Catalog *catalog.Catalog
	Outlet  *markers.Outlet
	Files   *repository.SessionFiles
	Archive *repository.Archive
	Prefs   *prefs.Store
	Clock   ledger.Clock
	NewID   func() string
}

type stage int

const (
	stageRating stage = iota
	stageAttention
)

type breakKind int

const (
	breakNormal breakKind = iota
	breakFinal
)

// Experiment is the owning context of a session.
type Experiment struct {
	mu sync.Mutex
	// ioMu orders checkpoint writes against the final write.
	ioMu sync.Mutex

	log     *zap.Logger
	cfg     config.ExperimentConfig
	catalog *catalog.Catalog
	outlet  *markers.Outlet
	files   *repository.SessionFiles
	archive *repository.Archive
	prefs   *prefs.Store
	clock   ledger.Clock
	newID   func() string

	ledger      *ledger.Ledger
	store       *records.Store
	classifier  *bias.Classifier
	active      bool
	lastFile    string
	finalizedID string
	// finalized but not yet written to disk
	unsaved *repository.ArchivedSession

	scene      Scene
	sceneClock *ledger.Scene
	scope      *timers.Scope

	// phase 1
	statements       []models.Statement
	scale            []models.Option
	stmtIndex        int
	stmtStage        stage
	responseIndex    int
	attentionAnswers map[string]string
	attentionClock   *ledger.Scene

	// phase 2
	available      []models.Article
	loadErr        error
	article        *models.Article
	selected       *models.SelectedArticle
	articleStage   stage
	promptShown    bool
	rated          bool
	readingTime    float64
	scroll         *metrics.ScrollTracker
	finalBreakDone bool
	sinceFinal     int
	breakKind      breakKind
}

func New(d Deps) *Experiment {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	if d.Prefs == nil {
		d.Prefs = prefs.New()
	}
	if d.Clock == nil {
		d.Clock = ledger.SystemClock{}
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	if d.Files == nil {
		d.Files = repository.NewSessionFiles(config.ExpandHome(d.Config.OutputDir))
	}
	e := &Experiment{
		log:     log.Named("experiment"),
		cfg:     d.Config,
		catalog: d.Catalog,
		outlet:  d.Outlet,
		files:   d.Files,
		archive: d.Archive,
		prefs:   d.Prefs,
		clock:   d.Clock,
		newID:   d.NewID,
		scene:   SceneSubject,
		scope:   timers.NewScope(),
	}
	e.ledger = ledger.New(e.clock)
	e.sceneClock = e.ledger.NewScene()
	return e
}

// ApplyConfig swaps the experiment parameters. Running timers keep the
// durations they were started with.
func (e *Experiment) ApplyConfig(cfg config.ExperimentConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
	e.log.Info("Experiment configuration reloaded",
		zap.Int("min_per_topic", cfg.MinPerTopic),
		zap.Int("min_topics", cfg.MinTopics),
		zap.Int("min_total_articles", cfg.MinTotalArticles))
}

// Config returns the parameters in effect.
func (e *Experiment) Config() config.ExperimentConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Scene returns the active screen.
func (e *Experiment) Scene() Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scene
}

// Active reports whether a session is in progress.
func (e *Experiment) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Next completes a transition whose delay has elapsed and returns the scene
// that should be shown.
func (e *Experiment) Next() Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scene == SceneTransition && e.sceneClock.Elapsed() >= e.cfg.TransitionDelay {
		e.completeTransition()
	}
	return e.scene
}

// leave cancels every timer of the active screen.
func (e *Experiment) leave() {
	e.scope.Close()
	e.scope = timers.NewScope()
}

// goTo passes through the transition screen on the way to next.
func (e *Experiment) goTo(next Scene) {
	if e.cfg.TransitionDelay <= 0 {
		e.enter(next)
		return
	}
	e.leave()
	e.scene = SceneTransition
	e.sceneClock = e.ledger.NewScene()
	e.prefs.Set(prefs.NextScene, string(next))
	e.after(e.cfg.TransitionDelay, e.completeTransition)
}

func (e *Experiment) completeTransition() {
	next := Scene(e.prefs.Get(prefs.NextScene, string(SceneSubject)))
	e.prefs.Delete(prefs.NextScene)
	e.enter(next)
}

// enter makes next the active screen and runs its setup.
func (e *Experiment) enter(next Scene) {
	e.leave()
	e.scene = next
	e.sceneClock = e.ledger.NewScene()
	switch next {
	case SceneStatements:
		e.enterStatement()
	case SceneArticles:
		e.enterArticles()
	case SceneArticle:
		e.enterArticle()
	case SceneBreak:
		e.enterBreak()
	}
}

// after schedules fn on the active screen. fn runs under the lock and is
// skipped if the screen was left in the meantime.
func (e *Experiment) after(d time.Duration, fn func()) {
	if d <= 0 {
		return
	}
	scope := e.scope
	scope.After(d, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.scope != scope || scope.Closed() {
			return
		}
		fn()
	})
}

type field struct {
	key   string
	value string
}

// event appends a labelled timestamp relative to the active screen.
func (e *Experiment) event(name string, fields ...field) {
	local, global := e.sceneClock.Stamp()
	var b strings.Builder
	b.WriteString(name)
	for _, f := range fields {
		if f.value != "" {
			fmt.Fprintf(&b, " | %s: %s", f.key, f.value)
		}
	}
	fmt.Fprintf(&b, " (local: %.2fs)", local)
	e.store.RecordEvent(b.String(), local, global)
}

// snapshotLocked copies the in-progress session with the bias data attached.
func (e *Experiment) snapshotLocked() models.ParticipantSession {
	events := e.classifier.Events()
	report := e.classifier.Report()
	e.store.SetBias(events, report)
	e.store.SetSummary(metrics.CalculateSessionMetrics(metrics.Input{
		Responses:        e.store.Responses(),
		AttentionAnswers: e.attentionAnswers,
		Articles:         e.store.Tracker().Articles(),
		BiasEvents:       events,
		BiasReport:       &report,
	}))
	return e.store.Snapshot(e.cfg.MinPerTopic)
}

// Checkpoint writes the in-progress session to disk. A finalized session
// whose file could not be written is retried instead. It does nothing when
// no session is running.
func (e *Experiment) Checkpoint(ctx context.Context) error {
	e.mu.Lock()
	if e.unsaved != nil {
		pending := *e.unsaved
		e.mu.Unlock()
		_, err := e.save(ctx, pending)
		return err
	}
	if !e.active || e.store.Finalized() {
		e.mu.Unlock()
		return nil
	}
	snap := e.snapshotLocked()
	start := e.ledger.StartTime()
	e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	e.ioMu.Lock()
	defer e.ioMu.Unlock()
	if e.finalizedSession(snap.SessionID) {
		return nil
	}
	path, err := e.files.WriteCheckpoint(snap, start)
	if err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	e.log.Debug("Session checkpointed", zap.String("path", path))
	return nil
}

func (e *Experiment) finalizedSession(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return id == e.finalizedID
}

// Close cancels pending timers and checkpoints an unfinished session so the
// data survives a shutdown.
func (e *Experiment) Close(ctx context.Context) error {
	e.mu.Lock()
	e.scope.Close()
	active := e.active
	e.mu.Unlock()
	if !active {
		return nil
	}
	e.log.Warn("Shutting down with a session in progress")
	return e.Checkpoint(ctx)
}
