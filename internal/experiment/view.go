package experiment

import (
	"time"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/models"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/prefs"
)

// TopicStatus is one row of the topic screen.
type TopicStatus struct {
	Name      string
	Code      string
	Read      int
	Completed bool
}

// View is what the active screen needs to render.
type View struct {
	Scene   Scene
	Active  bool
	Subject string

	// Remaining is the time left before the screen changes on its own:
	// the transition delay, the agreement prompt delay or an attention
	// check timeout. Zero means nothing is pending.
	Remaining time.Duration

	Statement       *models.Statement
	StatementNumber int
	StatementTotal  int
	Scale           []models.Option

	Attention     bool
	AttentionWord string

	Topics      []TopicStatus
	TotalUnique int
	MinPerTopic int

	Topic     string
	Articles  []models.Article
	LoadError string

	Article     *models.Article
	PromptShown bool

	FinalBreak bool
	LastFile   string
}

// Current snapshots the active screen.
func (e *Experiment) Current() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := View{
		Scene:       e.scene,
		Active:      e.active,
		Subject:     e.store.SubjectNumber(),
		MinPerTopic: e.cfg.MinPerTopic,
		LastFile:    e.lastFile,
	}
	elapsed := e.sceneClock.Elapsed()

	switch e.scene {
	case SceneTransition:
		v.Remaining = remaining(e.cfg.TransitionDelay, elapsed)
	case SceneStatements:
		stmt := e.currentStatement()
		if stmt == nil {
			break
		}
		s := *stmt
		v.Statement = &s
		v.StatementNumber = e.stmtIndex + 1
		v.StatementTotal = len(e.statements)
		v.Scale = e.scale
		if e.stmtStage == stageAttention {
			v.Attention = true
			v.AttentionWord = stmt.AttentionWord
			v.Remaining = remaining(e.cfg.AttentionTimeout, e.attentionClock.Elapsed())
		} else if e.cfg.StatementTimeout > 0 {
			v.Remaining = remaining(e.cfg.StatementTimeout, elapsed)
		}
	case SceneTopics:
		tr := e.store.Tracker()
		for _, name := range e.catalog.Topics() {
			n := tr.UniqueArticleCountForTopic(name)
			v.Topics = append(v.Topics, TopicStatus{
				Name:      name,
				Code:      e.catalog.TopicCode(name),
				Read:      n,
				Completed: n >= e.cfg.MinPerTopic,
			})
		}
		v.TotalUnique = tr.TotalUniqueArticlesRead()
	case SceneArticles:
		v.Topic = e.prefs.Get(prefs.SelectedTopic, "")
		v.Articles = append([]models.Article(nil), e.available...)
		if e.loadErr != nil {
			v.LoadError = "Articles for this topic could not be loaded."
		}
	case SceneArticle:
		if e.article == nil {
			break
		}
		a := *e.article
		v.Article = &a
		v.Topic = e.prefs.Get(prefs.SelectedTopic, "")
		v.Scale = models.DefaultScale
		if e.articleStage == stageAttention {
			v.Attention = true
			v.AttentionWord = a.AttentionWord
			v.Remaining = remaining(e.cfg.AttentionTimeout, e.attentionClock.Elapsed())
		} else {
			v.PromptShown = e.promptShown
			if !e.promptShown {
				v.Remaining = remaining(e.cfg.AgreementPromptDelay, elapsed)
			}
		}
	case SceneBreak:
		v.FinalBreak = e.breakKind == breakFinal
		v.TotalUnique = e.store.Tracker().TotalUniqueArticlesRead()
	}
	return v
}

func remaining(total, elapsed time.Duration) time.Duration {
	if total <= 0 || elapsed >= total {
		return 0
	}
	return total - elapsed
}
