package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/experiment"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/views"
)

// ExperimentHandler serves the participant screens. The experiment decides
// which screen is current; a request for any other screen is redirected to it.
type ExperimentHandler struct {
	log *zap.Logger
	exp *experiment.Experiment
}

func NewExperimentHandler(log *zap.Logger, exp *experiment.Experiment) *ExperimentHandler {
	return &ExperimentHandler{log: log.Named("experiment_handler"), exp: exp}
}

// Home shows the subject entry screen to the experimenter, or resumes the
// running session.
func (h *ExperimentHandler) Home(c *gin.Context) {
	v := h.exp.Current()
	if v.Scene != experiment.SceneSubject {
		redirect(c, v.Scene.Path())
		return
	}
	if !IsExperimenter(c) {
		redirect(c, "/experimenter/login")
		return
	}
	csrfToken, _ := tokens(c)
	render(c, h.log, http.StatusOK, "Subject entry", views.SubjectEntry(csrfToken, "", v.LastFile))
}

// StartSession handles the subject number form.
func (h *ExperimentHandler) StartSession(c *gin.Context) {
	err := h.exp.StartSession(c.PostForm("subject"))
	if errors.Is(err, experiment.ErrInvalidInput) {
		csrfToken, _ := tokens(c)
		render(c, h.log, http.StatusBadRequest, "Subject entry",
			views.SubjectEntry(csrfToken, "Enter a subject number of letters, digits, - or _.", h.exp.LastFile()))
		return
	}
	h.after(c, err)
}

// Next completes an elapsed transition and redirects to the current screen.
func (h *ExperimentHandler) Next(c *gin.Context) {
	redirect(c, h.exp.Next().Path())
}

// Show renders scene if it is the current screen.
func (h *ExperimentHandler) Show(scene experiment.Scene) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := h.exp.Current()
		if v.Scene != scene {
			redirect(c, v.Scene.Path())
			return
		}
		title, component := h.screen(c, v)
		render(c, h.log, http.StatusOK, title, component)
	}
}

func (h *ExperimentHandler) screen(c *gin.Context, v experiment.View) (string, templ.Component) {
	csrfToken, nonce := tokens(c)
	switch v.Scene {
	case experiment.SceneTransition:
		return "", views.Transition(v)
	case experiment.SceneInstructions:
		return "Instructions", views.Instructions(csrfToken)
	case experiment.SceneStatements:
		return "Statements", views.Statement(v, csrfToken)
	case experiment.SceneArticleInstructions:
		return "Instructions", views.ArticleInstructions(csrfToken)
	case experiment.SceneTopics:
		return "Topics", views.Topics(v, csrfToken)
	case experiment.SceneArticles:
		return v.Topic, views.Articles(v, csrfToken)
	case experiment.SceneArticle:
		return "Article", views.Article(v, csrfToken, nonce)
	case experiment.SceneBreak:
		return "Break", views.Break(v, csrfToken)
	case experiment.SceneSurvey:
		return "Survey", views.Survey(csrfToken, "")
	case experiment.SceneThankYou:
		return "Thank you", views.ThankYou(csrfToken, "")
	default:
		return "Subject entry", views.SubjectEntry(csrfToken, "", v.LastFile)
	}
}

// after finishes a screen action: success and rejected input both land on
// whatever screen is current now.
func (h *ExperimentHandler) after(c *gin.Context, err error) {
	switch {
	case err == nil:
	case errors.Is(err, experiment.ErrNoSession):
		h.log.Debug("Action without a session", zap.String("path", c.Request.URL.Path))
		redirect(c, "/")
		return
	case errors.Is(err, experiment.ErrOutOfOrder):
		h.log.Debug("Action out of order", zap.String("path", c.Request.URL.Path))
	case errors.Is(err, experiment.ErrInvalidInput):
		h.log.Warn("Invalid input", zap.String("path", c.Request.URL.Path), zap.Error(err))
	default:
		h.log.Error("Screen action failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.String(http.StatusInternalServerError, "Something went wrong.")
		return
	}
	redirect(c, h.exp.Current().Scene.Path())
}

func (h *ExperimentHandler) ContinueInstructions(c *gin.Context) {
	h.after(c, h.exp.ContinueInstructions())
}

func (h *ExperimentHandler) RateStatement(c *gin.Context) {
	h.after(c, h.exp.RateStatement(c.PostForm("option")))
}

func (h *ExperimentHandler) AnswerStatementAttention(c *gin.Context) {
	h.after(c, h.exp.AnswerStatementAttention(c.PostForm("answer")))
}

func (h *ExperimentHandler) ContinueArticleInstructions(c *gin.Context) {
	h.after(c, h.exp.ContinueArticleInstructions())
}

func (h *ExperimentHandler) SelectTopic(c *gin.Context) {
	h.after(c, h.exp.SelectTopic(c.PostForm("topic")))
}

func (h *ExperimentHandler) BackToTopics(c *gin.Context) {
	h.after(c, h.exp.BackToTopics())
}

func (h *ExperimentHandler) OpenArticle(c *gin.Context) {
	h.after(c, h.exp.OpenArticle(c.PostForm("headline")))
}

func (h *ExperimentHandler) RateArticle(c *gin.Context) {
	h.after(c, h.exp.RateArticle(c.PostForm("option")))
}

func (h *ExperimentHandler) AnswerArticleAttention(c *gin.Context) {
	h.after(c, h.exp.AnswerArticleAttention(c.PostForm("answer")))
}

// ReportScroll is called by the article page script; it answers with a
// status only.
func (h *ExperimentHandler) ReportScroll(c *gin.Context) {
	pos, err := strconv.ParseFloat(c.PostForm("position"), 64)
	if err != nil || pos < 0 || pos > 1 {
		c.Status(http.StatusBadRequest)
		return
	}
	switch err := h.exp.ReportScroll(pos); {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, experiment.ErrNoSession), errors.Is(err, experiment.ErrOutOfOrder):
		c.Status(http.StatusConflict)
	default:
		h.log.Error("Failed to record scroll", zap.Error(err))
		c.Status(http.StatusInternalServerError)
	}
}

func (h *ExperimentHandler) ContinueBreak(c *gin.Context) {
	h.after(c, h.exp.ContinueBreak(experiment.BreakChoice(c.PostForm("choice"))))
}

// SubmitSurvey keeps the participant on the survey with a message when the
// age is not accepted.
func (h *ExperimentHandler) SubmitSurvey(c *gin.Context) {
	err := h.exp.SubmitSurvey(c.PostForm("age"), c.PostForm("feedback"))
	if errors.Is(err, experiment.ErrInvalidInput) {
		csrfToken, _ := tokens(c)
		render(c, h.log, http.StatusBadRequest, "Survey", views.Survey(csrfToken, "Please enter your age as a number."))
		return
	}
	h.after(c, err)
}

// Finish handles the thank-you exit button.
func (h *ExperimentHandler) Finish(c *gin.Context) {
	path, err := h.exp.Finish(c.Request.Context())
	if err != nil && !errors.Is(err, experiment.ErrNoSession) && !errors.Is(err, experiment.ErrOutOfOrder) {
		h.log.Error("Session could not be saved", zap.Error(err))
		// the session is still on this screen, so Exit retries the save
		csrfToken, _ := tokens(c)
		render(c, h.log, http.StatusInternalServerError, "Thank you",
			views.ThankYou(csrfToken, "The session could not be saved. Please tell the experimenter, then press Exit to try again."))
		return
	}
	if err == nil {
		h.log.Info("Participant finished", zap.String("file", path))
	}
	redirect(c, "/")
}
