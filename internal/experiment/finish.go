package experiment

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/repository"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/utils"
)

// SubmitSurvey stores the closing questionnaire. A non-numeric or
// out-of-range age keeps the participant on the survey.
func (e *Experiment) SubmitSurvey(age, feedback string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return ErrNoSession
	}
	if e.scene != SceneSurvey {
		return ErrOutOfOrder
	}
	n, err := utils.ParseAge(age)
	if err != nil {
		e.log.Warn("Rejected survey age", zap.String("age", age), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	e.store.SetAge(n)
	e.store.SetFeedback(strings.TrimSpace(feedback))
	e.store.SetSurveyDuration(e.sceneClock.Elapsed().Seconds())
	e.event("Survey_SUBMITTED")
	e.goTo(SceneThankYou)
	return nil
}

// Finish finalizes the session when the participant leaves the thank-you
// screen. The session document is written to the output directory and, if
// configured, archived in the database. It returns the file path.
//
// The experiment only returns to subject entry once the file is written. A
// failed write leaves the participant on the thank-you screen with the
// finalized session held in memory, so Exit, Checkpoint and Close retry it.
func (e *Experiment) Finish(ctx context.Context) (string, error) {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return "", ErrNoSession
	}
	if e.scene != SceneThankYou {
		e.mu.Unlock()
		return "", ErrOutOfOrder
	}
	if e.unsaved == nil {
		e.store.SetThankYouDuration(e.sceneClock.Elapsed().Seconds())
		e.event("ThankYou_EXIT_PRESSED")
		e.snapshotLocked()
		end := e.ledger.Now()
		duration := e.ledger.GlobalElapsed().Seconds()
		e.unsaved = &repository.ArchivedSession{
			Session:   e.store.Finalize(end, duration, e.cfg.MinPerTopic),
			StartedAt: e.ledger.StartTime(),
			EndedAt:   end,
			Duration:  duration,
		}
	}
	pending := *e.unsaved
	e.mu.Unlock()

	return e.save(ctx, pending)
}

// save persists a finalized session and closes it out on success.
func (e *Experiment) save(ctx context.Context, in repository.ArchivedSession) (string, error) {
	path, err := e.persist(ctx, in)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		return "", err
	}
	if e.unsaved != nil && e.unsaved.Session.SessionID == in.Session.SessionID {
		e.unsaved = nil
		e.active = false
		e.finalizedID = in.Session.SessionID
		e.lastFile = path
		e.enter(SceneSubject)
	}
	return path, nil
}

// persist writes the session file, drops the checkpoint and archives the
// session. Archive failures are logged only; the file is the primary copy.
func (e *Experiment) persist(ctx context.Context, in repository.ArchivedSession) (string, error) {
	e.ioMu.Lock()
	defer e.ioMu.Unlock()
	session := in.Session
	if e.finalizedSession(session.SessionID) {
		// a concurrent retry got there first
		return e.LastFile(), nil
	}
	log := e.log.With(zap.String("session_id", session.SessionID), zap.String("subject", session.SubjectNumber))

	path, raw, err := e.files.Write(session, in.EndedAt)
	if err != nil {
		log.Error("Failed to write session file", zap.Error(err))
		return "", err
	}
	log.Info("Session saved", zap.String("path", path))

	if err := e.files.RemoveCheckpoint(session.SubjectNumber, in.StartedAt); err != nil {
		log.Warn("Failed to remove checkpoint", zap.Error(err))
	}

	if e.archive == nil {
		return path, nil
	}
	in.FilePath = path
	in.Raw = raw
	if err := e.archive.SaveSessionTx(ctx, in); err != nil {
		log.Error("Failed to archive session", zap.Error(err))
	}
	return path, nil
}

// LastFile is the session file written by the most recent Finish.
func (e *Experiment) LastFile() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastFile
}
