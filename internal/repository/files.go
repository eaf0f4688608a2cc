package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/models"
)

// FileTimeLayout is the timestamp part of session file names.
const FileTimeLayout = "20060102_150405"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// SessionFiles writes session documents into one directory.
type SessionFiles struct {
	dir string
}

func NewSessionFiles(dir string) *SessionFiles {
	return &SessionFiles{dir: dir}
}

func (f *SessionFiles) Dir() string {
	return f.dir
}

// FileName is "<subject>_<YYYYMMDD_HHMMSS>.json".
func FileName(subject string, at time.Time) string {
	s := unsafeName.ReplaceAllString(subject, "_")
	if s == "" {
		s = "unknown"
	}
	return fmt.Sprintf("%s_%s.json", s, at.Format(FileTimeLayout))
}

// CheckpointName is the in-progress file of a session started at start.
func CheckpointName(subject string, start time.Time) string {
	name := FileName(subject, start)
	return name[:len(name)-len(".json")] + "_inprogress.json"
}

// Write stores the final session document and returns its path and bytes.
func (f *SessionFiles) Write(session models.ParticipantSession, at time.Time) (string, []byte, error) {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode session: %w", err)
	}
	path := filepath.Join(f.dir, FileName(session.SubjectNumber, at))
	if err := writeAtomic(path, data); err != nil {
		return "", nil, err
	}
	return path, data, nil
}

// WriteCheckpoint overwrites the in-progress file of a session.
func (f *SessionFiles) WriteCheckpoint(session models.ParticipantSession, start time.Time) (string, error) {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	path := filepath.Join(f.dir, CheckpointName(session.SubjectNumber, start))
	return path, writeAtomic(path, data)
}

// RemoveCheckpoint deletes the in-progress file, if any.
func (f *SessionFiles) RemoveCheckpoint(subject string, start time.Time) error {
	err := os.Remove(filepath.Join(f.dir, CheckpointName(subject, start)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Read loads a session document.
func (f *SessionFiles) Read(path string) (*models.ParticipantSession, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s models.ParticipantSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &s, nil
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("could not create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write session file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("could not sync session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("could not move session file into place: %w", err)
	}
	return nil
}
