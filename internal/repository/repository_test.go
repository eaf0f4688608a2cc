package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/config"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/database"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/models"
)

func newArchive(t *testing.T) *Archive {
	t.Helper()
	db, err := database.Init(config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	return NewArchive(db)
}

func sampleSession(id string) models.ParticipantSession {
	return models.ParticipantSession{
		SessionID:               id,
		SubjectNumber:           "P01",
		TotalReadArticleClicks:  3,
		TotalUniqueArticlesRead: 2,
		CompletedTopics:         []string{"Climate"},
		EventMarkers: []models.EventMarker{
			{LocalTimestamp: 0, GlobalTimestamp: 0, Label: "Start"},
			{LocalTimestamp: 1, GlobalTimestamp: 5, Label: "Next"},
		},
		BiasEvents: []models.BiasExpectationEvent{
			{ArticleCode: "T01A", ExpectedResponse: models.ExpectedConfirmation, ActualResponse: models.ActualConfirmation, Alignment: models.Aligned},
			{ArticleCode: "T01B", ExpectedResponse: models.ExpectedConfirmation, ActualResponse: models.ActualNeutral, Alignment: models.UnexpectedNeutral, SurpriseScore: 0.5},
			{ArticleCode: "T01C", ExpectedResponse: models.ExpectedNeutral, ActualResponse: models.ActualUndetermined, Alignment: models.AlignmentPending},
		},
		BiasReport: &models.ValidationReport{CompletedEvents: 2, AlignedCount: 1, AverageSurpriseScore: 0.25},
		Summary: map[string]models.MetricResult{
			"phase1_agreement_rt_mean": {Value: 2.5, Calculated: true, SampleSize: 4},
			"phase1_agreement_rt_sd":   {Calculated: false},
		},
	}
}

func TestSaveAndGetSession(t *testing.T) {
	a := newArchive(t)
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	err := a.SaveSessionTx(ctx, ArchivedSession{
		Session:   sampleSession("11111111-1111-1111-1111-111111111111"),
		StartedAt: start,
		EndedAt:   start.Add(time.Hour),
		Duration:  3600,
		FilePath:  "/tmp/P01.json",
		Raw:       []byte(`{"subjectNumber":"P01"}`),
	})
	if err != nil {
		t.Fatal(err)
	}

	rec, err := a.GetSession(ctx, "11111111-1111-1111-1111-111111111111")
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.BiasEvents) != 3 || rec.BiasEvents[1].ArticleCode != "T01B" {
		t.Errorf("bias events = %+v", rec.BiasEvents)
	}
	if len(rec.EventMarkers) != 2 || rec.EventMarkers[1].Label != "Next" {
		t.Errorf("markers = %+v", rec.EventMarkers)
	}
	if len(rec.Metrics) != 1 {
		t.Errorf("metrics = %+v", rec.Metrics)
	}
	if len(rec.CompletedTopics) != 1 || rec.CompletedTopics[0] != "Climate" {
		t.Errorf("completed topics = %v", rec.CompletedTopics)
	}
	if rec.AlignedCount != 1 || rec.MisalignedCount != 1 {
		t.Errorf("counts = %d/%d", rec.AlignedCount, rec.MisalignedCount)
	}
	if string(rec.RawData) != `{"subjectNumber":"P01"}` {
		t.Errorf("raw = %s", rec.RawData)
	}

	if _, err := a.GetSession(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing session err = %v", err)
	}

	list, err := a.ListSessions(ctx, 10)
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %v, %v", list, err)
	}
}

func TestDuplicateSessionRollsBack(t *testing.T) {
	a := newArchive(t)
	ctx := context.Background()
	in := ArchivedSession{Session: sampleSession("dup")}
	if err := a.SaveSessionTx(ctx, in); err != nil {
		t.Fatal(err)
	}
	if err := a.SaveSessionTx(ctx, in); err == nil {
		t.Fatal("duplicate session saved")
	}
	rec, err := a.GetSession(ctx, "dup")
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.BiasEvents) != 3 {
		t.Errorf("failed save leaked %d bias events", len(rec.BiasEvents)-3)
	}
}

func TestAggregates(t *testing.T) {
	a := newArchive(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		if err := a.SaveSessionTx(ctx, ArchivedSession{Session: sampleSession(id), StartedAt: time.Now()}); err != nil {
			t.Fatal(err)
		}
	}

	counts, err := a.AlignmentCounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]int{}
	for _, c := range counts {
		got[c.Alignment] = c.Count
	}
	if got[string(models.Aligned)] != 2 || got[string(models.UnexpectedNeutral)] != 2 || len(got) != 2 {
		t.Errorf("alignment counts = %v", got)
	}

	matrix, err := a.ExpectationMatrix(ctx)
	if err != nil || len(matrix) != 2 {
		t.Errorf("matrix = %+v, %v", matrix, err)
	}

	timeline, err := a.MetricTimeline(ctx, "phase1_agreement_rt_mean")
	if err != nil || len(timeline) != 2 || timeline[0].Value != 2.5 {
		t.Errorf("timeline = %+v, %v", timeline, err)
	}
}

func TestNilArchive(t *testing.T) {
	var a *Archive
	if err := a.SaveSessionTx(context.Background(), ArchivedSession{}); !errors.Is(err, ErrArchiveDisabled) {
		t.Errorf("err = %v", err)
	}
	if NewArchive(nil) != nil {
		t.Error("NewArchive(nil) should be nil")
	}
}

func TestSessionFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	f := NewSessionFiles(dir)
	at := time.Date(2025, 3, 1, 14, 5, 9, 0, time.Local)
	session := sampleSession("x")
	session.SubjectNumber = "P 01/../x"

	cp, err := f.WriteCheckpoint(session, at)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(cp) != "P_01_x_20250301_140509_inprogress.json" {
		t.Errorf("checkpoint name = %s", filepath.Base(cp))
	}

	path, data, err := f.Write(session, at)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(path) != dir || filepath.Base(path) != "P_01_x_20250301_140509.json" {
		t.Errorf("path = %s", path)
	}
	if len(data) == 0 {
		t.Error("no bytes returned")
	}
	back, err := f.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(back.BiasEvents) != 3 || back.SubjectNumber != session.SubjectNumber {
		t.Errorf("round trip lost data: %+v", back)
	}

	if err := f.RemoveCheckpoint(session.SubjectNumber, at); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(cp); !os.IsNotExist(err) {
		t.Error("checkpoint still present")
	}
	if err := f.RemoveCheckpoint(session.SubjectNumber, at); err != nil {
		t.Errorf("second remove: %v", err)
	}
}
