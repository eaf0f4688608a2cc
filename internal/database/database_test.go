package database

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/config"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/models"
)

func TestInitSQLiteMigrates(t *testing.T) {
	db, err := Init(config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range []any{&models.SessionRecord{}, &models.BiasEventRecord{}, &models.EventMarkerRecord{}, &models.SessionMetricRecord{}} {
		if !db.Migrator().HasTable(m) {
			t.Errorf("table for %T missing", m)
		}
	}
	if !db.Migrator().HasIndex(&models.BiasEventRecord{}, "idx_bias_events_session") {
		t.Error("custom index missing")
	}
}

func TestDialector(t *testing.T) {
	if d, err := Dialector(config.DatabaseConfig{Driver: "none"}); d != nil || err != nil {
		t.Errorf("none = %v, %v", d, err)
	}
	if _, err := Dialector(config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Error("unknown driver accepted")
	}
	d, err := Dialector(config.DatabaseConfig{Driver: "postgres", Host: "db", Port: "5432"})
	if err != nil || d.Name() != "postgres" {
		t.Errorf("postgres = %v, %v", d, err)
	}
}

func TestInitDisabled(t *testing.T) {
	db, err := Init(config.DatabaseConfig{Driver: "none"}, zaptest.NewLogger(t))
	if db != nil || err != nil {
		t.Errorf("disabled archive = %v, %v", db, err)
	}
}
