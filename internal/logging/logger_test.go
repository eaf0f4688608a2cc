package logger

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/config"
)

func TestInitCreatesLogDirectory(t *testing.T) {
	root := t.TempDir()
	log, err := Init(root, config.LoggingConfig{Directory: "logs", Level: "warn"})
	if err != nil {
		t.Fatal(err)
	}
	defer log.Sync()
	if _, err := os.Stat(root + "/logs"); err != nil {
		t.Fatalf("log directory missing: %v", err)
	}
}

func TestGormTraceLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormZapLogger(zap.New(core)).LogMode(gormlogger.Info)
	sql := func() (string, int64) { return "SELECT 1", 1 }
	ctx := context.Background()

	l.Trace(ctx, time.Now(), sql, errors.New("boom"))
	l.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)
	l.Trace(ctx, time.Now().Add(-time.Second), sql, nil)

	if n := logs.FilterLevelExact(zapcore.ErrorLevel).Len(); n != 1 {
		t.Errorf("errors = %d, want 1", n)
	}
	if n := logs.FilterMessage("GORM Trace [SLOW]").Len(); n != 1 {
		t.Errorf("slow warnings = %d, want 1", n)
	}
	if n := logs.FilterLevelExact(zapcore.DebugLevel).Len(); n != 1 {
		t.Errorf("debug traces = %d, want 1 (record not found)", n)
	}
}

func TestGormSilent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormZapLogger(zap.New(core)).LogMode(gormlogger.Silent)
	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "", 0 }, errors.New("x"))
	if logs.Len() != 0 {
		t.Errorf("silent logger wrote %d entries", logs.Len())
	}
}
