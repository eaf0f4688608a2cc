package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "config", "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestInitDefaultsWithoutFile(t *testing.T) {
	root := t.TempDir()
	if err := Init(root, zap.NewNop()); err != nil {
		t.Fatal(err)
	}
	if Conf.Server.Port != "5050" {
		t.Errorf("port = %q", Conf.Server.Port)
	}
	e := Conf.Experiment
	if e.MinPerTopic != 2 || e.MinTopics != 5 || e.MinTotalArticles != 10 || e.RestBreakEvery != 10 {
		t.Errorf("thresholds = %+v", e)
	}
	if e.AttentionTimeout != 10*time.Second || e.MaxReadTime != 300*time.Second {
		t.Errorf("timeouts = %v / %v", e.AttentionTimeout, e.MaxReadTime)
	}
	if Conf.Catalog.StatementsFile != filepath.Join(root, "config", "statements.yaml") {
		t.Errorf("statements file = %q", Conf.Catalog.StatementsFile)
	}
	if !Conf.Markers.Enabled("sse") || Conf.Markers.Enabled("redis") {
		t.Errorf("backends = %v", Conf.Markers.Backends)
	}
}

func TestInitReadsFileAndEnv(t *testing.T) {
	root := writeConfig(t, `
server:
  port: "8081"
catalog:
  topics:
    - name: "Climate Change and Environmental Policy"
      code: T01
      file: climate.json
experiment:
  min_per_topic: 3
  transition_delay: 2s
`)
	t.Setenv("CBX_DATABASE_DRIVER", "postgres")

	if err := Init(root, zap.NewNop()); err != nil {
		t.Fatal(err)
	}
	if Conf.Server.Port != "8081" {
		t.Errorf("port = %q", Conf.Server.Port)
	}
	if Conf.Database.Driver != "postgres" {
		t.Errorf("driver = %q", Conf.Database.Driver)
	}
	if got := Conf.Catalog.Topics; len(got) != 1 || got[0].Name != "Climate Change and Environmental Policy" || got[0].Code != "T01" {
		t.Errorf("topics = %+v", got)
	}
	if Conf.Experiment.MinPerTopic != 3 || Conf.Experiment.TransitionDelay != 2*time.Second {
		t.Errorf("experiment = %+v", Conf.Experiment)
	}
}

func TestInitRejectsBrokenFile(t *testing.T) {
	root := writeConfig(t, "server: [unterminated")
	if err := Init(root, zap.NewNop()); err == nil {
		t.Fatal("expected an error for malformed yaml")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandHome("~/ConfirmationBiasData"); got != filepath.Join(home, "ConfirmationBiasData") {
		t.Errorf("ExpandHome = %q", got)
	}
	if got := ExpandHome("/var/data"); got != "/var/data" {
		t.Errorf("absolute path changed: %q", got)
	}
}
