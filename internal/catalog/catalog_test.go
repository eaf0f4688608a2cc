package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/config"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/models"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/tracker"
)

const climateJSON = `{
  "topic": "Climate",
  "articles": [
    {"headline": "A", "summary": "a", "content": "...", "articleCode": "T01A", "linkedStatementCode": "T01-S01", "articleType": "confirmatory"},
    {"headline": "B", "summary": "b", "content": "...", "articleCode": "T01B", "linkedStatementCode": "T01-S01", "articleType": "disconfirmatory"},
    {"headline": "C", "summary": "c", "content": "...", "attentionWord": "glacier", "attentionAnswer": "yes"}
  ]
}`

func newCatalog(t *testing.T) *Catalog {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"climate.json": climateJSON,
		"broken.json":  `{"topic": "Broken", "articles": [`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	statements := `
statements:
  - code: T01-S01
    topic_code: T01
    topic: Climate
    text: Governments should tax carbon.
    attention_word: tax
    attention_answer: "YES"
`
	if err := os.WriteFile(filepath.Join(dir, "statements.yaml"), []byte(statements), 0o644); err != nil {
		t.Fatal(err)
	}
	return New(zaptest.NewLogger(t), config.CatalogConfig{
		Directory:      dir,
		StatementsFile: filepath.Join(dir, "statements.yaml"),
		Topics: []config.TopicConfig{
			{Name: "Climate", Code: "T01", File: "climate.json"},
			{Name: "Broken", Code: "T02", File: "broken.json"},
			{Name: "Missing", Code: "T03", File: "missing.json"},
		},
	})
}

func TestLoad(t *testing.T) {
	c := newCatalog(t)
	list, err := c.Load("Climate")
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Articles) != 3 || list.Articles[0].ArticleType != models.ArticleConfirmatory {
		t.Errorf("articles = %+v", list.Articles)
	}
	if c.TopicCode("Climate") != "T01" {
		t.Errorf("topic code = %q", c.TopicCode("Climate"))
	}
}

func TestLoadFailures(t *testing.T) {
	c := newCatalog(t)
	if _, err := c.Load("Nope"); !errors.Is(err, ErrUnknownTopic) {
		t.Errorf("unknown topic err = %v", err)
	}
	if _, err := c.Load("Broken"); err == nil {
		t.Error("malformed file loaded")
	}
	if _, err := c.Load("Missing"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v", err)
	}
	if got := len(c.All()); got != 1 {
		t.Errorf("All() loaded %d topics, want 1", got)
	}
}

func TestAvailableFiltersRead(t *testing.T) {
	c := newCatalog(t)
	tr := tracker.New()
	tr.AddSelectedArticle(models.SelectedArticle{Topic: "Climate", Headline: "B"})

	for i := 0; i < 10; i++ {
		got, err := c.Available("Climate", tr)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Fatalf("available = %d, want 2", len(got))
		}
		for _, a := range got {
			if a.Headline == "B" {
				t.Fatal("read article offered again")
			}
		}
	}
}

func TestStatements(t *testing.T) {
	c := newCatalog(t)
	set, err := c.Statements()
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Statements) != 1 || set.Statements[0].AttentionAnswer != "YES" {
		t.Errorf("statements = %+v", set.Statements)
	}
	if len(set.Scale) != 5 {
		t.Errorf("default scale not applied: %v", set.Scale)
	}
}
