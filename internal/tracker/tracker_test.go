package tracker

import (
	"testing"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/models"
)

func article(topic, headline string) models.SelectedArticle {
	return models.SelectedArticle{Topic: topic, Headline: headline, Content: "..."}
}

func TestDuplicateSelectionCountsClickOnly(t *testing.T) {
	tr := New()

	first, added := tr.AddSelectedArticle(article("A", "h1"))
	if !added {
		t.Fatal("first selection not added")
	}
	again, added := tr.AddSelectedArticle(article("A", "h1"))
	if added {
		t.Fatal("duplicate selection added")
	}
	if first != again {
		t.Fatal("duplicate did not return the stored record")
	}

	if got := tr.TotalClicks(); got != 2 {
		t.Errorf("TotalClicks = %d, want 2", got)
	}
	if got := tr.UniqueArticleCountForTopic("A"); got != 1 {
		t.Errorf("UniqueArticleCountForTopic = %d, want 1", got)
	}
	if got := tr.TotalUniqueArticlesRead(); got != 1 {
		t.Errorf("TotalUniqueArticlesRead = %d, want 1", got)
	}
}

func TestSameHeadlineDifferentTopicIsDistinct(t *testing.T) {
	tr := New()
	tr.AddSelectedArticle(article("A", "shared"))
	tr.AddSelectedArticle(article("B", "shared"))

	if got := tr.TotalUniqueArticlesRead(); got != 2 {
		t.Fatalf("TotalUniqueArticlesRead = %d, want 2", got)
	}
}

func TestUniqueCountIsIdempotent(t *testing.T) {
	tr := New()
	tr.AddSelectedArticle(article("A", "h1"))
	tr.AddSelectedArticle(article("A", "h2"))

	a, b := tr.UniqueArticleCountForTopic("A"), tr.UniqueArticleCountForTopic("A")
	if a != b || a != 2 {
		t.Fatalf("counts %d, %d; want 2, 2", a, b)
	}
}

func TestHasMinimumPerTopic(t *testing.T) {
	tr := New()
	tr.AddSelectedArticle(article("A", "a1"))
	tr.AddSelectedArticle(article("A", "a2"))
	tr.AddSelectedArticle(article("B", "b1"))

	if tr.HasMinimumPerTopic([]string{"A", "B"}, 2) {
		t.Fatal("expected false while B has one article")
	}
	tr.AddSelectedArticle(article("B", "b2"))
	if !tr.HasMinimumPerTopic([]string{"A", "B"}, 2) {
		t.Fatal("expected true once B has two articles")
	}
}

func TestHasMinimumAcrossTopics(t *testing.T) {
	tr := New()
	topics := []string{"T1", "T2", "T3", "T4", "T5"}
	for i, topic := range topics {
		tr.AddSelectedArticle(article(topic, "x"))
		if i < 4 {
			tr.AddSelectedArticle(article(topic, "y"))
		}
	}
	if tr.HasMinimumAcrossTopics(2, 5) {
		t.Fatal("expected false with only four completed topics")
	}
	tr.AddSelectedArticle(article("T5", "y"))
	if !tr.HasMinimumAcrossTopics(2, 5) {
		t.Fatal("expected true with five completed topics")
	}
	if got := tr.CompletedTopics(2); len(got) != 5 || got[0] != "T1" {
		t.Fatalf("CompletedTopics = %v", got)
	}
}

func TestClicksNeverBelowUnique(t *testing.T) {
	tr := New()
	for _, h := range []string{"a", "b", "a", "c", "b"} {
		tr.AddSelectedArticle(article("A", h))
		if tr.TotalClicks() < tr.TotalUniqueArticlesRead() {
			t.Fatalf("clicks %d < unique %d", tr.TotalClicks(), tr.TotalUniqueArticlesRead())
		}
	}
	if got := tr.Articles(); len(got) != 3 || got[2].Headline != "c" {
		t.Fatalf("Articles = %v, want a, b, c", got)
	}
}
