// Package tracker is the canonical record of which articles a participant
// has read and whether the reading quota has been met.
package tracker

import (
	"sort"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/models"
)

type key struct {
	topic    string
	headline string
}

// Tracker de-duplicates article selections by (topic, headline) while
// counting every click. Unique counts never decrease.
type Tracker struct {
	articles []*models.SelectedArticle
	index    map[key]*models.SelectedArticle
	perTopic map[string]int
	clicks   int
}

func New() *Tracker {
	return &Tracker{
		index:    make(map[key]*models.SelectedArticle),
		perTopic: make(map[string]int),
	}
}

// AddSelectedArticle counts a click and stores the article unless the same
// (topic, headline) was already read. It returns the stored record, which is
// the earlier one for a repeat, and whether it was newly added.
func (t *Tracker) AddSelectedArticle(a models.SelectedArticle) (*models.SelectedArticle, bool) {
	t.clicks++
	k := key{topic: a.Topic, headline: a.Headline}
	if existing, ok := t.index[k]; ok {
		return existing, false
	}
	stored := a
	t.articles = append(t.articles, &stored)
	t.index[k] = &stored
	t.perTopic[a.Topic]++
	return &stored, true
}

// HasRead reports whether the (topic, headline) pair has been read.
func (t *Tracker) HasRead(topic, headline string) bool {
	_, ok := t.index[key{topic: topic, headline: headline}]
	return ok
}

func (t *Tracker) UniqueArticleCountForTopic(topic string) int {
	return t.perTopic[topic]
}

// HasMinimumPerTopic is true iff every listed topic has at least min unique reads.
func (t *Tracker) HasMinimumPerTopic(topics []string, min int) bool {
	for _, topic := range topics {
		if t.perTopic[topic] < min {
			return false
		}
	}
	return true
}

// HasMinimumAcrossTopics is true iff at least minTopics topics each have
// minPerTopic unique reads.
func (t *Tracker) HasMinimumAcrossTopics(minPerTopic, minTopics int) bool {
	return len(t.CompletedTopics(minPerTopic)) >= minTopics
}

// CompletedTopics lists, sorted, the topics with at least minPerTopic unique reads.
func (t *Tracker) CompletedTopics(minPerTopic int) []string {
	var done []string
	for topic, n := range t.perTopic {
		if n >= minPerTopic {
			done = append(done, topic)
		}
	}
	sort.Strings(done)
	return done
}

func (t *Tracker) TotalUniqueArticlesRead() int {
	return len(t.articles)
}

// TotalClicks counts every selection including repeats.
func (t *Tracker) TotalClicks() int {
	return t.clicks
}

// Articles returns a copy of the unique selections in insertion order.
func (t *Tracker) Articles() []models.SelectedArticle {
	out := make([]models.SelectedArticle, 0, len(t.articles))
	for _, a := range t.articles {
		out = append(out, *a)
	}
	return out
}
