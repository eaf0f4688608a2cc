// Package catalog serves the read-only statement and article data files.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/config"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/models"
)

// ErrUnknownTopic is returned for a topic missing from the lookup table.
var ErrUnknownTopic = errors.New("catalog: unknown topic")

// Catalog maps topic names to their article files. Files are read on every
// lookup so edits show up without a restart.
type Catalog struct {
	log            *zap.Logger
	dir            string
	statementsFile string
	topics         []config.TopicConfig
	byName         map[string]config.TopicConfig
}

func New(log *zap.Logger, cfg config.CatalogConfig) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Catalog{
		log:            log.Named("catalog"),
		dir:            cfg.Directory,
		statementsFile: cfg.StatementsFile,
		topics:         append([]config.TopicConfig(nil), cfg.Topics...),
		byName:         make(map[string]config.TopicConfig, len(cfg.Topics)),
	}
	for _, t := range cfg.Topics {
		c.byName[t.Name] = t
	}
	return c
}

// Topics returns the topic names in configured order.
func (c *Catalog) Topics() []string {
	names := make([]string, 0, len(c.topics))
	for _, t := range c.topics {
		names = append(names, t.Name)
	}
	return names
}

// TopicCode returns the configured code ("T01") of a topic.
func (c *Catalog) TopicCode(topic string) string {
	return c.byName[topic].Code
}

// Load reads and parses the article file of a topic.
func (c *Catalog) Load(topic string) (*models.ArticleList, error) {
	t, ok := c.byName[topic]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
	path := t.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.dir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read article file for %q: %w", topic, err)
	}
	var list models.ArticleList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse article file %s: %w", path, err)
	}
	if list.Topic == "" {
		list.Topic = topic
	}
	return &list, nil
}

// ReadChecker is the subset of the selection tracker the catalog needs.
type ReadChecker interface {
	HasRead(topic, headline string) bool
}

// Available returns the unread articles of a topic in a fresh random order.
func (c *Catalog) Available(topic string, read ReadChecker) ([]models.Article, error) {
	list, err := c.Load(topic)
	if err != nil {
		return nil, err
	}
	out := make([]models.Article, 0, len(list.Articles))
	for _, a := range list.Articles {
		if read != nil && read.HasRead(topic, a.Headline) {
			continue
		}
		out = append(out, a)
	}
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out, nil
}

// All loads every configured topic. Topics whose file fails to load are
// logged and skipped.
func (c *Catalog) All() []models.ArticleList {
	var lists []models.ArticleList
	for _, t := range c.topics {
		list, err := c.Load(t.Name)
		if err != nil {
			c.log.Error("Failed to load topic", zap.String("topic", t.Name), zap.Error(err))
			continue
		}
		lists = append(lists, *list)
	}
	return lists
}

// Statements loads the phase-1 statements.
func (c *Catalog) Statements() (*models.StatementSet, error) {
	return models.LoadStatements(c.statementsFile)
}
