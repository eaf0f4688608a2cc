// statements.go
package models

import (
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

// Statement is a phase-1 belief statement, matching statements.yaml.
type Statement struct {
	Code            string   `yaml:"code"`
	TopicCode       string   `yaml:"topic_code"`
	Topic           string   `yaml:"topic"`
	Text            string   `yaml:"text"`
	AttentionWord   string   `yaml:"attention_word,omitempty"`
	AttentionAnswer string   `yaml:"attention_answer,omitempty"`
	Options         []Option `yaml:"options,omitempty"`
}

// Option is a labelled point on the agreement scale.
type Option struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

// StatementSet holds all phase-1 statements and the shared agreement scale.
type StatementSet struct {
	Scale      []Option    `yaml:"scale"`
	Statements []Statement `yaml:"statements"`
}

// DefaultScale is the five point agreement scale used when the file has none.
var DefaultScale = []Option{
	{Value: "1", Label: "Strongly disagree"},
	{Value: "2", Label: "Disagree"},
	{Value: "3", Label: "Neutral"},
	{Value: "4", Label: "Agree"},
	{Value: "5", Label: "Strongly agree"},
}

// LoadStatements reads and parses the statements.yaml file
func LoadStatements(path string) (*StatementSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read statements file: %w", err)
	}

	var set StatementSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to unmarshal statements YAML: %w", err)
	}
	if len(set.Scale) == 0 {
		set.Scale = DefaultScale
	}
	for i, s := range set.Statements {
		if s.Code == "" {
			return nil, fmt.Errorf("statement %d has no code", i)
		}
	}
	return &set, nil
}

// ShuffleStatements randomizes the presentation order
func ShuffleStatements(statements []Statement) {
	rand.Shuffle(len(statements), func(i, j int) {
		statements[i], statements[j] = statements[j], statements[i]
	})
}
