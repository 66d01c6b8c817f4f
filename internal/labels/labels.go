// Package labels maps free-text issue labels to a fixed set of
// semantic categories through a declarative keyword-rule table.
package labels

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/recgfi/dataset/internal/models"
)

//go:embed rules.yaml
var rulesYAML []byte

var wordRe = regexp.MustCompile(`\w+`)

// Lemmatizer maps a word token to its dictionary base form.
type Lemmatizer interface {
	Lemma(word string) string
}

// Rule is one match rule. A single keyword matches when the token set
// contains it or it is a substring of any token; a multi-word rule
// matches only when every word appears in the token set, in any order.
type Rule struct {
	Words []string
}

// UnmarshalYAML accepts either a scalar keyword or a word list.
func (r *Rule) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var w string
		if err := node.Decode(&w); err != nil {
			return err
		}
		r.Words = []string{w}
		return nil
	}
	return node.Decode(&r.Words)
}

func (r Rule) matches(tokens []string) bool {
	if len(r.Words) == 1 {
		kw := r.Words[0]
		for _, tok := range tokens {
			if tok == kw || strings.Contains(tok, kw) {
				return true
			}
		}
		return false
	}
	for _, w := range r.Words {
		found := false
		for _, tok := range tokens {
			if tok == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Categorizer applies the rule table to label lists.
type Categorizer struct {
	lemmatizer Lemmatizer
	rules      map[string][]Rule
}

// NewCategorizer parses the embedded rule table.
func NewCategorizer(lem Lemmatizer) (*Categorizer, error) {
	var rules map[string][]Rule
	if err := yaml.Unmarshal(rulesYAML, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse label rules: %w", err)
	}
	return &Categorizer{lemmatizer: lem, rules: rules}, nil
}

// Categorize counts, per category, how many labels match it. A label
// contributes at most 1 to each category no matter how many of that
// category's rules it matches, but may contribute to several
// categories at once.
func (c *Categorizer) Categorize(labelList []string) models.LabelCategory {
	counts := make(map[string]int, len(c.rules))
	for _, label := range labelList {
		tokens := c.tokenize(label)
		for cat, rules := range c.rules {
			for _, rule := range rules {
				if rule.matches(tokens) {
					counts[cat]++
					break
				}
			}
		}
	}
	return models.LabelCategory{
		Bug:       counts["bug"],
		Feature:   counts["feature"],
		Test:      counts["test"],
		Build:     counts["build"],
		Doc:       counts["doc"],
		Coding:    counts["coding"],
		Enhance:   counts["enhance"],
		GFI:       counts["gfi"],
		Medium:    counts["medium"],
		Major:     counts["major"],
		Triaged:   counts["triaged"],
		Untriaged: counts["untriaged"],
	}
}

func (c *Categorizer) tokenize(label string) []string {
	raw := wordRe.FindAllString(strings.ReplaceAll(strings.ToLower(label), "_", " "), -1)
	tokens := make([]string, len(raw))
	for i, w := range raw {
		tokens[i] = c.lemmatizer.Lemma(w)
	}
	return tokens
}
