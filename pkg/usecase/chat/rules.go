package chat

import (
	"os"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// Rules holds the keyword tables driving tone and intent detection. Each list
// compiles to word-boundary patterns, so "98105" never counts as choosing
// option "1" and "love italian" never counts as "love it".
type Rules struct {
	Frustrated []string `yaml:"frustrated"`
	Grateful   []string `yaml:"grateful"`
	Goodbye    []string `yaml:"goodbye"`
	Help       []string `yaml:"help"`
	Moved      []string `yaml:"moved"`
	More       []string `yaml:"more"`
	Selection  []string `yaml:"selection"`
	Order      []string `yaml:"order"`
}

// DefaultRules returns the built-in keyword tables
func DefaultRules() *Rules {
	return &Rules{
		Frustrated: []string{"angry", "upset", "frustrated", "mad", "annoyed", "pissed"},
		Grateful:   []string{"thank you", "thanks", "ok thanks", "love it"},
		Goodbye:    []string{"bye", "see you", "goodnight", "take care"},
		Help:       []string{"help", "find", "don't know", "unknown"},
		Moved:      []string{"moved", "new city", "different area", "relocated"},
		More:       []string{"more", "another", "else", "different"},
		Selection: []string{
			"first", "second", "third", "1", "2", "3",
			"this one", "that one", "sounds good", "perfect",
		},
		Order: []string{"order", "menu", "link", "doordash"},
	}
}

// LoadRules reads a YAML rules file. Lists absent from the file keep their
// built-in defaults.
func LoadRules(path string) (*Rules, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read rules file", goerr.V("path", path))
	}

	rules := DefaultRules()
	if err := yaml.Unmarshal(content, rules); err != nil {
		return nil, goerr.Wrap(err, "failed to parse rules file", goerr.V("path", path))
	}

	return rules, nil
}

// matcher matches any of a set of phrases on word boundaries,
// case-insensitively
type matcher struct {
	patterns []*regexp.Regexp
}

func newMatcher(phrases []string) *matcher {
	m := &matcher{patterns: make([]*regexp.Regexp, 0, len(phrases))}
	for _, phrase := range phrases {
		m.patterns = append(m.patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(strings.ToLower(phrase))+`\b`))
	}
	return m
}

func (m *matcher) match(text string) bool {
	for _, p := range m.patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// tone classification tags
type tone string

const (
	toneNeutral    tone = "neutral"
	toneFrustrated tone = "frustrated"
	toneGrateful   tone = "grateful"
	toneGoodbye    tone = "goodbye"
)

// classifier is the compiled form of Rules
type classifier struct {
	frustrated *matcher
	grateful   *matcher
	goodbye    *matcher
	help       *matcher
	moved      *matcher
	more       *matcher
	selection  *matcher
	order      *matcher
}

func newClassifier(rules *Rules) *classifier {
	return &classifier{
		frustrated: newMatcher(rules.Frustrated),
		grateful:   newMatcher(rules.Grateful),
		goodbye:    newMatcher(rules.Goodbye),
		help:       newMatcher(rules.Help),
		moved:      newMatcher(rules.Moved),
		more:       newMatcher(rules.More),
		selection:  newMatcher(rules.Selection),
		order:      newMatcher(rules.Order),
	}
}

// detectTone classifies the emotional tone of one message. Ordered: a message
// that is both frustrated and grateful counts as frustrated.
func (c *classifier) detectTone(text string) tone {
	switch {
	case c.frustrated.match(text):
		return toneFrustrated
	case c.goodbye.match(text):
		return toneGoodbye
	case c.grateful.match(text):
		return toneGrateful
	default:
		return toneNeutral
	}
}
