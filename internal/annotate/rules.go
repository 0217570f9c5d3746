package annotate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// HeightRule selects how strictly explicitly sized boxes are rejected.
type HeightRule string

const (
	// HeightZero rejects only boxes with a fixed 0px height.
	HeightZero HeightRule = "zero"
	// HeightFixed rejects every box whose height is a length (not %, not auto).
	HeightFixed HeightRule = "fixed"
)

// Rules holds the exclusion lists consulted by the eligibility filter.
type Rules struct {
	Tags       []string   `yaml:"tags"`
	Roles      []string   `yaml:"roles"`
	AriaLabels []string   `yaml:"aria_labels"`
	Scenarios  []string   `yaml:"track_action_scenarios"`
	Classes    []string   `yaml:"classes"`
	HeightRule HeightRule `yaml:"height_rule"`
}

// DefaultRules returns the built-in exclusion lists.
func DefaultRules() Rules {
	return Rules{
		Tags: []string{
			"ruby", "rt", "rp", "script", "noscript", "style", "template",
			"select", "option", "textarea", "input", "button", "a", "link",
			"table", "code", "pre", "kbd", "samp", "head", "title", "svg",
			"math", "iframe",
		},
		Roles:      []string{"table", "heading", "grid", "textbox"},
		AriaLabels: []string{"chats"},
		Scenarios:  []string{"messageQuotedReplyDeeplink"},
		Classes: []string{
			"ui-card__body",              // Teams calendar card
			"fui-ChatMessage__timestamp", // Teams chat timestamp
			"code-container",             // greasyfork code
			"diff-table",                 // github diff
			"ms-List-cell",               // ADO virtualised list
		},
		HeightRule: HeightZero,
	}
}

// rulesFile is the on-disk form. Lists extend the defaults unless Replace is set.
type rulesFile struct {
	Replace bool `yaml:"replace"`
	Rules   `yaml:",inline"`
}

// LoadRules reads a YAML rules file and merges it over DefaultRules.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Rules{}, fmt.Errorf("read rules %s: %w", path, err)
	}
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Rules{}, fmt.Errorf("parse rules %s: %w", path, err)
	}

	r := DefaultRules()
	if f.Replace {
		r.Tags, r.Roles, r.AriaLabels, r.Scenarios, r.Classes = nil, nil, nil, nil, nil
	}
	r.Tags = append(r.Tags, f.Tags...)
	r.Roles = append(r.Roles, f.Roles...)
	r.AriaLabels = append(r.AriaLabels, f.AriaLabels...)
	r.Scenarios = append(r.Scenarios, f.Scenarios...)
	r.Classes = append(r.Classes, f.Classes...)
	if f.HeightRule != "" {
		r.HeightRule = f.HeightRule
	}
	if err := r.Validate(); err != nil {
		return Rules{}, fmt.Errorf("rules %s: %w", path, err)
	}
	return r, nil
}

// Validate checks enumerated fields.
func (r Rules) Validate() error {
	switch r.HeightRule {
	case "", HeightZero, HeightFixed:
		return nil
	}
	return fmt.Errorf("height_rule must be %q or %q, got %q", HeightZero, HeightFixed, r.HeightRule)
}

// ruleSet is Rules compiled into lookup sets. Tags, roles and aria labels
// compare case-insensitively; classes and scenarios are case-sensitive tokens.
type ruleSet struct {
	tags       map[string]bool
	roles      map[string]bool
	ariaLabels map[string]bool
	scenarios  map[string]bool
	classes    map[string]bool
	height     HeightRule
}

func compileRules(r Rules) ruleSet {
	lower := func(in []string) map[string]bool {
		m := make(map[string]bool, len(in))
		for _, s := range in {
			m[strings.ToLower(strings.TrimSpace(s))] = true
		}
		return m
	}
	exact := func(in []string) map[string]bool {
		m := make(map[string]bool, len(in))
		for _, s := range in {
			m[strings.TrimSpace(s)] = true
		}
		return m
	}
	h := r.HeightRule
	if h == "" {
		h = HeightZero
	}
	return ruleSet{
		tags:       lower(r.Tags),
		roles:      lower(r.Roles),
		ariaLabels: lower(r.AriaLabels),
		scenarios:  exact(r.Scenarios),
		classes:    exact(r.Classes),
		height:     h,
	}
}
