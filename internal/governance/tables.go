// Package governance holds the authority-boundary and universal-prohibition
// pattern tables (§6.3). Patterns are authored as data (name, description,
// regex source, optional pii flag) and compiled once at startup, the way
// the teacher compiles its masking patterns in pkg/masking — see
// compileBuiltinPatterns there. Every violation carries the table's version
// string for auditability.
package governance

import (
	"embed"
	"fmt"
	"log/slog"
	"regexp"

	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var patternsFS embed.FS

// patternSource is the on-disk (YAML) shape of one pattern entry.
type patternSource struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Pattern     string `yaml:"pattern"`
	PII         bool   `yaml:"pii"`
}

type patternsDocument struct {
	Version             string          `yaml:"version"`
	AuthorityPatterns   []patternSource `yaml:"authority_patterns"`
	ProhibitionPatterns []patternSource `yaml:"prohibition_patterns"`
}

// Pattern is a single compiled governance rule.
type Pattern struct {
	Name        string
	Description string
	Regex       *regexp.Regexp
	PII         bool
}

// Category identifies which validator phase a table backs.
type Category string

const (
	CategoryAuthority   Category = "authority"
	CategoryProhibition Category = "prohibition"
)

// Table is a versioned, compiled set of patterns for one category.
type Table struct {
	Category Category
	Version  string
	Patterns []*Pattern
}

// Violation is one pattern match found during a Scan.
type Violation struct {
	CheckID     string
	Category    Category
	Description string
	MatchedText string // "[REDACTED]" for PII patterns, never the raw value
	Version     string
}

// Scan matches the given text against every pattern in the table and
// returns one Violation per matching pattern (carrying its first match
// only), in table order. Invalid input never
// panics — a nil table behaves like an empty one.
func (t *Table) Scan(text string) []Violation {
	if t == nil {
		return nil
	}
	var violations []Violation
	for _, p := range t.Patterns {
		loc := p.Regex.FindString(text)
		if loc == "" {
			continue
		}
		matched := loc
		if p.PII {
			matched = "[REDACTED]"
		}
		violations = append(violations, Violation{
			CheckID:     checkID(t.Category, p.Name),
			Category:    t.Category,
			Description: p.Description,
			MatchedText: matched,
			Version:     t.Version,
		})
	}
	return violations
}

func checkID(cat Category, name string) string {
	switch cat {
	case CategoryAuthority:
		return "AUTH-" + name
	case CategoryProhibition:
		return "PROHIB-" + name
	default:
		return string(cat) + "-" + name
	}
}

// Tables bundles the authority and prohibition tables loaded at startup.
type Tables struct {
	Authority   *Table
	Prohibition *Table
}

// Load compiles the embedded pattern data once. Returns an error only if
// the embedded YAML itself is malformed or a pattern fails to compile —
// both are startup-time programmer errors, never request-time conditions.
func Load() (*Tables, error) {
	raw, err := patternsFS.ReadFile("patterns.yaml")
	if err != nil {
		return nil, fmt.Errorf("governance: read patterns.yaml: %w", err)
	}
	var doc patternsDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("governance: parse patterns.yaml: %w", err)
	}

	authority, err := compile(CategoryAuthority, doc.Version, doc.AuthorityPatterns)
	if err != nil {
		return nil, err
	}
	prohibition, err := compile(CategoryProhibition, doc.Version, doc.ProhibitionPatterns)
	if err != nil {
		return nil, err
	}

	slog.Info("governance tables loaded",
		"version", doc.Version,
		"authority_patterns", len(authority.Patterns),
		"prohibition_patterns", len(prohibition.Patterns))

	return &Tables{Authority: authority, Prohibition: prohibition}, nil
}

// MustLoad is Load, panicking on failure — used at process startup where a
// malformed embedded pattern table is unrecoverable.
func MustLoad() *Tables {
	t, err := Load()
	if err != nil {
		panic(err)
	}
	return t
}

func compile(cat Category, version string, sources []patternSource) (*Table, error) {
	table := &Table{Category: cat, Version: version}
	for _, src := range sources {
		re, err := regexp.Compile("(?i)" + src.Pattern)
		if err != nil {
			return nil, fmt.Errorf("governance: compile pattern %q: %w", src.Name, err)
		}
		table.Patterns = append(table.Patterns, &Pattern{
			Name:        src.Name,
			Description: src.Description,
			Regex:       re,
			PII:         src.PII,
		})
	}
	return table, nil
}
