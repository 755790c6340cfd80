package rules

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"it-snapshot-inventory/internal/risk"
	"it-snapshot-inventory/internal/snapshot"
)

// defaultPatternsYAML ships with the binary so SWU-001 works without any
// external file. Deployments can override it via LoadPatternsFile.
//
//go:embed unwanted_apps.yaml
var defaultPatternsYAML []byte

// UnwantedPattern is one entry of the unwanted-software list.
type UnwantedPattern struct {
	Name     string        `yaml:"name"`
	Category string        `yaml:"category"`
	Reason   string        `yaml:"reason"`
	Severity risk.Severity `yaml:"severity"`
}

type patternsFile struct {
	Patterns []UnwantedPattern `yaml:"patterns"`
}

// DefaultPatterns returns the embedded unwanted-software pattern list.
func DefaultPatterns() []UnwantedPattern {
	patterns, err := parsePatterns(defaultPatternsYAML)
	if err != nil {
		// The embedded file is validated by tests; a parse failure here is a
		// build defect, not a runtime condition.
		panic(fmt.Sprintf("rules: embedded pattern list invalid: %v", err))
	}
	return patterns
}

// LoadPatternsFile reads an unwanted-software pattern list from a YAML file.
func LoadPatternsFile(path string) ([]UnwantedPattern, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read patterns: %w", err)
	}
	return parsePatterns(raw)
}

func parsePatterns(raw []byte) ([]UnwantedPattern, error) {
	var f patternsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("rules: parse patterns: %w", err)
	}
	out := f.Patterns[:0]
	for _, p := range f.Patterns {
		if p.Name == "" {
			continue
		}
		if !p.Severity.Valid() {
			p.Severity = risk.SeverityMedium
		}
		if p.Category == "" {
			p.Category = "Uncategorized"
		}
		out = append(out, p)
	}
	return out, nil
}

// unwantedMatch records one installed application that hit a pattern.
type unwantedMatch struct {
	installedName string
	pattern       UnwantedPattern
}

// matchInstalled returns a match for every installed application whose name
// contains a pattern (case-insensitive). The first matching pattern wins per
// application; each application matches at most once.
func matchInstalled(installed []snapshot.SoftwareItem, patterns []UnwantedPattern) []unwantedMatch {
	if len(patterns) == 0 {
		return nil
	}
	var matches []unwantedMatch
	for _, app := range installed {
		if app.Name == "" {
			continue
		}
		lower := strings.ToLower(app.Name)
		for _, p := range patterns {
			if strings.Contains(lower, strings.ToLower(p.Name)) {
				matches = append(matches, unwantedMatch{installedName: app.Name, pattern: p})
				break
			}
		}
	}
	return matches
}
