package safety

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"
)

// rulesFile is the structure of an optional deny-rules YAML file.
type rulesFile struct {
	Deny struct {
		Patterns []string `yaml:"patterns"`
		Commands []string `yaml:"commands"`
	} `yaml:"deny"`
}

// LoadRules appends deny rules from a YAML file to the built-in set.
// Patterns compile case-insensitively; commands are matched exactly
// against the joined, lowercased command string.
func (g *Gate) LoadRules(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var rules rulesFile
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return fmt.Errorf("parse safety rules: %w", err)
	}

	compiled := make([]*regexp.Regexp, 0, len(rules.Deny.Patterns))
	for _, p := range rules.Deny.Patterns {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			return fmt.Errorf("compile safety rule %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.patterns = append(g.patterns, compiled...)
	for _, c := range rules.Deny.Commands {
		g.blocked[strings.ToLower(c)] = struct{}{}
	}

	return nil
}
