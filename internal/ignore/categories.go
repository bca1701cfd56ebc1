package ignore

import (
	"github.com/syncwell/treesync/synctypes"
)

// Category is a named, independently enableable group of ignore patterns.
// Category patterns are not tied to any directory: they match against the path
// relative to the sync root and participate in every ignore decision.
type Category struct {
	Name     string
	Patterns []string
}

// DefaultCategories are the built-in pattern groups. All are enabled unless
// the configuration disables them by name. Negated patterns are listed after
// the broader patterns they carve out, so last-match-wins evaluation yields
// the most specific decision.
var DefaultCategories = []Category{
	{
		Name: "vendor",
		Patterns: []string{
			"node_modules/",
			"vendor/",
			"bower_components/",
			"third_party/",
		},
	},
	{
		Name: "build",
		Patterns: []string{
			"build/",
			"dist/",
			"out/",
			"target/",
			"bin/",
			"obj/",
			"__pycache__/",
		},
	},
	{
		Name: "binary",
		Patterns: []string{
			"*.exe",
			"*.dll",
			"*.so",
			"*.dylib",
			"*.o",
			"*.a",
			"*.class",
			"*.jar",
			"*.pyc",
			"*.wasm",
		},
	},
	{
		Name: "logs",
		Patterns: []string{
			"*.log",
			"logs/",
		},
	},
	{
		Name: "secrets",
		Patterns: []string{
			"*.pem",
			"*.key",
			"*.p12",
			"*.pfx",
			"credentials.json",
		},
	},
}

// compileCategories merges the enabled categories into one ordered rule list.
// Names absent from cfg.Categories keep their default enabled state.
func compileCategories(cfg synctypes.IgnoreConfig) []*Rule {
	var rules []*Rule
	for _, cat := range DefaultCategories {
		enabled := true
		if v, ok := cfg.Categories[cat.Name]; ok {
			enabled = v
		}
		if !enabled {
			continue
		}
		for _, p := range cat.Patterns {
			if rule := ParseRule(p, ""); rule != nil {
				rules = append(rules, rule)
			}
		}
	}
	return rules
}
