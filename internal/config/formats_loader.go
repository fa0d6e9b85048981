package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/rules"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
)

// Formats holds per-format rule overrides, keyed by format name
// ("T20", "ODI", "Test", "Custom").
type Formats struct {
	Formats map[string]rules.Override `yaml:"formats"`
}

func LoadFormats(path string) (Formats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Formats{}, fmt.Errorf("read formats: %w", err)
	}

	var f Formats
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Formats{}, fmt.Errorf("parse formats: %w", err)
	}

	return f, nil
}

func (f Formats) Override(format match.Format) (rules.Override, bool) {
	o, ok := f.Formats[string(format)]
	return o, ok
}

// Resolve applies the format's override, if any, to the resolved rules.
func (f Formats) Resolve(cfg rules.Config) rules.Rules {
	if o, ok := f.Override(cfg.Format); ok {
		return rules.ResolveWith(cfg, o)
	}
	return rules.Resolve(cfg)
}
