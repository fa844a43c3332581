package rss

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SourcesConfig is the YAML seed file structure
// sources:
//   - feed_url: https://...
//     language: ar
type SourcesConfig struct {
	Sources []SeedSource `yaml:"sources"`
}

// SeedSource describes one configured feed to upsert into storage at startup.
type SeedSource struct {
	FeedURL  string `yaml:"feed_url"`
	Language string `yaml:"language"`
	IsActive *bool  `yaml:"is_active"`
}

// Active defaults to true when the field is omitted.
func (s SeedSource) Active() bool {
	if s.IsActive == nil {
		return true
	}
	return *s.IsActive
}

// LoadSources reads the seed source list from a YAML file.
func LoadSources(path string) ([]SeedSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg SourcesConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse sources config: %w", err)
	}

	for i, s := range cfg.Sources {
		if s.FeedURL == "" {
			return nil, fmt.Errorf("sources[%d]: feed_url is required", i)
		}
	}

	return cfg.Sources, nil
}
