package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/routepulse/collector-cli/internal/extract"
)

// Source defines one schedule site to collect from.
type Source struct {
	// Name identifies the source in job logs and records.
	Name string `yaml:"name"`
	// LandingURL is the page listing route links.
	LandingURL string `yaml:"landing_url"`
	// LinkPatterns are glob path patterns for route links; empty uses the
	// built-in defaults.
	LinkPatterns []string `yaml:"link_patterns"`
	// MaxRoutes caps discovery per run, 0 for no cap.
	MaxRoutes int `yaml:"max_routes"`
	// Static selects plain-HTTP fetching instead of a browser.
	Static bool `yaml:"static"`
	// ScrollRounds overrides the global scroll bound for this source.
	ScrollRounds int `yaml:"scroll_rounds"`
	// Profile overrides extraction selectors; empty fields fall back to
	// the defaults.
	Profile extract.SiteProfile `yaml:"profile"`
}

// SourcesFile is the top-level shape of sources.yaml.
type SourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads and validates the source definitions.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read sources file %s", path)
	}

	var file SourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "config: parse sources file %s", path)
	}
	if len(file.Sources) == 0 {
		return nil, eris.Errorf("config: no sources defined in %s", path)
	}

	seen := make(map[string]struct{}, len(file.Sources))
	for _, s := range file.Sources {
		if s.Name == "" {
			return nil, eris.Errorf("config: source with empty name in %s", path)
		}
		if s.LandingURL == "" {
			return nil, eris.Errorf("config: source %q has no landing_url", s.Name)
		}
		if _, dup := seen[s.Name]; dup {
			return nil, eris.Errorf("config: duplicate source name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return file.Sources, nil
}
