package event

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Events []Event `yaml:"events"`
}

// LoadCatalog reads the event table from path, or the built-in table when
// path is empty.
func LoadCatalog(path string) ([]Event, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read event catalog: %w", err)
		}
		data = b
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) ([]Event, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse event catalog: %w", err)
	}
	seen := make(map[string]struct{}, len(f.Events))
	for i, e := range f.Events {
		if e.ID == "" {
			return nil, fmt.Errorf("event #%d has no id", i)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("duplicate event id %q", e.ID)
		}
		seen[e.ID] = struct{}{}
		if e.Probability < 0 || e.Probability > 1 {
			return nil, fmt.Errorf("event %q probability %v outside [0,1]", e.ID, e.Probability)
		}
		if e.Duration < 0 {
			return nil, fmt.Errorf("event %q has negative duration", e.ID)
		}
	}
	return f.Events, nil
}

// MustDefaultCatalog returns the built-in table and panics if it is malformed.
func MustDefaultCatalog() []Event {
	events, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return events
}
