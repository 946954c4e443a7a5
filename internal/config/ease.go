package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/survey_insights/backend/internal/analytics"
)

type easeFile struct {
	Default   *int           `yaml:"default"`
	Locations map[string]int `yaml:"locations"`
}

// LoadEase reads the per-location implementation ease table. An empty path
// gives a table where every location uses def.
func LoadEase(path string, def int) (analytics.EaseTable, error) {
	table := analytics.EaseTable{Default: def, ByLocation: map[string]int{}}
	if err := checkEase("default", def); err != nil {
		return analytics.EaseTable{}, err
	}
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return analytics.EaseTable{}, fmt.Errorf("read ease file: %w", err)
	}
	var f easeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return analytics.EaseTable{}, fmt.Errorf("parse ease file %s: %w", path, err)
	}
	if f.Default != nil {
		if err := checkEase("default", *f.Default); err != nil {
			return analytics.EaseTable{}, err
		}
		table.Default = *f.Default
	}
	for id, v := range f.Locations {
		if err := checkEase(id, v); err != nil {
			return analytics.EaseTable{}, err
		}
		table.ByLocation[id] = v
	}
	return table, nil
}

var errEaseRange = errors.New("implementation ease must be between 1 and 5")

func checkEase(name string, v int) error {
	if v < analytics.MinRating || v > analytics.MaxRating {
		return fmt.Errorf("%s: %w (got %d)", name, errEaseRange, v)
	}
	return nil
}
