// Package fallback serves the built-in sample cards shown before, or instead of,
// live data.
package fallback

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/DeafMist/tripboard/backend/internal/models"
)

//go:embed fallback.yaml
var raw []byte

type lists struct {
	Destinations []models.DisplayItem `yaml:"destinations"`
	Stories      []models.DisplayItem `yaml:"stories"`
}

var builtin = mustParse(raw)

func mustParse(data []byte) lists {
	l, err := parse(data)
	if err != nil {
		panic(fmt.Sprintf("fallback: %v", err))
	}
	return l
}

func parse(data []byte) (lists, error) {
	var l lists
	if err := yaml.Unmarshal(data, &l); err != nil {
		return lists{}, fmt.Errorf("decode fallback lists: %w", err)
	}
	return l, nil
}

// Destinations returns the sample featured destinations.
func Destinations() []models.DisplayItem {
	return clone(builtin.Destinations)
}

// Stories returns the sample latest stories.
func Stories() []models.DisplayItem {
	return clone(builtin.Stories)
}

func clone(items []models.DisplayItem) []models.DisplayItem {
	out := make([]models.DisplayItem, len(items))
	copy(out, items)
	return out
}
