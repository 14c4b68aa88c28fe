package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CurveEntry is one growth curve loaded from YAML: a per-level multiplier
// table used to derive stat values from level.
type CurveEntry struct {
	ID     string    `yaml:"id"`
	Values []float64 `yaml:"values"` // index 0 = level 1
}

type curveFile struct {
	Curves []CurveEntry `yaml:"curves"`
}

// CurveTable holds all growth curves indexed by ID.
type CurveTable struct {
	curves map[string][]float64
}

// LoadCurveTable loads growth curves from a YAML file.
func LoadCurveTable(path string) (*CurveTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read curves %s: %w", path, err)
	}
	var file curveFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse curves %s: %w", path, err)
	}
	t := &CurveTable{curves: make(map[string][]float64, len(file.Curves))}
	for _, c := range file.Curves {
		if len(c.Values) == 0 {
			return nil, fmt.Errorf("curve %q has no values", c.ID)
		}
		t.curves[c.ID] = c.Values
	}
	return t, nil
}

// NewCurveTable builds a table from in-memory entries (tests, defaults).
func NewCurveTable(entries []CurveEntry) *CurveTable {
	t := &CurveTable{curves: make(map[string][]float64, len(entries))}
	for _, c := range entries {
		t.curves[c.ID] = c.Values
	}
	return t
}

// Value returns the multiplier for a curve at a 1-based level. Levels beyond
// the table clamp to the last row; an unknown curve yields 1.0.
func (t *CurveTable) Value(curveID string, level int32) float64 {
	values, ok := t.curves[curveID]
	if !ok || len(values) == 0 {
		return 1.0
	}
	idx := int(level) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(values) {
		idx = len(values) - 1
	}
	return values[idx]
}

// Len returns the number of loaded curves.
func (t *CurveTable) Len() int {
	return len(t.curves)
}
