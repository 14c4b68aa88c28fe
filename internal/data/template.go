package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EntityTemplate holds static data for an entity type loaded from YAML.
type EntityTemplate struct {
	ConfigID int32  `yaml:"config_id"`
	Name     string `yaml:"name"`
	Type     string `yaml:"type"` // avatar, monster, npc, gadget

	BaseHP      float64 `yaml:"base_hp"`
	BaseAttack  float64 `yaml:"base_attack"`
	BaseDefense float64 `yaml:"base_defense"`

	HPCurve      string `yaml:"hp_curve"`
	AttackCurve  string `yaml:"attack_curve"`
	DefenseCurve string `yaml:"defense_curve"`

	Abilities []string `yaml:"abilities"`
}

// SpawnEntry defines where one templated entity enters a scene.
type SpawnEntry struct {
	ConfigID int32   `yaml:"config_id"`
	GroupID  int32   `yaml:"group_id"`
	BlockID  int32   `yaml:"block_id"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Z        float64 `yaml:"z"`
	Level    int32   `yaml:"level"`
}

type templateFile struct {
	Entities []EntityTemplate `yaml:"entities"`
	Spawns   []SpawnEntry     `yaml:"spawns"`
}

// TemplateTable holds all entity templates indexed by config ID, plus the
// scene spawn list.
type TemplateTable struct {
	byConfigID map[int32]*EntityTemplate
	spawns     []SpawnEntry
}

// LoadTemplateTable loads entity templates from a YAML file.
func LoadTemplateTable(path string) (*TemplateTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates %s: %w", path, err)
	}
	var file templateFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse templates %s: %w", path, err)
	}
	t := &TemplateTable{byConfigID: make(map[int32]*EntityTemplate, len(file.Entities))}
	for i := range file.Entities {
		tpl := &file.Entities[i]
		if _, dup := t.byConfigID[tpl.ConfigID]; dup {
			return nil, fmt.Errorf("duplicate entity template config_id=%d", tpl.ConfigID)
		}
		t.byConfigID[tpl.ConfigID] = tpl
	}
	for _, sp := range file.Spawns {
		if _, ok := t.byConfigID[sp.ConfigID]; !ok {
			return nil, fmt.Errorf("spawn references unknown config_id=%d", sp.ConfigID)
		}
	}
	t.spawns = file.Spawns
	return t, nil
}

// Spawns returns the scene spawn list.
func (t *TemplateTable) Spawns() []SpawnEntry {
	return t.spawns
}

// Get returns a template by config ID, nil when absent.
func (t *TemplateTable) Get(configID int32) *EntityTemplate {
	return t.byConfigID[configID]
}

// Len returns the number of loaded templates.
func (t *TemplateTable) Len() int {
	return len(t.byConfigID)
}
