package world

import (
	"context"
	"fmt"
)

// AbilityModifier is one combat-stat delta contributed by an ability.
type AbilityModifier struct {
	Prop  FightPropKey
	Value float64
}

// StatEngine is the contract of the external stat-curve / ability-script
// engine. Implemented by the scripting package; failures propagate to the
// caller untouched.
type StatEngine interface {
	// CalcFightProps derives the base combat stats for the given template
	// base values at the given level and promotion tier.
	CalcFightProps(ctx context.Context, base BaseStats, level, breakLevel int32) (map[FightPropKey]float64, error)
	// AbilityModifiers resolves the stat deltas an ability grants at a level.
	AbilityModifiers(ctx context.Context, ability string, level int32) ([]AbilityModifier, error)
}

// BaseStats are the template-sourced inputs to the stat pipeline.
type BaseStats struct {
	HP      float64
	Attack  float64
	Defense float64

	HPCurve      string
	AttackCurve  string
	DefenseCurve string
}

// AbilityList is the dynamic modifier set attached to an entity. The active
// modifiers are rebuilt by Update from the configured ability names.
type AbilityList struct {
	owner *Entity
	names []string
	mods  []AbilityModifier
}

func newAbilityList(owner *Entity, names []string) *AbilityList {
	return &AbilityList{owner: owner, names: names}
}

// Update recomputes the active modifier set through the script engine.
func (a *AbilityList) Update(ctx context.Context) error {
	mods := a.mods[:0]
	level := a.owner.Level()
	for _, name := range a.names {
		m, err := a.owner.stats.AbilityModifiers(ctx, name, level)
		if err != nil {
			return fmt.Errorf("ability %q entity=%d: %w", name, a.owner.ID, err)
		}
		mods = append(mods, m...)
	}
	a.mods = mods
	return nil
}

// Modifiers returns the currently active modifier set.
func (a *AbilityList) Modifiers() []AbilityModifier {
	return a.mods
}

// Names returns the configured ability names.
func (a *AbilityList) Names() []string {
	return a.names
}

// Register attaches the list to a scene-level ability manager.
func (a *AbilityList) Register(am *AbilityManager) {
	am.attach(a.owner.ID, a)
}

// Unregister detaches the list from a scene-level ability manager.
func (a *AbilityList) Unregister(am *AbilityManager) {
	am.detach(a.owner.ID)
}

// AbilityManager is the scene-level registry of attached ability lists.
type AbilityManager struct {
	lists map[int32]*AbilityList
}

func NewAbilityManager() *AbilityManager {
	return &AbilityManager{lists: make(map[int32]*AbilityList, 64)}
}

func (m *AbilityManager) attach(entityID int32, list *AbilityList) {
	m.lists[entityID] = list
}

func (m *AbilityManager) detach(entityID int32) {
	delete(m.lists, entityID)
}

// Attached reports whether an entity's ability list is registered.
func (m *AbilityManager) Attached(entityID int32) bool {
	_, ok := m.lists[entityID]
	return ok
}

// Len returns the number of attached lists.
func (m *AbilityManager) Len() int {
	return len(m.lists)
}
