package world

import (
	"context"
	"fmt"
	"sort"
)

// FightPropKey identifies a combat stat.
type FightPropKey int32

const (
	FightPropBaseHP      FightPropKey = 2001
	FightPropMaxHP       FightPropKey = 2002
	FightPropCurHP       FightPropKey = 2003
	FightPropBaseAttack  FightPropKey = 2004
	FightPropCurAttack   FightPropKey = 2005
	FightPropBaseDefense FightPropKey = 2006
	FightPropCurDefense  FightPropKey = 2007
	FightPropCritRate    FightPropKey = 2008
	FightPropCritDamage  FightPropKey = 2009
)

// FightPropPair is one exported combat stat.
type FightPropPair struct {
	Key   FightPropKey `json:"key"`
	Value float64      `json:"value"`
}

// FightProps is the keyed combat-stat store. Values are recomputed from
// level, growth curves, and ability modifiers by Update. Scene-goroutine only.
type FightProps struct {
	m     map[FightPropKey]float64
	owner *Entity

	// Called by Set when notify is requested. Wired by the scene on entity
	// registration; nil while detached.
	notifyFn func(ctx context.Context, key FightPropKey, value float64) error
}

func newFightProps(owner *Entity) *FightProps {
	return &FightProps{
		m:     make(map[FightPropKey]float64, 16),
		owner: owner,
	}
}

// Init restores the store from a persisted snapshot.
func (f *FightProps) Init(data map[FightPropKey]float64) {
	clear(f.m)
	for k, v := range data {
		f.m[k] = v
	}
}

// Update recomputes all derived stats: the curve engine produces the base
// values for the current level/promotion, then the entity's active ability
// modifiers are applied on top. Current HP is preserved across recomputes,
// clamped to the new maximum; a never-set current HP starts at the maximum.
func (f *FightProps) Update(ctx context.Context) error {
	e := f.owner
	base, err := e.stats.CalcFightProps(ctx, e.Base, e.Level(), e.BreakLevel())
	if err != nil {
		return fmt.Errorf("calc fight props entity=%d: %w", e.ID, err)
	}

	// Key presence distinguishes "never set" from a genuine 0 so a dead
	// entity restored at 0 HP keeps it.
	curHP, hadHP := f.m[FightPropCurHP]

	for k, v := range base {
		f.m[k] = v
	}
	f.m[FightPropMaxHP] = f.m[FightPropBaseHP]
	f.m[FightPropCurAttack] = f.m[FightPropBaseAttack]
	f.m[FightPropCurDefense] = f.m[FightPropBaseDefense]

	for _, mod := range e.Abilities.Modifiers() {
		f.m[mod.Prop] += mod.Value
	}

	maxHP := f.m[FightPropMaxHP]
	switch {
	case !hadHP:
		f.m[FightPropCurHP] = maxHP
	case curHP > maxHP:
		f.m[FightPropCurHP] = maxHP
	default:
		f.m[FightPropCurHP] = curHP
	}
	return nil
}

func (f *FightProps) Get(key FightPropKey) float64 {
	return f.m[key]
}

// Set writes a single stat. With notify, the change is pushed to the scene's
// broadcast contexts; a detached entity skips the push.
func (f *FightProps) Set(ctx context.Context, key FightPropKey, value float64, notify bool) error {
	f.m[key] = value
	if notify && f.notifyFn != nil {
		return f.notifyFn(ctx, key, value)
	}
	return nil
}

// MaxHP returns the current maximum HP.
func (f *FightProps) MaxHP() float64 {
	return f.m[FightPropMaxHP]
}

// CurHP returns the current HP.
func (f *FightProps) CurHP() float64 {
	return f.m[FightPropCurHP]
}

// ExportPropList exports all stats sorted by key for a stable wire order.
func (f *FightProps) ExportPropList() []FightPropPair {
	out := make([]FightPropPair, 0, len(f.m))
	for k, v := range f.m {
		out = append(out, FightPropPair{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ExportUserData exports a copy of the store for persistence.
func (f *FightProps) ExportUserData() map[FightPropKey]float64 {
	out := make(map[FightPropKey]float64, len(f.m))
	for k, v := range f.m {
		out[k] = v
	}
	return out
}
