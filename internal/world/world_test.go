package world

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap"
)

// stubStats is a deterministic StatEngine: base values scale linearly with
// level, promotion adds 5% per tier, abilities resolve from a fixed map.
type stubStats struct {
	mods map[string][]AbilityModifier
	err  error
}

func (s *stubStats) CalcFightProps(_ context.Context, base BaseStats, level, breakLevel int32) (map[FightPropKey]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	mult := float64(level) * (1.0 + 0.05*float64(breakLevel))
	return map[FightPropKey]float64{
		FightPropBaseHP:      base.HP * mult,
		FightPropBaseAttack:  base.Attack * mult,
		FightPropBaseDefense: base.Defense * mult,
	}, nil
}

func (s *stubStats) AbilityModifiers(_ context.Context, ability string, _ int32) ([]AbilityModifier, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.mods[ability], nil
}

// recordContext is a BroadcastContext that records every push in order.
type recordContext struct {
	events []string
}

func (r *recordContext) NotifyLifeState(_ context.Context, e *Entity) error {
	r.events = append(r.events, fmt.Sprintf("life:%d:%d", e.ID, e.LifeState()))
	return nil
}

func (r *recordContext) NotifyDisappear(_ context.Context, ids []int32, reason RemoveReason) error {
	r.events = append(r.events, fmt.Sprintf("gone:%v:%d", ids, reason))
	return nil
}

func (r *recordContext) NotifyEntityUpdate(_ context.Context, snap *SceneEntityInfo) error {
	r.events = append(r.events, fmt.Sprintf("update:%d", snap.EntityID))
	return nil
}

func (r *recordContext) NotifyFightProp(_ context.Context, entityID int32, key FightPropKey, value float64) error {
	r.events = append(r.events, fmt.Sprintf("prop:%d:%d:%g", entityID, key, value))
	return nil
}

func newTestEntity(t *testing.T, typ EntityType, level int32) *Entity {
	t.Helper()
	e := NewEntity(EntityConfig{
		Type:      typ,
		GroupID:   133001,
		ConfigID:  21010,
		BlockID:   7,
		BornPos:   Vector{X: 100, Y: 0, Z: -40},
		Base:      BaseStats{HP: 100, Attack: 20, Defense: 10},
		Abilities: []string{"iron_hide"},
	}, &stubStats{
		mods: map[string][]AbilityModifier{
			"iron_hide": {{Prop: FightPropCurDefense, Value: 15}},
		},
	})
	if err := e.InitNew(context.Background(), level); err != nil {
		t.Fatalf("InitNew: %v", err)
	}
	return e
}

func newTestScene(t *testing.T) *Scene {
	t.Helper()
	return NewScene(3, zap.NewNop())
}

func newTestPlayer(peerID uint32) (*Player, *recordContext) {
	rec := &recordContext{}
	return NewPlayer(peerID, int32(1000+peerID), rec), rec
}
