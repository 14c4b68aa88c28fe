package world

import (
	"context"
	"strings"
	"testing"
)

func TestEntityPropsInitNew(t *testing.T) {
	p := NewEntityProps()
	p.InitNew(12)
	if got := p.Get(PropLevel); got != 12 {
		t.Errorf("level = %d, want 12", got)
	}
	if got := p.Get(PropExp); got != 0 {
		t.Errorf("exp = %d, want 0", got)
	}
	if got := p.Get(PropBreakLevel); got != 0 {
		t.Errorf("break level = %d, want 0", got)
	}
}

func TestEntityPropsExportSorted(t *testing.T) {
	p := NewEntityProps()
	p.Set(PropBreakLevel, 2)
	p.Set(PropLevel, 30)
	p.Set(PropExp, 999)

	list := p.ExportPropList()
	if len(list) != 3 {
		t.Fatalf("exported %d pairs, want 3", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].Key >= list[i].Key {
			t.Fatalf("export not sorted: %v", list)
		}
	}
	if pair := p.ExportPropPair(PropLevel); pair.Value != 30 {
		t.Errorf("ExportPropPair(level) = %+v", pair)
	}
}

func TestEntityPropsUserDataIsCopy(t *testing.T) {
	p := NewEntityProps()
	p.InitNew(5)
	snap := p.ExportUserData()
	snap[PropLevel] = 99
	if got := p.Get(PropLevel); got != 5 {
		t.Errorf("export aliased the live store: level = %d", got)
	}
}

func TestFightPropsCurHPPreservedAndClamped(t *testing.T) {
	ctx := context.Background()
	e := newTestEntity(t, EntityMonster, 5) // max HP 500

	if err := e.FightProps.Set(ctx, FightPropCurHP, 450, false); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := e.FightProps.Update(ctx); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := e.FightProps.CurHP(); got != 450 {
		t.Errorf("current HP not preserved across recompute: %g", got)
	}

	// Level drop shrinks max HP below current; current must clamp.
	e.SetLevel(1)
	if err := e.FightProps.Update(ctx); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got, max := e.FightProps.CurHP(), e.FightProps.MaxHP(); got != max {
		t.Errorf("current HP %g not clamped to max %g", got, max)
	}
}

func TestFightPropsZeroCurHPSurvivesRecompute(t *testing.T) {
	ctx := context.Background()
	e := newTestEntity(t, EntityMonster, 5)

	if err := e.FightProps.Set(ctx, FightPropCurHP, 0, false); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := e.FightProps.Update(ctx); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := e.FightProps.CurHP(); got != 0 {
		t.Errorf("explicit 0 HP reset by recompute: %g", got)
	}
}

func TestFightPropsSetNotifyBroadcasts(t *testing.T) {
	ctx := context.Background()
	s := newTestScene(t)
	p, rec := newTestPlayer(1)
	s.AddPlayer(p)
	e := newTestEntity(t, EntityMonster, 5)
	s.AddEntity(e)

	if err := e.FightProps.Set(ctx, FightPropCurHP, 321, true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	found := false
	for _, ev := range rec.events {
		if strings.HasPrefix(ev, "prop:") {
			found = true
		}
	}
	if !found {
		t.Errorf("notify push missing: %v", rec.events)
	}
}

func TestFightPropsSetNotifyDetachedIsSilent(t *testing.T) {
	e := newTestEntity(t, EntityMonster, 5)
	if err := e.FightProps.Set(context.Background(), FightPropCurHP, 10, true); err != nil {
		t.Fatalf("detached notify Set: %v", err)
	}
	if got := e.FightProps.CurHP(); got != 10 {
		t.Errorf("HP = %g, want 10", got)
	}
}
