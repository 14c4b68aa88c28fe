package world

import (
	"context"
	"fmt"
	"testing"
)

func TestSceneAddEntityRegistersAbilities(t *testing.T) {
	s := newTestScene(t)
	e := newTestEntity(t, EntityMonster, 5)

	s.AddEntity(e)
	if !s.Abilities.Attached(e.ID) {
		t.Error("ability list not attached on add")
	}
	if got := s.GetEntity(e.ID); got != e {
		t.Errorf("GetEntity = %v", got)
	}
	if !e.IsOnScene {
		t.Error("IsOnScene not set")
	}
	// Added entity must be picked up by the next output sweep.
	changed := s.TakeChanged()
	if len(changed) != 1 || changed[0] != e.ID {
		t.Errorf("changed = %v", changed)
	}
}

func TestSceneRemoveEntityCleansUp(t *testing.T) {
	ctx := context.Background()
	s := newTestScene(t)
	p, rec := newTestPlayer(1)
	s.AddPlayer(p)
	e := newTestEntity(t, EntityMonster, 5)
	s.AddEntity(e)
	p.MarkLoaded(e.ID)

	if err := s.RemoveEntity(ctx, e, RemoveDespawn); err != nil {
		t.Fatalf("RemoveEntity: %v", err)
	}
	if s.GetEntity(e.ID) != nil {
		t.Error("entity still registered")
	}
	if s.Abilities.Attached(e.ID) {
		t.Error("ability list still attached")
	}
	if p.HasLoaded(e.ID) {
		t.Error("player loaded set not cleaned")
	}
	if e.IsOnScene {
		t.Error("IsOnScene still set")
	}
	if len(rec.events) == 0 {
		t.Fatal("no disappear push recorded")
	}
	if want := fmt.Sprintf("gone:[%d]:3", e.ID); rec.events[len(rec.events)-1] != want {
		t.Errorf("last event = %q, want %q", rec.events[len(rec.events)-1], want)
	}
}

func TestSceneUpdateEntityPositionRehashes(t *testing.T) {
	s := newTestScene(t)
	e := newTestEntity(t, EntityMonster, 5)
	s.AddEntity(e)
	s.TakeChanged()
	before := e.GridHash

	// Far enough to land in a different grid cell.
	s.UpdateEntityPosition(e, Vector{X: 5000, Y: 0, Z: 5000}, Vector{}, Vector{}, 1000, 1)
	if e.GridHash == before {
		t.Error("grid hash unchanged after long move")
	}
	if e.Motion.Pos.X != 5000 {
		t.Errorf("position not recorded: %+v", e.Motion.Pos)
	}
	changed := s.TakeChanged()
	if len(changed) != 1 || changed[0] != e.ID {
		t.Errorf("move did not mark entity changed: %v", changed)
	}
}

func TestSceneRemovePlayerPreservesOrder(t *testing.T) {
	s := newTestScene(t)
	p1, _ := newTestPlayer(1)
	p2, _ := newTestPlayer(2)
	p3, _ := newTestPlayer(3)
	s.AddPlayer(p1)
	s.AddPlayer(p2)
	s.AddPlayer(p3)

	if got := s.RemovePlayer(2); got != p2 {
		t.Fatalf("RemovePlayer returned %v", got)
	}
	order := s.Players()
	if len(order) != 2 || order[0] != p1 || order[1] != p3 {
		t.Errorf("join order broken: %v", order)
	}
	if s.PlayerByPeer(2) != nil {
		t.Error("removed player still resolvable by peer")
	}
}

func TestSceneTakeDirtyDrains(t *testing.T) {
	s := newTestScene(t)
	s.MarkDirty(10)
	s.MarkDirty(11)
	s.MarkDirty(10)

	got := s.TakeDirty()
	if len(got) != 2 {
		t.Fatalf("dirty = %v", got)
	}
	if again := s.TakeDirty(); len(again) != 0 {
		t.Errorf("second take not empty: %v", again)
	}
}
