package system

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/riftgo/server/internal/data"
	"github.com/riftgo/server/internal/persist"
	"github.com/riftgo/server/internal/world"
)

// flatStats returns base values unmodified regardless of level.
type flatStats struct{}

func (flatStats) CalcFightProps(_ context.Context, base world.BaseStats, _, _ int32) (map[world.FightPropKey]float64, error) {
	return map[world.FightPropKey]float64{
		world.FightPropBaseHP:      base.HP,
		world.FightPropBaseAttack:  base.Attack,
		world.FightPropBaseDefense: base.Defense,
	}, nil
}

func (flatStats) AbilityModifiers(_ context.Context, _ string, _ int32) ([]world.AbilityModifier, error) {
	return nil, nil
}

// countContext counts snapshot pushes per entity.
type countContext struct {
	updates map[int32]int
}

func newCountContext() *countContext {
	return &countContext{updates: make(map[int32]int)}
}

func (c *countContext) NotifyLifeState(context.Context, *world.Entity) error { return nil }

func (c *countContext) NotifyDisappear(context.Context, []int32, world.RemoveReason) error {
	return nil
}

func (c *countContext) NotifyEntityUpdate(_ context.Context, snap *world.SceneEntityInfo) error {
	c.updates[snap.EntityID]++
	return nil
}

func (c *countContext) NotifyFightProp(context.Context, int32, world.FightPropKey, float64) error {
	return nil
}

type fakeStore struct {
	batches [][]persist.EntityRow
	err     error
}

func (f *fakeStore) SaveBatch(_ context.Context, _ int32, rows []persist.EntityRow) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, rows)
	return nil
}

var monsterTemplate = &data.EntityTemplate{
	ConfigID:    21010,
	Name:        "hilichurl",
	Type:        "monster",
	BaseHP:      100,
	BaseAttack:  20,
	BaseDefense: 10,
}

func spawnMonster(t *testing.T, scene *world.Scene) *world.Entity {
	t.Helper()
	e, err := Spawn(context.Background(), scene, SpawnConfig{
		Template: monsterTemplate,
		GroupID:  133001,
		BlockID:  7,
		Pos:      world.Vector{X: 10},
		Level:    1,
	}, flatStats{})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	return e
}

func TestSpawnRegistersEntity(t *testing.T) {
	scene := world.NewScene(3, zap.NewNop())
	e := spawnMonster(t, scene)
	if scene.GetEntity(e.ID) != e {
		t.Fatal("spawned entity not on scene")
	}
	if e.Type != world.EntityMonster {
		t.Errorf("type = %v", e.Type)
	}
	if got := e.FightProps.MaxHP(); got != 100 {
		t.Errorf("max HP = %g, want 100", got)
	}
}

func TestSpawnRejectsUnknownTypeTag(t *testing.T) {
	scene := world.NewScene(3, zap.NewNop())
	_, err := Spawn(context.Background(), scene, SpawnConfig{
		Template: &data.EntityTemplate{ConfigID: 1, Type: "boss"},
	}, flatStats{})
	if err == nil {
		t.Fatal("expected error for unknown type tag")
	}
}

func TestAuthoritySystemAssignsAndFlags(t *testing.T) {
	scene := world.NewScene(3, zap.NewNop())
	e := spawnMonster(t, scene)
	scene.TakeChanged()

	p := world.NewPlayer(7, 1007, newCountContext())
	scene.AddPlayer(p)
	p.MarkLoaded(e.ID)

	sys := NewAuthoritySystem(scene)
	sys.Update(time.Millisecond)

	if got := e.AuthorityPeerID(); got != 7 {
		t.Errorf("authority peer = %d, want 7", got)
	}
	if !e.AIEnabled {
		t.Error("AI not enabled with an authority peer")
	}
	changed := scene.TakeChanged()
	if len(changed) != 1 || changed[0] != e.ID {
		t.Errorf("authority change not flagged: %v", changed)
	}

	// Steady state: no change, no flag.
	sys.Update(time.Millisecond)
	if got := scene.TakeChanged(); len(got) != 0 {
		t.Errorf("unchanged authority flagged: %v", got)
	}
}

func TestAuthoritySystemDropsAIWithoutPeers(t *testing.T) {
	scene := world.NewScene(3, zap.NewNop())
	e := spawnMonster(t, scene)

	sys := NewAuthoritySystem(scene)
	sys.Update(time.Millisecond)

	if got := e.AuthorityPeerID(); got != 0 {
		t.Errorf("authority peer = %d, want 0", got)
	}
	if e.AIEnabled {
		t.Error("AI enabled with no candidates")
	}
}

func TestOutputSystemSendsOnlyToLoadedPeers(t *testing.T) {
	scene := world.NewScene(3, zap.NewNop())
	e := spawnMonster(t, scene)

	loadedCtx := newCountContext()
	loaded := world.NewPlayer(1, 1001, loadedCtx)
	scene.AddPlayer(loaded)
	loaded.MarkLoaded(e.ID)

	unloadedCtx := newCountContext()
	scene.AddPlayer(world.NewPlayer(2, 1002, unloadedCtx))

	sys := NewOutputSystem(scene, zap.NewNop())
	sys.Update(time.Millisecond)

	if got := loadedCtx.updates[e.ID]; got != 1 {
		t.Errorf("loaded peer got %d updates, want 1", got)
	}
	if got := unloadedCtx.updates[e.ID]; got != 0 {
		t.Errorf("unloaded peer got %d updates, want 0", got)
	}

	// Queue drained: a second tick with no changes sends nothing.
	sys.Update(time.Millisecond)
	if got := loadedCtx.updates[e.ID]; got != 1 {
		t.Errorf("idle tick re-sent snapshot: %d", got)
	}
}

func TestPersistenceSystemFlushesOnInterval(t *testing.T) {
	scene := world.NewScene(3, zap.NewNop())
	e := spawnMonster(t, scene)

	store := &fakeStore{}
	sys := NewPersistenceSystem(scene, store, 100*time.Millisecond, zap.NewNop())

	sys.Update(40 * time.Millisecond)
	if len(store.batches) != 0 {
		t.Fatal("flushed before interval elapsed")
	}
	sys.Update(60 * time.Millisecond)
	if len(store.batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(store.batches))
	}
	rows := store.batches[0]
	if len(rows) != 1 || rows[0].EntityID != e.ID || rows[0].ConfigID != 21010 {
		t.Errorf("rows = %+v", rows)
	}
	if rows[0].Data == nil || rows[0].Data.LifeState != world.LifeAlive {
		t.Errorf("persisted shape = %+v", rows[0].Data)
	}
}

func TestPersistenceSystemRetriesFailedBatch(t *testing.T) {
	scene := world.NewScene(3, zap.NewNop())
	e := spawnMonster(t, scene)

	store := &fakeStore{err: errors.New("connection refused")}
	sys := NewPersistenceSystem(scene, store, time.Millisecond, zap.NewNop())

	sys.Flush()
	if len(store.batches) != 0 {
		t.Fatal("failed batch recorded as saved")
	}

	// Rows stay dirty; the next flush retries them.
	store.err = nil
	sys.Flush()
	if len(store.batches) != 1 || store.batches[0][0].EntityID != e.ID {
		t.Fatalf("retry batch = %+v", store.batches)
	}
}

func TestPersistenceSystemSkipsEmptyFlush(t *testing.T) {
	scene := world.NewScene(3, zap.NewNop())
	store := &fakeStore{}
	sys := NewPersistenceSystem(scene, store, time.Millisecond, zap.NewNop())
	sys.Flush()
	if len(store.batches) != 0 {
		t.Errorf("empty flush produced a batch: %v", store.batches)
	}
}

func TestCleanupSystemRemovesAfterPersist(t *testing.T) {
	scene := world.NewScene(3, zap.NewNop())
	e := spawnMonster(t, scene)

	store := &fakeStore{}
	persistSys := NewPersistenceSystem(scene, store, time.Millisecond, zap.NewNop())
	cleanupSys := NewCleanupSystem(scene)

	if err := e.Kill(context.Background(), 42, world.DieKilled); err != nil {
		t.Fatalf("Kill: %v", err)
	}

	// Persist phase runs first and must capture the dead state.
	persistSys.Flush()
	if len(store.batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(store.batches))
	}
	row := store.batches[0][0]
	if row.Data.LifeState != world.LifeDead {
		t.Errorf("persisted life state = %d, want dead", row.Data.LifeState)
	}
	if scene.GetEntity(e.ID) != e {
		t.Fatal("entity removed before the cleanup phase")
	}

	cleanupSys.Update(time.Millisecond)
	if scene.GetEntity(e.ID) != nil {
		t.Fatal("entity still registered after cleanup")
	}
}
