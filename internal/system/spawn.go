package system

import (
	"context"
	"fmt"

	"github.com/riftgo/server/internal/data"
	"github.com/riftgo/server/internal/persist"
	"github.com/riftgo/server/internal/world"
)

// SpawnConfig places one templated entity into a scene.
type SpawnConfig struct {
	Template *data.EntityTemplate
	GroupID  int32
	BlockID  int32
	Pos      world.Vector
	Level    int32
}

func entityTypeFromTag(tag string) (world.EntityType, error) {
	switch tag {
	case "avatar":
		return world.EntityAvatar, nil
	case "monster":
		return world.EntityMonster, nil
	case "npc":
		return world.EntityNpc, nil
	case "gadget":
		return world.EntityGadget, nil
	}
	return 0, fmt.Errorf("unknown entity type %q", tag)
}

func buildEntity(sc SpawnConfig, stats world.StatEngine) (*world.Entity, error) {
	typ, err := entityTypeFromTag(sc.Template.Type)
	if err != nil {
		return nil, fmt.Errorf("template config_id=%d: %w", sc.Template.ConfigID, err)
	}
	return world.NewEntity(world.EntityConfig{
		Type:     typ,
		GroupID:  sc.GroupID,
		ConfigID: sc.Template.ConfigID,
		BlockID:  sc.BlockID,
		BornPos:  sc.Pos,
		Base: world.BaseStats{
			HP:           sc.Template.BaseHP,
			Attack:       sc.Template.BaseAttack,
			Defense:      sc.Template.BaseDefense,
			HPCurve:      sc.Template.HPCurve,
			AttackCurve:  sc.Template.AttackCurve,
			DefenseCurve: sc.Template.DefenseCurve,
		},
		Abilities: sc.Template.Abilities,
	}, stats), nil
}

// Spawn creates a fresh entity from a template and registers it on the scene.
func Spawn(ctx context.Context, scene *world.Scene, sc SpawnConfig, stats world.StatEngine) (*world.Entity, error) {
	e, err := buildEntity(sc, stats)
	if err != nil {
		return nil, err
	}
	if err := e.InitNew(ctx, sc.Level); err != nil {
		return nil, fmt.Errorf("init new entity config_id=%d: %w", sc.Template.ConfigID, err)
	}
	scene.AddEntity(e)
	return e, nil
}

// Restore rebuilds an entity from its persisted shape and registers it on the
// scene. Falls back to a fresh spawn when nothing is persisted for the
// spawn origin.
func Restore(ctx context.Context, scene *world.Scene, sc SpawnConfig, repo *persist.EntityRepo, stats world.StatEngine) (*world.Entity, error) {
	saved, err := repo.Load(ctx, scene.ID, sc.GroupID, sc.Template.ConfigID)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return Spawn(ctx, scene, sc, stats)
	}
	e, err := buildEntity(sc, stats)
	if err != nil {
		return nil, err
	}
	if err := e.Init(ctx, saved); err != nil {
		return nil, fmt.Errorf("restore entity config_id=%d: %w", sc.Template.ConfigID, err)
	}
	scene.AddEntity(e)
	return e, nil
}
