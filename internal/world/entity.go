package world

import (
	"context"
	"fmt"
	"math"
)

// EntityType is the fixed shape of an entity, set at creation.
type EntityType int32

const (
	EntityAvatar  EntityType = 1
	EntityMonster EntityType = 2
	EntityNpc     EntityType = 3
	EntityGadget  EntityType = 4
)

func (t EntityType) String() string {
	switch t {
	case EntityAvatar:
		return "avatar"
	case EntityMonster:
		return "monster"
	case EntityNpc:
		return "npc"
	case EntityGadget:
		return "gadget"
	}
	return "unknown"
}

// LifeState is the entity life-state machine state.
type LifeState int32

const (
	LifeAlive LifeState = 1
	LifeDead  LifeState = 2
)

// DieType records how a dead entity died. Meaningful only while dead.
type DieType int32

const (
	DieNone       DieType = 0
	DieKilled     DieType = 1
	DieFall       DieType = 2
	DieDrown      DieType = 3
	DieAbyss      DieType = 4
	DieExpiration DieType = 5
)

// defaultReviveHPFraction is the fraction of max HP restored by a revive
// with no explicit target HP.
const defaultReviveHPFraction = 0.4

// EntityUserData is the persisted shape of an entity: life-state plus the
// props and combat-stat snapshots. Restoring it via Init reproduces
// equivalent live state.
type EntityUserData struct {
	LifeState  LifeState                `json:"lifeState"`
	Props      map[PropKey]int64        `json:"props"`
	FightProps map[FightPropKey]float64 `json:"fightProps"`
}

// EntityConfig is the immutable spawn-origin data an entity is built from.
type EntityConfig struct {
	Type      EntityType
	GroupID   int32
	ConfigID  int32
	BlockID   int32
	BornPos   Vector
	Base      BaseStats
	Abilities []string
}

// Entity is one simulated object in a scene: player avatar, monster, NPC, or
// interactive gadget. It composes the props, fight-props, ability, and motion
// stores, owns the life-state machine and authority assignment, and exports
// the wire snapshot. All mutating methods run on the owning scene goroutine.
type Entity struct {
	ID       int32
	Type     EntityType
	GroupID  int32
	ConfigID int32
	BlockID  int32
	BornPos  Vector

	lifeState  LifeState
	dieType    DieType
	attackerID int32 // 0 = unset; meaningful only while dead

	// Peer currently simulating this entity; 0 = unassigned.
	// Meaningful only for monsters.
	authorityPeerID uint32

	// AI ticking gate for the current frame, refreshed from
	// UpdateAuthorityPeer each tick for monsters.
	AIEnabled bool

	IsOnScene bool
	GridHash  uint32

	Base       BaseStats
	Props      *EntityProps
	FightProps *FightProps
	Abilities  *AbilityList
	Motion     *MotionInfo

	// Non-owning back-reference; the scene controls this entity's lifetime
	// and uses it only for lookups. Nil when detached (e.g. unit tests).
	scene *Scene

	stats StatEngine
}

// NewEntity builds an entity with a fresh unique ID. The entity is not usable
// until Init or InitNew has completed.
func NewEntity(cfg EntityConfig, stats StatEngine) *Entity {
	e := &Entity{
		ID:        NextEntityID(),
		Type:      cfg.Type,
		GroupID:   cfg.GroupID,
		ConfigID:  cfg.ConfigID,
		BlockID:   cfg.BlockID,
		BornPos:   cfg.BornPos,
		Base:      cfg.Base,
		lifeState: LifeAlive,
		AIEnabled: true,
		stats:     stats,
	}
	e.Props = NewEntityProps()
	e.FightProps = newFightProps(e)
	e.Abilities = newAbilityList(e, cfg.Abilities)
	e.Motion = NewMotionInfo(cfg.BornPos)
	return e
}

// Init restores the entity from persisted data. Sub-stores initialize in a
// fixed order (props, then abilities, then fight props) so the stat
// recompute observes the final level and the full modifier set.
func (e *Entity) Init(ctx context.Context, data *EntityUserData) error {
	e.Props.Init(data.Props)
	e.lifeState = data.LifeState
	if e.lifeState != LifeDead {
		e.lifeState = LifeAlive
	}
	if err := e.Abilities.Update(ctx); err != nil {
		return err
	}
	e.FightProps.Init(data.FightProps)
	if err := e.FightProps.Update(ctx); err != nil {
		return err
	}
	return nil
}

// InitNew populates the entity as a fresh spawn at the given level, in the
// same fixed order as Init.
func (e *Entity) InitNew(ctx context.Context, level int32) error {
	e.Props.InitNew(level)
	e.lifeState = LifeAlive
	if err := e.Abilities.Update(ctx); err != nil {
		return err
	}
	if err := e.FightProps.Update(ctx); err != nil {
		return err
	}
	return nil
}

// --- Life-state machine ---

func (e *Entity) IsAlive() bool { return e.lifeState == LifeAlive }
func (e *Entity) IsDead() bool  { return e.lifeState == LifeDead }

func (e *Entity) LifeState() LifeState { return e.lifeState }
func (e *Entity) DieType() DieType     { return e.dieType }
func (e *Entity) AttackerID() int32    { return e.attackerID }

// Kill transitions the entity to dead, recording how and by whom. A second
// call while dead is a no-op: nothing changes and no death handling runs.
// Returns after death handling has completed.
func (e *Entity) Kill(ctx context.Context, attackerID int32, dieType DieType) error {
	if e.lifeState == LifeDead {
		return nil
	}
	e.lifeState = LifeDead
	e.dieType = dieType
	e.attackerID = attackerID
	return e.onDeath(ctx)
}

// Revive transitions a dead entity back to alive with HP restored to
// round(0.4 × maxHp). A call while already alive is a no-op.
func (e *Entity) Revive(ctx context.Context) error {
	if e.lifeState == LifeAlive {
		return nil
	}
	return e.reviveTo(ctx, math.Round(defaultReviveHPFraction*e.FightProps.MaxHP()))
}

// ReviveWithHP is Revive with an explicit target HP, clamped to
// [1, maxHp]. The floor of 1 prevents an immediate re-death.
func (e *Entity) ReviveWithHP(ctx context.Context, targetHP float64) error {
	if e.lifeState == LifeAlive {
		return nil
	}
	maxHP := e.FightProps.MaxHP()
	if targetHP < 1 {
		targetHP = 1
	}
	if targetHP > maxHP {
		targetHP = maxHP
	}
	return e.reviveTo(ctx, targetHP)
}

func (e *Entity) reviveTo(ctx context.Context, hp float64) error {
	e.lifeState = LifeAlive
	e.dieType = DieNone
	e.attackerID = 0
	if err := e.FightProps.Set(ctx, FightPropCurHP, hp, false); err != nil {
		return err
	}
	return e.onRevive(ctx)
}

// --- Convenience accessors over the props store ---
// Setters do not recompute dependent combat stats; callers trigger
// FightProps.Update explicitly.

func (e *Entity) Level() int32          { return int32(e.Props.Get(PropLevel)) }
func (e *Entity) SetLevel(v int32)      { e.Props.Set(PropLevel, int64(v)) }
func (e *Entity) Exp() int64            { return e.Props.Get(PropExp) }
func (e *Entity) SetExp(v int64)        { e.Props.Set(PropExp, v) }
func (e *Entity) BreakLevel() int32     { return int32(e.Props.Get(PropBreakLevel)) }
func (e *Entity) SetBreakLevel(v int32) { e.Props.Set(PropBreakLevel, int64(v)) }

// --- Authority assignment ---

// AuthorityPeerID returns the current authority peer, 0 when unassigned.
func (e *Entity) AuthorityPeerID() uint32 { return e.authorityPeerID }

// UpdateAuthorityPeer re-establishes which connected peer simulates this
// entity. Monsters only; other types are never touched. The current peer is
// kept while it remains connected with this entity loaded; otherwise the
// first eligible peer in canonical join order that has the entity loaded is
// assigned. No candidate leaves the entity unassigned.
//
// Returns whether an authority peer is assigned after the call. Synchronous
// and safe to run every tick.
func (e *Entity) UpdateAuthorityPeer() bool {
	if e.Type != EntityMonster {
		return false
	}
	if e.scene == nil {
		e.authorityPeerID = 0
		return false
	}
	if e.authorityPeerID != 0 {
		if p := e.scene.PlayerByPeer(e.authorityPeerID); p != nil && p.HasLoaded(e.ID) {
			return true
		}
	}
	for _, p := range e.scene.Players() {
		if p.AuthorityIneligible {
			continue
		}
		if p.HasLoaded(e.ID) {
			e.authorityPeerID = p.PeerID
			return true
		}
	}
	e.authorityPeerID = 0
	return false
}

// --- Lifecycle hooks ---

// onDeath notifies every broadcast context of the life-state change, then
// queues removal from the scene with a "died" reason: clients must learn of
// the death before the entity vanishes from their tracked set, and the
// persist phase still sees the dead state before the cleanup flush drops the
// entity. A detached entity has no side effect beyond the state change.
func (e *Entity) onDeath(ctx context.Context) error {
	s := e.scene
	if s == nil {
		return nil
	}
	if err := s.NotifyLifeState(ctx, e); err != nil {
		return fmt.Errorf("death notify entity=%d: %w", e.ID, err)
	}
	s.MarkChanged(e.ID)
	s.QueueRemoval(e, RemoveDied)
	return nil
}

// onRevive notifies the life-state change; no removal.
func (e *Entity) onRevive(ctx context.Context) error {
	s := e.scene
	if s == nil {
		return nil
	}
	if err := s.NotifyLifeState(ctx, e); err != nil {
		return fmt.Errorf("revive notify entity=%d: %w", e.ID, err)
	}
	s.MarkChanged(e.ID)
	return nil
}

// OnRegister attaches the ability list to the scene's ability manager.
// A no-op without a scene or ability manager.
func (e *Entity) OnRegister() {
	s := e.scene
	if s == nil || s.Abilities == nil {
		return
	}
	e.Abilities.Register(s.Abilities)
}

// OnUnregister detaches the ability list; same no-op guard as OnRegister.
func (e *Entity) OnUnregister() {
	s := e.scene
	if s == nil || s.Abilities == nil {
		return
	}
	e.Abilities.Unregister(s.Abilities)
}

// Scene returns the owning scene, nil when detached.
func (e *Entity) Scene() *Scene { return e.scene }

// --- Persistence ---

// ExportUserData exports the persisted shape: life-state plus the props and
// combat-stat snapshots. Independent of, and smaller than, the network
// snapshot.
func (e *Entity) ExportUserData() *EntityUserData {
	return &EntityUserData{
		LifeState:  e.lifeState,
		Props:      e.Props.ExportUserData(),
		FightProps: e.FightProps.ExportUserData(),
	}
}
