package world

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// RemoveReason is the visibility reason attached to an entity removal.
type RemoveReason int32

const (
	RemoveNone       RemoveReason = 0
	RemoveDied       RemoveReason = 1
	RemoveOutOfSight RemoveReason = 2
	RemoveDespawn    RemoveReason = 3
	RemoveLeave      RemoveReason = 4
)

// gridCellSize is the edge length of one spatial hash cell.
const gridCellSize = 64.0

// sceneGrid is a cell-occupancy hash for scene-placement bookkeeping.
// Supports multiple occupants per cell.
type sceneGrid struct {
	cells map[uint32]map[int32]struct{}
}

func newSceneGrid() *sceneGrid {
	return &sceneGrid{cells: make(map[uint32]map[int32]struct{})}
}

// hashPos maps a position to its cell hash.
func hashPos(pos Vector) uint32 {
	cx := int32(pos.X / gridCellSize)
	cz := int32(pos.Z / gridCellSize)
	return uint32(cx)*73856093 ^ uint32(cz)*19349663
}

func (g *sceneGrid) occupy(hash uint32, entityID int32) {
	cell := g.cells[hash]
	if cell == nil {
		cell = make(map[int32]struct{}, 4)
		g.cells[hash] = cell
	}
	cell[entityID] = struct{}{}
}

func (g *sceneGrid) vacate(hash uint32, entityID int32) {
	cell := g.cells[hash]
	if cell != nil {
		delete(cell, entityID)
		if len(cell) == 0 {
			delete(g.cells, hash)
		}
	}
}

// Scene is the registry of entities and connected peers for one gameplay
// session. It owns entity lifetimes, brokers removal, and hands broadcasts to
// the connected peers' contexts. Single-goroutine access only (scene tick).
type Scene struct {
	ID int32

	entities map[int32]*Entity
	players  []*Player // canonical join order
	byPeer   map[uint32]*Player

	Abilities *AbilityManager

	grid *sceneGrid

	// Entities whose state changed since the last output/persist flush.
	changed map[int32]struct{}
	dirty   map[int32]struct{}

	// Removals deferred to the cleanup phase, so persist/output still see
	// the entity in its final state during the tick it died.
	removals []removalRequest

	log *zap.Logger
}

type removalRequest struct {
	entity *Entity
	reason RemoveReason
}

func NewScene(id int32, log *zap.Logger) *Scene {
	return &Scene{
		ID:        id,
		entities:  make(map[int32]*Entity, 256),
		byPeer:    make(map[uint32]*Player, 8),
		Abilities: NewAbilityManager(),
		grid:      newSceneGrid(),
		changed:   make(map[int32]struct{}, 64),
		dirty:     make(map[int32]struct{}, 64),
		log:       log,
	}
}

// --- Entity registry ---

// AddEntity registers an entity into the scene: grid placement, ability
// registration, and the single-stat notify hook.
func (s *Scene) AddEntity(e *Entity) {
	s.entities[e.ID] = e
	e.scene = s
	e.IsOnScene = true
	e.GridHash = hashPos(e.Motion.Pos)
	s.grid.occupy(e.GridHash, e.ID)
	e.OnRegister()
	e.FightProps.notifyFn = func(ctx context.Context, key FightPropKey, value float64) error {
		s.MarkChanged(e.ID)
		for _, p := range s.players {
			if p.Context == nil {
				continue
			}
			if err := p.Context.NotifyFightProp(ctx, e.ID, key, value); err != nil {
				return fmt.Errorf("notify fight prop peer=%d: %w", p.PeerID, err)
			}
		}
		return nil
	}
	s.MarkChanged(e.ID)
	s.log.Debug("entity added",
		zap.Int32("scene", s.ID),
		zap.Int32("entity", e.ID),
		zap.String("type", e.Type.String()))
}

// RemoveEntity detaches an entity from the registry, notifies every peer of
// the disappearance, and clears it from all loaded sets. The entity object is
// not reused afterwards.
func (s *Scene) RemoveEntity(ctx context.Context, e *Entity, reason RemoveReason) error {
	if _, ok := s.entities[e.ID]; !ok {
		return nil
	}
	for _, p := range s.players {
		if p.Context == nil {
			continue
		}
		if err := p.Context.NotifyDisappear(ctx, []int32{e.ID}, reason); err != nil {
			return fmt.Errorf("notify disappear peer=%d: %w", p.PeerID, err)
		}
	}
	for _, p := range s.players {
		p.UnmarkLoaded(e.ID)
	}
	e.OnUnregister()
	s.grid.vacate(e.GridHash, e.ID)
	delete(s.entities, e.ID)
	delete(s.changed, e.ID)
	e.IsOnScene = false
	e.FightProps.notifyFn = nil
	e.scene = nil
	s.log.Info("entity removed",
		zap.Int32("scene", s.ID),
		zap.Int32("entity", e.ID),
		zap.String("type", e.Type.String()),
		zap.Int32("reason", int32(reason)))
	return nil
}

// QueueRemoval defers an entity's removal to the next FlushRemovals call.
// The entity stays registered until then, so snapshot output and persistence
// observe its final state first.
func (s *Scene) QueueRemoval(e *Entity, reason RemoveReason) {
	s.removals = append(s.removals, removalRequest{entity: e, reason: reason})
}

// FlushRemovals drains the deferred removal queue. A queued death removal is
// dropped when the entity was revived before the flush; an entity already
// gone from the registry is skipped. Failed removals are logged and do not
// block the rest of the queue.
func (s *Scene) FlushRemovals(ctx context.Context) {
	if len(s.removals) == 0 {
		return
	}
	queue := s.removals
	s.removals = nil
	for _, req := range queue {
		e := req.entity
		if s.entities[e.ID] != e {
			continue
		}
		if req.reason == RemoveDied && e.IsAlive() {
			continue
		}
		if err := s.RemoveEntity(ctx, e, req.reason); err != nil {
			s.log.Warn("deferred removal failed",
				zap.Int32("scene", s.ID),
				zap.Int32("entity", e.ID),
				zap.Error(err))
		}
	}
}

// GetEntity returns an entity by ID, nil when absent.
func (s *Scene) GetEntity(id int32) *Entity {
	return s.entities[id]
}

// EntityCount returns the number of registered entities.
func (s *Scene) EntityCount() int {
	return len(s.entities)
}

// EachEntity iterates all registered entities.
func (s *Scene) EachEntity(fn func(*Entity)) {
	for _, e := range s.entities {
		fn(e)
	}
}

// UpdateEntityPosition applies an authenticated move and rehashes the grid cell.
func (s *Scene) UpdateEntityPosition(e *Entity, pos, rot, speed Vector, sceneTimeMs, reliableSeq uint32) {
	e.Motion.RecordMove(pos, rot, speed, sceneTimeMs, reliableSeq)
	newHash := hashPos(pos)
	if newHash != e.GridHash {
		s.grid.vacate(e.GridHash, e.ID)
		s.grid.occupy(newHash, e.ID)
		e.GridHash = newHash
	}
	s.MarkChanged(e.ID)
}

// --- Peers ---

// AddPlayer appends a peer at the end of the canonical join order.
func (s *Scene) AddPlayer(p *Player) {
	s.players = append(s.players, p)
	s.byPeer[p.PeerID] = p
}

// RemovePlayer disconnects a peer, preserving the relative order of the rest.
func (s *Scene) RemovePlayer(peerID uint32) *Player {
	p, ok := s.byPeer[peerID]
	if !ok {
		return nil
	}
	delete(s.byPeer, peerID)
	for i, q := range s.players {
		if q.PeerID == peerID {
			s.players = append(s.players[:i], s.players[i+1:]...)
			break
		}
	}
	return p
}

// PlayerByPeer returns a connected peer, nil when not connected.
func (s *Scene) PlayerByPeer(peerID uint32) *Player {
	return s.byPeer[peerID]
}

// Players returns the connected peers in canonical join order.
func (s *Scene) Players() []*Player {
	return s.players
}

// --- Broadcast ---

// NotifyLifeState pushes an entity's life-state change to every connected
// peer's broadcast context.
func (s *Scene) NotifyLifeState(ctx context.Context, e *Entity) error {
	for _, p := range s.players {
		if p.Context == nil {
			continue
		}
		if err := p.Context.NotifyLifeState(ctx, e); err != nil {
			return fmt.Errorf("notify life state peer=%d: %w", p.PeerID, err)
		}
	}
	return nil
}

// --- Change tracking ---

// MarkChanged flags an entity for snapshot output and persistence.
func (s *Scene) MarkChanged(entityID int32) {
	s.changed[entityID] = struct{}{}
	s.dirty[entityID] = struct{}{}
}

// MarkDirty flags an entity for persistence only (e.g. after a failed flush).
func (s *Scene) MarkDirty(entityID int32) {
	s.dirty[entityID] = struct{}{}
}

// TakeChanged drains the set of entities needing a snapshot broadcast.
func (s *Scene) TakeChanged() []int32 {
	if len(s.changed) == 0 {
		return nil
	}
	out := make([]int32, 0, len(s.changed))
	for id := range s.changed {
		out = append(out, id)
	}
	clear(s.changed)
	return out
}

// TakeDirty drains the set of entities needing a persistence flush.
func (s *Scene) TakeDirty() []int32 {
	if len(s.dirty) == 0 {
		return nil
	}
	out := make([]int32, 0, len(s.dirty))
	for id := range s.dirty {
		out = append(out, id)
	}
	clear(s.dirty)
	return out
}
