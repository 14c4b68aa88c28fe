package world

import "context"

// BroadcastContext is the send side of one connected session, owned by the
// transport layer. The scene core only decides what is sent, never how.
type BroadcastContext interface {
	// NotifyLifeState pushes an entity's life-state change.
	NotifyLifeState(ctx context.Context, e *Entity) error
	// NotifyDisappear pushes removal of entities from the client's tracked set.
	NotifyDisappear(ctx context.Context, entityIDs []int32, reason RemoveReason) error
	// NotifyEntityUpdate pushes a full entity snapshot.
	NotifyEntityUpdate(ctx context.Context, snap *SceneEntityInfo) error
	// NotifyFightProp pushes a single combat-stat change.
	NotifyFightProp(ctx context.Context, entityID int32, key FightPropKey, value float64) error
}

// Player is one connected peer in a scene. The scene keeps players in
// canonical join order; that order is the authority tie-break.
type Player struct {
	PeerID uint32
	UID    int32

	// Excluded from authority assignment (e.g. spectating, mid-teleport).
	AuthorityIneligible bool

	// Send side for this peer; nil in detached/unit-test mode.
	Context BroadcastContext

	loaded map[int32]struct{} // entity IDs this peer has loaded/visible
}

func NewPlayer(peerID uint32, uid int32, bctx BroadcastContext) *Player {
	return &Player{
		PeerID:  peerID,
		UID:     uid,
		Context: bctx,
		loaded:  make(map[int32]struct{}, 64),
	}
}

// MarkLoaded records that this peer has the entity in its loaded set.
func (p *Player) MarkLoaded(entityID int32) {
	p.loaded[entityID] = struct{}{}
}

// UnmarkLoaded removes the entity from this peer's loaded set.
func (p *Player) UnmarkLoaded(entityID int32) {
	delete(p.loaded, entityID)
}

// HasLoaded reports whether this peer has the entity loaded.
func (p *Player) HasLoaded(entityID int32) bool {
	_, ok := p.loaded[entityID]
	return ok
}

// LoadedCount returns the size of this peer's loaded set.
func (p *Player) LoadedCount() int {
	return len(p.loaded)
}
