package world

// Wire-format snapshot structures. The transport that delivers these is
// external; this core only decides what is exported.

// AbilityEmbryo is one instantiated ability slot on the wire.
type AbilityEmbryo struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

// AbilityInfo is the ability sub-block of the authority info.
type AbilityInfo struct {
	Embryos []AbilityEmbryo `json:"embryos"`
}

// AuthorityInfo is the authority/AI block present on every snapshot.
type AuthorityInfo struct {
	AbilityInfo *AbilityInfo `json:"abilityInfo,omitempty"`
	BornPos     Vector       `json:"bornPos"`
	AIEnabled   bool         `json:"aiEnabled"`
}

// AnimatorParameter is one animation-parameter entry. The list is a
// placeholder populated by the animation layer.
type AnimatorParameter struct {
	NameID int32   `json:"nameId"`
	Value  float64 `json:"value"`
}

// Variant payloads. Exactly one is attached per snapshot, matching the
// entity type. Variant-specific data not covered by this core is filled in
// by the respective gameplay layers.

type AvatarPayload struct {
	UID    int32  `json:"uid"`
	PeerID uint32 `json:"peerId"`
}

type MonsterPayload struct {
	MonsterID       int32  `json:"monsterId"`
	GroupID         int32  `json:"groupId"`
	AuthorityPeerID uint32 `json:"authorityPeerId"`
}

type NpcPayload struct {
	NpcID   int32 `json:"npcId"`
	BlockID int32 `json:"blockId"`
}

type GadgetPayload struct {
	GadgetID int32 `json:"gadgetId"`
	GroupID  int32 `json:"groupId"`
}

// SceneEntityInfo is the immutable wire snapshot of one entity.
type SceneEntityInfo struct {
	EntityID   int32      `json:"entityId"`
	EntityType EntityType `json:"entityType"`

	Motion        MotionSnapshot      `json:"motion"`
	FightPropList []FightPropPair     `json:"fightPropList"`
	PropList      []PropPair          `json:"propList"`
	Animator      []AnimatorParameter `json:"animatorParaList"`
	Authority     AuthorityInfo       `json:"authorityInfo"`

	// Present only once the motion tracker has recorded an authenticated move.
	LastMoveSceneTimeMs *uint32 `json:"lastMoveSceneTimeMs,omitempty"`
	LastMoveReliableSeq *uint32 `json:"lastMoveReliableSeq,omitempty"`

	// Omitted for NPCs, which carry no combat-lifecycle payload on the wire.
	LifeState LifeState `json:"lifeState,omitempty"`

	Avatar  *AvatarPayload  `json:"avatar,omitempty"`
	Monster *MonsterPayload `json:"monster,omitempty"`
	Npc     *NpcPayload     `json:"npc,omitempty"`
	Gadget  *GadgetPayload  `json:"gadget,omitempty"`
}

// ExportSnapshot produces the wire snapshot for the entity's current state.
// Exactly one variant payload is attached, chosen by the entity type; the
// NPC variant strips life-state, the scalar prop list, and the ability info.
func (e *Entity) ExportSnapshot() *SceneEntityInfo {
	info := &SceneEntityInfo{
		EntityID:      e.ID,
		EntityType:    e.Type,
		Motion:        e.Motion.Export(),
		FightPropList: e.FightProps.ExportPropList(),
		Animator:      []AnimatorParameter{},
		Authority: AuthorityInfo{
			BornPos:   e.BornPos,
			AIEnabled: e.AIEnabled,
		},
	}
	if e.Motion.LastMoveSceneTimeMs != nil {
		t := *e.Motion.LastMoveSceneTimeMs
		info.LastMoveSceneTimeMs = &t
	}
	if e.Motion.LastMoveReliableSeq != nil {
		q := *e.Motion.LastMoveReliableSeq
		info.LastMoveReliableSeq = &q
	}

	switch e.Type {
	case EntityNpc:
		info.PropList = []PropPair{}
		info.Npc = e.buildNpcPayload()
	default:
		info.LifeState = e.lifeState
		info.PropList = e.Props.ExportPropList()
		info.Authority.AbilityInfo = e.buildAbilityInfo()
		switch e.Type {
		case EntityAvatar:
			info.Avatar = e.buildAvatarPayload()
		case EntityMonster:
			info.Monster = e.buildMonsterPayload()
		case EntityGadget:
			info.Gadget = e.buildGadgetPayload()
		}
	}
	return info
}

func (e *Entity) buildAbilityInfo() *AbilityInfo {
	names := e.Abilities.Names()
	embryos := make([]AbilityEmbryo, 0, len(names))
	for i, name := range names {
		embryos = append(embryos, AbilityEmbryo{ID: uint32(i + 1), Name: name})
	}
	return &AbilityInfo{Embryos: embryos}
}

func (e *Entity) buildAvatarPayload() *AvatarPayload {
	return &AvatarPayload{PeerID: e.authorityPeerID}
}

func (e *Entity) buildMonsterPayload() *MonsterPayload {
	return &MonsterPayload{
		MonsterID:       e.ConfigID,
		GroupID:         e.GroupID,
		AuthorityPeerID: e.authorityPeerID,
	}
}

func (e *Entity) buildNpcPayload() *NpcPayload {
	return &NpcPayload{NpcID: e.ConfigID, BlockID: e.BlockID}
}

func (e *Entity) buildGadgetPayload() *GadgetPayload {
	return &GadgetPayload{GadgetID: e.ConfigID, GroupID: e.GroupID}
}
