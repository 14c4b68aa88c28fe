package world

import "math"

// Vector is a scene-space coordinate or velocity.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// MotionInfo tracks an entity's position, velocity, and last authenticated
// move. Accessed only from the owning scene goroutine, no locks.
type MotionInfo struct {
	Pos   Vector
	Rot   Vector
	Speed Vector
	State int32

	// Set by the first authenticated move and updated on every one after.
	// Nil until then; the snapshot export includes these fields only when set.
	LastMoveSceneTimeMs *uint32
	LastMoveReliableSeq *uint32
}

func NewMotionInfo(pos Vector) *MotionInfo {
	return &MotionInfo{Pos: pos}
}

// RecordMove applies an authenticated client move to the tracker.
func (m *MotionInfo) RecordMove(pos, rot, speed Vector, sceneTimeMs, reliableSeq uint32) {
	m.Pos = pos
	m.Rot = rot
	m.Speed = speed
	t := sceneTimeMs
	s := reliableSeq
	m.LastMoveSceneTimeMs = &t
	m.LastMoveReliableSeq = &s
}

// DistanceSquaredTo returns the squared distance to another tracker.
func (m *MotionInfo) DistanceSquaredTo(o *MotionInfo) float64 {
	dx := m.Pos.X - o.Pos.X
	dy := m.Pos.Y - o.Pos.Y
	dz := m.Pos.Z - o.Pos.Z
	return dx*dx + dy*dy + dz*dz
}

// DistanceTo returns the distance to another tracker.
func (m *MotionInfo) DistanceTo(o *MotionInfo) float64 {
	return math.Sqrt(m.DistanceSquaredTo(o))
}

// MotionSnapshot is the wire-format motion block.
type MotionSnapshot struct {
	Pos   Vector `json:"pos"`
	Rot   Vector `json:"rot"`
	Speed Vector `json:"speed"`
	State int32  `json:"state"`
}

// Export produces the wire motion block.
func (m *MotionInfo) Export() MotionSnapshot {
	return MotionSnapshot{
		Pos:   m.Pos,
		Rot:   m.Rot,
		Speed: m.Speed,
		State: m.State,
	}
}
