package system

import "time"

// Phase defines execution ordering within a single scene tick.
type Phase int

const (
	PhaseAuthority Phase = iota // 0: re-establish per-entity authority peers
	PhaseUpdate                 // 1: gameplay logic (AI, abilities)
	PhaseOutput                 // 2: export + broadcast snapshots
	PhasePersist                // 3: flush dirty entities to storage
	PhaseCleanup                // 4: flush deferred entity removals
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
