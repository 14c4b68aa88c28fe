package system

import (
	"context"
	"time"

	coresys "github.com/riftgo/server/internal/core/system"
	"github.com/riftgo/server/internal/world"
)

// CleanupSystem flushes the scene's deferred entity removal queue at tick
// end, after output and persistence have observed the final state of every
// entity removed this tick.
type CleanupSystem struct {
	scene *world.Scene
}

func NewCleanupSystem(scene *world.Scene) *CleanupSystem {
	return &CleanupSystem{scene: scene}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.scene.FlushRemovals(context.Background())
}
