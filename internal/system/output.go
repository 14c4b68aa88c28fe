package system

import (
	"context"
	"sort"
	"time"

	coresys "github.com/riftgo/server/internal/core/system"
	"github.com/riftgo/server/internal/world"
	"go.uber.org/zap"
)

// OutputSystem exports a snapshot for every entity whose state changed this
// tick and hands it to each connected peer's broadcast context. A failed send
// affects only that peer; other peers and entities proceed.
type OutputSystem struct {
	scene *world.Scene
	log   *zap.Logger
}

func NewOutputSystem(scene *world.Scene, log *zap.Logger) *OutputSystem {
	return &OutputSystem{scene: scene, log: log}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(dt time.Duration) {
	ids := s.scene.TakeChanged()
	if len(ids) == 0 {
		return
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	ctx := context.Background()
	for _, id := range ids {
		e := s.scene.GetEntity(id)
		if e == nil {
			continue // removed after being flagged
		}
		snap := e.ExportSnapshot()
		for _, p := range s.scene.Players() {
			if p.Context == nil || !p.HasLoaded(e.ID) {
				continue
			}
			if err := p.Context.NotifyEntityUpdate(ctx, snap); err != nil {
				s.log.Warn("entity update send failed",
					zap.Uint32("peer", p.PeerID),
					zap.Int32("entity", e.ID),
					zap.Error(err))
			}
		}
	}
}
