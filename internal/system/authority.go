package system

import (
	"time"

	coresys "github.com/riftgo/server/internal/core/system"
	"github.com/riftgo/server/internal/world"
)

// AuthoritySystem re-establishes authority peers for every monster each tick.
// The result gates AI ticking for the frame; an authority change flags the
// entity for snapshot output.
type AuthoritySystem struct {
	scene *world.Scene
}

func NewAuthoritySystem(scene *world.Scene) *AuthoritySystem {
	return &AuthoritySystem{scene: scene}
}

func (s *AuthoritySystem) Phase() coresys.Phase { return coresys.PhaseAuthority }

func (s *AuthoritySystem) Update(dt time.Duration) {
	s.scene.EachEntity(func(e *world.Entity) {
		if e.Type != world.EntityMonster {
			return
		}
		before := e.AuthorityPeerID()
		e.AIEnabled = e.UpdateAuthorityPeer()
		if e.AuthorityPeerID() != before {
			s.scene.MarkChanged(e.ID)
		}
	})
}
