package system

import (
	"context"
	"sort"
	"time"

	coresys "github.com/riftgo/server/internal/core/system"
	"github.com/riftgo/server/internal/persist"
	"github.com/riftgo/server/internal/world"
	"go.uber.org/zap"
)

// EntityStore is the write side of entity persistence.
type EntityStore interface {
	SaveBatch(ctx context.Context, sceneID int32, rows []persist.EntityRow) error
}

// PersistenceSystem batch-saves dirty entities at a fixed interval. On a
// failed flush the batch stays dirty and is retried next interval.
type PersistenceSystem struct {
	scene    *world.Scene
	store    EntityStore
	interval time.Duration
	elapsed  time.Duration
	log      *zap.Logger
}

func NewPersistenceSystem(scene *world.Scene, store EntityStore, interval time.Duration, log *zap.Logger) *PersistenceSystem {
	return &PersistenceSystem{
		scene:    scene,
		store:    store,
		interval: interval,
		log:      log,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed = 0
	s.Flush()
}

// Flush saves all currently dirty entities. Also called once at shutdown.
func (s *PersistenceSystem) Flush() {
	ids := s.scene.TakeDirty()
	if len(ids) == 0 {
		return
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows := make([]persist.EntityRow, 0, len(ids))
	for _, id := range ids {
		e := s.scene.GetEntity(id)
		if e == nil {
			continue
		}
		rows = append(rows, persist.EntityRow{
			EntityID: e.ID,
			GroupID:  e.GroupID,
			ConfigID: e.ConfigID,
			Data:     e.ExportUserData(),
		})
	}
	if len(rows) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.store.SaveBatch(ctx, s.scene.ID, rows); err != nil {
		s.log.Error("entity batch save failed",
			zap.Int32("scene", s.scene.ID),
			zap.Int("entities", len(rows)),
			zap.Error(err))
		for _, row := range rows {
			s.scene.MarkDirty(row.EntityID)
		}
		return
	}
	s.log.Debug("entity batch saved",
		zap.Int32("scene", s.scene.ID),
		zap.Int("entities", len(rows)))
}
