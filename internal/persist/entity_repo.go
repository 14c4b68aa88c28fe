package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/riftgo/server/internal/world"
)

// EntityRow is one persisted scene entity. Entities are keyed by their
// immutable spawn origin (group + config), not by the runtime entity ID,
// which is reallocated every process run.
type EntityRow struct {
	EntityID int32 // runtime ID at save time, informational
	GroupID  int32
	ConfigID int32
	Data     *world.EntityUserData
}

// EntityRepo reads and writes the persisted entity shape
// (life-state + props/fight-props snapshots as jsonb).
type EntityRepo struct {
	db *DB
}

func NewEntityRepo(db *DB) *EntityRepo {
	return &EntityRepo{db: db}
}

// Load returns the persisted shape of one spawn origin, or (nil, nil) when absent.
func (r *EntityRepo) Load(ctx context.Context, sceneID, groupID, configID int32) (*world.EntityUserData, error) {
	var lifeState int16
	var propsJSON, fightPropsJSON []byte
	err := r.db.Pool.QueryRow(ctx,
		`SELECT life_state, props, fight_props
		 FROM scene_entities WHERE scene_id = $1 AND group_id = $2 AND config_id = $3`,
		sceneID, groupID, configID,
	).Scan(&lifeState, &propsJSON, &fightPropsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load entity %d/%d/%d: %w", sceneID, groupID, configID, err)
	}

	data := &world.EntityUserData{LifeState: world.LifeState(lifeState)}
	if err := json.Unmarshal(propsJSON, &data.Props); err != nil {
		return nil, fmt.Errorf("decode props %d/%d/%d: %w", sceneID, groupID, configID, err)
	}
	if err := json.Unmarshal(fightPropsJSON, &data.FightProps); err != nil {
		return nil, fmt.Errorf("decode fight props %d/%d/%d: %w", sceneID, groupID, configID, err)
	}
	return data, nil
}

// Save upserts the persisted shape of one entity.
func (r *EntityRepo) Save(ctx context.Context, sceneID int32, row EntityRow) error {
	propsJSON, fightPropsJSON, err := encodeRow(row)
	if err != nil {
		return err
	}
	_, err = r.db.Pool.Exec(ctx, upsertEntitySQL,
		sceneID, row.GroupID, row.ConfigID, row.EntityID,
		int16(row.Data.LifeState), propsJSON, fightPropsJSON,
	)
	if err != nil {
		return fmt.Errorf("save entity %d/%d/%d: %w", sceneID, row.GroupID, row.ConfigID, err)
	}
	return nil
}

// SaveBatch upserts a batch of entities in a single transaction.
func (r *EntityRepo) SaveBatch(ctx context.Context, sceneID int32, rows []EntityRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("entity batch begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, row := range rows {
		propsJSON, fightPropsJSON, err := encodeRow(row)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, upsertEntitySQL,
			sceneID, row.GroupID, row.ConfigID, row.EntityID,
			int16(row.Data.LifeState), propsJSON, fightPropsJSON,
		); err != nil {
			return fmt.Errorf("entity batch insert %d/%d/%d: %w", sceneID, row.GroupID, row.ConfigID, err)
		}
	}

	return tx.Commit(ctx)
}

// Delete removes one persisted entity (e.g. permanent despawn).
func (r *EntityRepo) Delete(ctx context.Context, sceneID, groupID, configID int32) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM scene_entities WHERE scene_id = $1 AND group_id = $2 AND config_id = $3`,
		sceneID, groupID, configID,
	)
	if err != nil {
		return fmt.Errorf("delete entity %d/%d/%d: %w", sceneID, groupID, configID, err)
	}
	return nil
}

const upsertEntitySQL = `
INSERT INTO scene_entities (scene_id, group_id, config_id, entity_id, life_state, props, fight_props, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
ON CONFLICT (scene_id, group_id, config_id) DO UPDATE SET
    entity_id   = EXCLUDED.entity_id,
    life_state  = EXCLUDED.life_state,
    props       = EXCLUDED.props,
    fight_props = EXCLUDED.fight_props,
    updated_at  = now()`

func encodeRow(row EntityRow) ([]byte, []byte, error) {
	propsJSON, err := json.Marshal(row.Data.Props)
	if err != nil {
		return nil, nil, fmt.Errorf("encode props entity=%d: %w", row.EntityID, err)
	}
	fightPropsJSON, err := json.Marshal(row.Data.FightProps)
	if err != nil {
		return nil, nil, fmt.Errorf("encode fight props entity=%d: %w", row.EntityID, err)
	}
	return propsJSON, fightPropsJSON, nil
}
