package storage

import (
	"context"

	"github.com/jhofmeer/crewtrack/libs/db"
	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/model"
)

// ResourceRepository mirrors the master-data system's resources into a local
// table. Rows are written by the masterdata consumer and read by the HTTP
// layer to reject allocations against unknown or retired resources.
type ResourceRepository struct {
	pool *db.Pool
}

func NewResourceRepository(pool *db.Pool) *ResourceRepository {
	return &ResourceRepository{pool: pool}
}

func (r *ResourceRepository) Upsert(ctx context.Context, res model.Resource) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO resources (id, name, kind, active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			kind = EXCLUDED.kind,
			active = EXCLUDED.active,
			updated_at = now()
	`, res.ID, res.Name, res.Kind, res.Active)
	return err
}

func (r *ResourceRepository) Retire(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE resources
		SET active = false,
			updated_at = now()
		WHERE id = $1
	`, id)
	return err
}

func (r *ResourceRepository) GetActive(ctx context.Context, id string) (model.Resource, error) {
	var res model.Resource
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, kind, active
		FROM resources
		WHERE id = $1 AND active
	`, id).Scan(&res.ID, &res.Name, &res.Kind, &res.Active)
	if err != nil {
		return model.Resource{}, err
	}
	return res, nil
}
