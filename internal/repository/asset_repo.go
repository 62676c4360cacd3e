package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-trash-bin/internal/model"
)

type AssetRepository struct {
	pool *pgxpool.Pool
}

func NewAssetRepository(pool *pgxpool.Pool) *AssetRepository {
	return &AssetRepository{pool: pool}
}

const assetColumns = `id, uid, name, owner_id, parent_id, form_uid, pending_delete, date_created`

func (r *AssetRepository) FindByID(ctx context.Context, id string) (model.Asset, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE id = $1`, id)
	return scanAsset(row)
}

// ListByOwnerChildrenFirst returns all assets owned by a user ordered so
// children come before their parents. Deleting in slice order then respects
// the parent_id dependency.
func (r *AssetRepository) ListByOwnerChildrenFirst(ctx context.Context, ownerID string) ([]model.Asset, error) {
	rows, err := r.pool.Query(ctx,
		`WITH RECURSIVE tree AS (
		     SELECT a.*, 0 AS depth FROM assets a
		     WHERE a.owner_id = $1 AND a.parent_id IS NULL
		     UNION ALL
		     SELECT a.*, tree.depth + 1 FROM assets a
		     JOIN tree ON a.parent_id = tree.id
		     WHERE a.owner_id = $1
		 )
		 SELECT `+assetColumns+` FROM tree ORDER BY depth DESC, date_created`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list assets by owner: %w", err)
	}
	defer rows.Close()

	assets := make([]model.Asset, 0)
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

func (r *AssetRepository) SetPendingDelete(ctx context.Context, ids []string, pending bool) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE assets SET pending_delete = $2 WHERE id = ANY($1)`, ids, pending)
	if err != nil {
		return fmt.Errorf("toggle asset pending_delete: %w", err)
	}
	return nil
}

// Delete removes the asset row; a missing row is not an error so handler
// re-runs stay idempotent.
func (r *AssetRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM assets WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	return nil
}

func scanAsset(row pgx.Row) (model.Asset, error) {
	var a model.Asset
	var parentID *string
	err := row.Scan(
		&a.ID, &a.UID, &a.Name, &a.OwnerID, &parentID, &a.FormUID,
		&a.PendingDelete, &a.DateCreated)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Asset{}, model.ErrAssetNotFound
	}
	if err != nil {
		return model.Asset{}, fmt.Errorf("scan asset: %w", err)
	}
	if parentID != nil {
		a.ParentID = *parentID
	}
	return a, nil
}
