package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/asset-health-service/internal/domain"
)

const assetColumns = `id, asset_tag, name, category, purchase_date, warranty_expiry, amc_expiry,
               status, condition, last_health_check, maintenance_reason,
               maintenance_start_date, maintenance_completed_date, created_at, updated_at`

// AssetRepository encapsulates asset persistence. Only health and
// maintenance fields are ever written; the rest belongs to the
// asset-management collaborator.
type AssetRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Asset, error)
	ListActiveIDs(ctx context.Context) ([]string, error)
	ListUnderMaintenance(ctx context.Context) ([]domain.Asset, error)
	ConditionCounts(ctx context.Context) (map[domain.AssetCondition]int, error)
	// UpdateLocked runs fn against a row-locked snapshot of the asset and
	// its current open-issue count, then persists the health fields fn
	// mutated. Per-asset transitions serialize on the row lock while
	// distinct assets proceed in parallel.
	UpdateLocked(ctx context.Context, id string, fn func(asset *domain.Asset, openIssues int) error) error
}

type assetRepository struct {
	pool *pgxpool.Pool
}

// NewAssetRepository instantiates the repository.
func NewAssetRepository(pool *pgxpool.Pool) AssetRepository {
	return &assetRepository{pool: pool}
}

func (r *assetRepository) GetByID(ctx context.Context, id string) (*domain.Asset, error) {
	query := fmt.Sprintf(`SELECT %s FROM assets WHERE id=$1`, assetColumns)
	asset, err := scanAsset(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return asset, err
}

func (r *assetRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM assets WHERE status <> 'RETIRED' ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *assetRepository) ListUnderMaintenance(ctx context.Context) ([]domain.Asset, error) {
	query := fmt.Sprintf(`SELECT %s FROM assets WHERE status='UNDER_MAINTENANCE' ORDER BY maintenance_start_date`, assetColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *asset)
	}
	return assets, rows.Err()
}

func (r *assetRepository) ConditionCounts(ctx context.Context) (map[domain.AssetCondition]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT condition, COUNT(*) FROM assets WHERE status <> 'RETIRED' GROUP BY condition`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.AssetCondition]int)
	for rows.Next() {
		var condition domain.AssetCondition
		var count int
		if err := rows.Scan(&condition, &count); err != nil {
			return nil, err
		}
		counts[condition] = count
	}
	return counts, rows.Err()
}

func (r *assetRepository) UpdateLocked(ctx context.Context, id string, fn func(asset *domain.Asset, openIssues int) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := fmt.Sprintf(`SELECT %s FROM assets WHERE id=$1 FOR UPDATE`, assetColumns)
	asset, err := scanAsset(tx.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}

	var openIssues int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE asset_id=$1 AND status IN ('OPEN','IN_PROGRESS')`,
		id,
	).Scan(&openIssues); err != nil {
		return err
	}

	if err := fn(asset, openIssues); err != nil {
		return err
	}

	const update = `
        UPDATE assets SET status=$1, condition=$2, last_health_check=$3,
            maintenance_reason=$4, maintenance_start_date=$5, maintenance_completed_date=$6,
            updated_at=NOW()
        WHERE id=$7`
	if _, err := tx.Exec(ctx, update,
		asset.Status,
		asset.Condition,
		asset.LastHealthCheck,
		asset.MaintenanceReason,
		asset.MaintenanceStartDate,
		asset.MaintenanceCompletedDate,
		asset.ID,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func scanAsset(row pgx.Row) (*domain.Asset, error) {
	var asset domain.Asset
	if err := row.Scan(
		&asset.ID,
		&asset.AssetTag,
		&asset.Name,
		&asset.Category,
		&asset.PurchaseDate,
		&asset.WarrantyExpiry,
		&asset.AMCExpiry,
		&asset.Status,
		&asset.Condition,
		&asset.LastHealthCheck,
		&asset.MaintenanceReason,
		&asset.MaintenanceStartDate,
		&asset.MaintenanceCompletedDate,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &asset, nil
}
