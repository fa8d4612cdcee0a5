package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"time"

	"imagecurator/logging"
	"imagecurator/types"
)

const assetColumns = "path, fingerprint, captured_at, sharpness, width, height, saturation, status, location"

const insertAssetSQL = `
	INSERT INTO assets (
		path, fingerprint, captured_at, sharpness, width, height, saturation, status, indexed_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(path) DO NOTHING`

// DefaultBatchSize is used by UpsertBatch when the caller passes a non-positive size
const DefaultBatchSize = 500

func scanAsset(scanner interface{ Scan(dest ...any) error }) (types.Asset, error) {
	var (
		asset       types.Asset
		fingerprint string
		capturedAt  sql.NullInt64
		status      string
		location    sql.NullString
	)
	if err := scanner.Scan(
		&asset.Key,
		&fingerprint,
		&capturedAt,
		&asset.Sharpness,
		&asset.Width,
		&asset.Height,
		&asset.Saturation,
		&status,
		&location,
	); err != nil {
		return types.Asset{}, err
	}

	fp, err := types.ParseFingerprint(fingerprint)
	if err != nil {
		return types.Asset{}, fmt.Errorf("asset %s: %w", asset.Key, err)
	}
	asset.Fingerprint = fp

	st, err := types.ParseStatus(status)
	if err != nil {
		return types.Asset{}, fmt.Errorf("asset %s: %w", asset.Key, err)
	}
	asset.Status = st

	if capturedAt.Valid {
		asset.CapturedAt = types.Timestamp(capturedAt.Int64)
	}
	asset.Location = location.String
	return asset, nil
}

func assetArgs(asset types.Asset, indexedAt string) []any {
	status := asset.Status
	if status == "" {
		status = types.StatusNew
	}
	return []any{
		asset.Key,
		asset.Fingerprint.String(),
		nullableTimestamp(asset.CapturedAt),
		asset.Sharpness,
		asset.Width,
		asset.Height,
		asset.Saturation,
		string(status),
		indexedAt,
	}
}

// UpsertIfAbsent inserts the asset unless its key is already catalogued.
// It reports whether a row was written; an existing key is not an error.
func (c *Catalog) UpsertIfAbsent(ctx context.Context, asset types.Asset) (bool, error) {
	if asset.Key == "" {
		return false, fmt.Errorf("upsert asset: empty key")
	}
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := c.execWithRetry(ctx, insertAssetSQL, assetArgs(asset, now)...)
	if err != nil {
		return false, fmt.Errorf("insert asset %s: %w", asset.Key, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected for %s: %w", asset.Key, err)
	}
	return affected > 0, nil
}

// UpsertBatch inserts assets in transactions of batchSize rows and returns
// how many were new. A failed batch rolls back on its own; earlier batches
// stay committed.
func (c *Catalog) UpsertBatch(ctx context.Context, assets []types.Asset, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	inserted := 0
	for start := 0; start < len(assets); start += batchSize {
		end := min(start+batchSize, len(assets))
		batch := assets[start:end]

		var batchInserted int
		err := c.withTx(ctx, func(tx *sql.Tx) error {
			batchInserted = 0
			stmt, err := tx.PrepareContext(ctx, insertAssetSQL)
			if err != nil {
				return fmt.Errorf("prepare asset insert: %w", err)
			}
			defer stmt.Close()

			now := time.Now().UTC().Format(time.RFC3339)
			for _, asset := range batch {
				res, err := stmt.ExecContext(ctx, assetArgs(asset, now)...)
				if err != nil {
					return fmt.Errorf("insert asset %s: %w", asset.Key, err)
				}
				if n, _ := res.RowsAffected(); n > 0 {
					batchInserted++
				}
			}
			return nil
		})
		if err != nil {
			return inserted, err
		}
		inserted += batchInserted
		logging.DebugLog("Committed asset batch %d-%d (%d new)", start, end, batchInserted)
	}
	return inserted, nil
}

// ExistingKeys returns the set of every catalogued asset key
func (c *Catalog) ExistingKeys(ctx context.Context) (map[string]struct{}, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT path FROM assets")
	if err != nil {
		return nil, fmt.Errorf("query asset keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan asset key: %w", err)
		}
		keys[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate asset keys: %w", err)
	}
	return keys, nil
}

// ListByStatus lazily yields every asset with the given status, ordered by
// key. Rows that cannot be decoded are logged and skipped.
func (c *Catalog) ListByStatus(ctx context.Context, status types.Status) iter.Seq2[types.Asset, error] {
	return c.listAssets(ctx, "SELECT "+assetColumns+" FROM assets WHERE status = ? ORDER BY path", string(status))
}

// ListAwaitingDecision yields the assets a recluster in new mode regroups:
// every NEW asset plus the members of open clusters that no resolution has
// kept yet. Members of dissolved clusters stay out, so a dissolve survives
// later runs.
func (c *Catalog) ListAwaitingDecision(ctx context.Context) iter.Seq2[types.Asset, error] {
	return c.listAssets(ctx,
		"SELECT "+assetColumns+" FROM assets WHERE location IS NULL AND"+
			" (status = ? OR path IN (SELECT asset_path FROM clusters)) ORDER BY path",
		string(types.StatusNew))
}

// ListKeepers yields every asset a resolution kept, ordered by key
func (c *Catalog) ListKeepers(ctx context.Context) iter.Seq2[types.Asset, error] {
	return c.listAssets(ctx, "SELECT "+assetColumns+" FROM assets WHERE location IS NOT NULL ORDER BY path")
}

// ListAll lazily yields every catalogued asset ordered by key
func (c *Catalog) ListAll(ctx context.Context) iter.Seq2[types.Asset, error] {
	return c.listAssets(ctx, "SELECT "+assetColumns+" FROM assets ORDER BY path")
}

func (c *Catalog) listAssets(ctx context.Context, query string, args ...any) iter.Seq2[types.Asset, error] {
	return func(yield func(types.Asset, error) bool) {
		rows, err := c.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(types.Asset{}, fmt.Errorf("query assets: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			asset, err := scanAsset(rows)
			if err != nil {
				logging.LogWarning("Skipping undecodable catalog row: %v", err)
				continue
			}
			if !yield(asset, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(types.Asset{}, fmt.Errorf("iterate assets: %w", err))
		}
	}
}

// CollectAssets drains a listing into a slice, stopping at the first error
func CollectAssets(seq iter.Seq2[types.Asset, error]) ([]types.Asset, error) {
	var assets []types.Asset
	for asset, err := range seq {
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

// GetAsset fetches one asset by key, returning nil when it is not catalogued
func (c *Catalog) GetAsset(ctx context.Context, key string) (*types.Asset, error) {
	row := c.db.QueryRowContext(ctx, "SELECT "+assetColumns+" FROM assets WHERE path = ?", key)
	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asset %s: %w", key, err)
	}
	return &asset, nil
}

// SetStatus updates the lifecycle status of one asset
func (c *Catalog) SetStatus(ctx context.Context, key string, status types.Status) error {
	if _, err := types.ParseStatus(string(status)); err != nil {
		return err
	}
	if _, err := c.execWithRetry(ctx, "UPDATE assets SET status = ? WHERE path = ?", string(status), key); err != nil {
		return fmt.Errorf("set status of %s: %w", key, err)
	}
	return nil
}

// Delete removes an asset together with its cluster membership. A cluster
// left with fewer than two members, or without its winner, is closed and
// its remaining members go back to awaiting a decision.
func (c *Catalog) Delete(ctx context.Context, key string) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		var clusterID int64
		err := tx.QueryRowContext(ctx, "SELECT cluster_id FROM clusters WHERE asset_path = ?", key).Scan(&clusterID)
		inCluster := err == nil
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("find cluster of %s: %w", key, err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM assets WHERE path = ?", key); err != nil {
			return fmt.Errorf("delete asset %s: %w", key, err)
		}
		if !inCluster {
			return nil
		}

		var remaining, winners int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*), COALESCE(SUM(is_winner), 0) FROM clusters WHERE cluster_id = ?", clusterID,
		).Scan(&remaining, &winners); err != nil {
			return fmt.Errorf("count members of cluster %d: %w", clusterID, err)
		}
		if remaining >= 2 && winners == 1 {
			return nil
		}
		if err := releaseMembers(ctx, tx, "path IN (SELECT asset_path FROM clusters WHERE cluster_id = ?)", clusterID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM clusters WHERE cluster_id = ?", clusterID); err != nil {
			return fmt.Errorf("close cluster %d: %w", clusterID, err)
		}
		logging.Debug("closed cluster after member removal", "cluster_id", clusterID, "removed", key, "remaining", remaining)
		return nil
	})
}

// releaseMembers returns the matching assets to NEW, or to RESOLVED for
// those a resolution already kept
func releaseMembers(ctx context.Context, tx *sql.Tx, where string, args ...any) error {
	query := "UPDATE assets SET status = CASE WHEN location IS NULL THEN ? ELSE ? END WHERE " + where
	params := append([]any{string(types.StatusNew), string(types.StatusResolved)}, args...)
	if _, err := tx.ExecContext(ctx, query, params...); err != nil {
		return fmt.Errorf("release cluster members: %w", err)
	}
	return nil
}
