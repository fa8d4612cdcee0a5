package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"imagecurator/types"
)

// Stats is the catalog balance sheet
type Stats struct {
	TotalAssets       int
	NewAssets         int
	ClusteredAssets   int
	ResolvedAssets    int
	OpenClusters      int
	FilesInClusters   int
	ProjectedDiscards int
	LastRun           *RunInfo
}

// Stats counts assets per status and summarizes the open clusters
func (c *Catalog) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats

	rows, err := c.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM assets GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count assets by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		stats.TotalAssets += count
		switch types.Status(status) {
		case types.StatusNew:
			stats.NewAssets = count
		case types.StatusClustered:
			stats.ClusteredAssets = count
		case types.StatusResolved:
			stats.ResolvedAssets = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}

	err = c.db.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT cluster_id), COUNT(*) FROM clusters",
	).Scan(&stats.OpenClusters, &stats.FilesInClusters)
	if err != nil {
		return nil, fmt.Errorf("count clusters: %w", err)
	}
	stats.ProjectedDiscards = stats.FilesInClusters - stats.OpenClusters

	run, err := c.LastRun(ctx)
	if err != nil {
		return nil, err
	}
	stats.LastRun = run
	return &stats, nil
}

// LastRun returns the most recent clustering generation, or nil if none ran yet
func (c *Catalog) LastRun(ctx context.Context) (*RunInfo, error) {
	var (
		run     RunInfo
		created string
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT run_id, created_at, threshold, radius_days, policy, mode
		 FROM cluster_runs ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	).Scan(&run.ID, &created, &run.Threshold, &run.RadiusDays, &run.Policy, &run.Mode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read last cluster run: %w", err)
	}
	if ts, parseErr := time.Parse(time.RFC3339Nano, created); parseErr == nil {
		run.CreatedAt = ts
	}
	return &run, nil
}

// BlurCandidates lists assets whose sharpness is below maxSharpness, blurriest first
func (c *Catalog) BlurCandidates(ctx context.Context, maxSharpness int) ([]types.Asset, error) {
	return CollectAssets(c.listAssets(ctx,
		"SELECT "+assetColumns+" FROM assets WHERE sharpness < ? ORDER BY sharpness, path", maxSharpness))
}
