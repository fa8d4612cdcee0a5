package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"imagecurator/types"
)

// RunInfo describes one clustering generation for the audit table
type RunInfo struct {
	ID         string
	CreatedAt  time.Time
	Threshold  int
	RadiusDays int
	Policy     string
	Mode       string
}

// ReplaceClusters swaps the whole cluster generation in one transaction.
// Members of the open clusters return to NEW (kept assets to RESOLVED),
// every member of the new generation becomes CLUSTERED and the run is
// recorded. Members of dissolved clusters are not touched. On failure the
// previous generation is left untouched.
func (c *Catalog) ReplaceClusters(ctx context.Context, run RunInfo, clusters []types.Cluster) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	return c.withTx(ctx, func(tx *sql.Tx) error {
		if err := releaseMembers(ctx, tx,
			"path IN (SELECT asset_path FROM clusters) OR (status = ? AND location IS NOT NULL)",
			string(types.StatusClustered),
		); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM clusters"); err != nil {
			return fmt.Errorf("clear clusters: %w", err)
		}

		insert, err := tx.PrepareContext(ctx,
			"INSERT INTO clusters (cluster_id, asset_path, is_winner, position) VALUES (?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("prepare cluster insert: %w", err)
		}
		defer insert.Close()

		mark, err := tx.PrepareContext(ctx, "UPDATE assets SET status = ? WHERE path = ?")
		if err != nil {
			return fmt.Errorf("prepare status update: %w", err)
		}
		defer mark.Close()

		for _, cluster := range clusters {
			if len(cluster.Members) < 2 {
				return fmt.Errorf("cluster %d has %d members, need at least 2", cluster.ID, len(cluster.Members))
			}
			if !cluster.Contains(cluster.WinnerKey) {
				return fmt.Errorf("cluster %d winner %s is not a member", cluster.ID, cluster.WinnerKey)
			}
			for pos, member := range cluster.Members {
				if _, err := insert.ExecContext(ctx, cluster.ID, member, boolToInt(member == cluster.WinnerKey), pos); err != nil {
					return fmt.Errorf("insert member %s of cluster %d: %w", member, cluster.ID, err)
				}
				res, err := mark.ExecContext(ctx, string(types.StatusClustered), member)
				if err != nil {
					return fmt.Errorf("mark %s clustered: %w", member, err)
				}
				if n, _ := res.RowsAffected(); n == 0 {
					return fmt.Errorf("cluster %d member %s is not catalogued", cluster.ID, member)
				}
			}
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cluster_runs (run_id, created_at, threshold, radius_days, policy, mode, cluster_count)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, run.CreatedAt.Format(time.RFC3339Nano), run.Threshold, run.RadiusDays, run.Policy, run.Mode, len(clusters),
		); err != nil {
			return fmt.Errorf("record cluster run: %w", err)
		}
		return nil
	})
}

// ListClusters returns every open cluster ordered by id, members in stored order
func (c *Catalog) ListClusters(ctx context.Context) ([]types.Cluster, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT cluster_id, asset_path, is_winner FROM clusters ORDER BY cluster_id, position")
	if err != nil {
		return nil, fmt.Errorf("query clusters: %w", err)
	}
	defer rows.Close()

	var clusters []types.Cluster
	for rows.Next() {
		var (
			id       int64
			path     string
			isWinner int
		)
		if err := rows.Scan(&id, &path, &isWinner); err != nil {
			return nil, fmt.Errorf("scan cluster row: %w", err)
		}
		if len(clusters) == 0 || clusters[len(clusters)-1].ID != id {
			clusters = append(clusters, types.Cluster{ID: id})
		}
		current := &clusters[len(clusters)-1]
		current.Members = append(current.Members, path)
		if isWinner != 0 {
			current.WinnerKey = path
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clusters: %w", err)
	}
	return clusters, nil
}

// GetCluster returns the open cluster with the given id, or nil when none exists
func (c *Catalog) GetCluster(ctx context.Context, id int64) (*types.Cluster, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT asset_path, is_winner FROM clusters WHERE cluster_id = ? ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("query cluster %d: %w", id, err)
	}
	defer rows.Close()

	cluster := types.Cluster{ID: id}
	for rows.Next() {
		var (
			path     string
			isWinner int
		)
		if err := rows.Scan(&path, &isWinner); err != nil {
			return nil, fmt.Errorf("scan cluster %d: %w", id, err)
		}
		cluster.Members = append(cluster.Members, path)
		if isWinner != 0 {
			cluster.WinnerKey = path
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cluster %d: %w", id, err)
	}
	if len(cluster.Members) == 0 {
		return nil, nil
	}
	return &cluster, nil
}

// DeleteCluster removes every row of a cluster without touching its assets.
// It reports whether anything was deleted; a missing id is not an error.
func (c *Catalog) DeleteCluster(ctx context.Context, id int64) (bool, error) {
	res, err := c.execWithRetry(ctx, "DELETE FROM clusters WHERE cluster_id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete cluster %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected for cluster %d: %w", id, err)
	}
	return n > 0, nil
}

// CommitResolution records a decision in one transaction: losers leave the
// catalog, the kept asset becomes RESOLVED at keptLocation and the cluster
// is closed. The key of the kept asset never changes.
func (c *Catalog) CommitResolution(ctx context.Context, id int64, keptKey, keptLocation string, losers []string) error {
	if keptLocation == "" {
		keptLocation = keptKey
	}
	return c.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM clusters WHERE cluster_id = ?", id); err != nil {
			return fmt.Errorf("close cluster %d: %w", id, err)
		}
		for _, loser := range losers {
			if _, err := tx.ExecContext(ctx, "DELETE FROM assets WHERE path = ?", loser); err != nil {
				return fmt.Errorf("delete discarded asset %s: %w", loser, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE assets SET status = ?, location = ? WHERE path = ?", string(types.StatusResolved), keptLocation, keptKey,
		); err != nil {
			return fmt.Errorf("mark %s resolved: %w", keptKey, err)
		}
		return nil
	})
}

// DumpClusters renders the store as canonical "id|path|winner" lines
func (c *Catalog) DumpClusters(ctx context.Context) (string, error) {
	clusters, err := c.ListClusters(ctx)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, cluster := range clusters {
		for _, member := range cluster.Members {
			fmt.Fprintf(&b, "%d|%s|%d\n", cluster.ID, member, boolToInt(member == cluster.WinnerKey))
		}
	}
	return b.String(), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
