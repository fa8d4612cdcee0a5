package resolution

import (
	"context"
	"fmt"

	"imagecurator/logging"
	"imagecurator/types"
)

// Store is the slice of the catalog the resolver needs
type Store interface {
	GetCluster(ctx context.Context, id int64) (*types.Cluster, error)
	ListClusters(ctx context.Context) ([]types.Cluster, error)
	DeleteCluster(ctx context.Context, id int64) (bool, error)
	GetAsset(ctx context.Context, key string) (*types.Asset, error)
	CommitResolution(ctx context.Context, id int64, keptKey, keptLocation string, losers []string) error
}

// Resolver applies review decisions to open clusters
type Resolver struct {
	store       Store
	mover       FileMover
	keepersDir  string
	discardsDir string
}

// Outcome describes one completed resolution
type Outcome struct {
	ClusterID int64
	Kept      string
	KeptPath  string
	Discarded []string
}

// BatchReport aggregates a ResolveAll run
type BatchReport struct {
	Resolved  int
	Discarded int
	Failed    map[int64]error
}

// NewResolver returns a resolver that moves kept files into keepersDir and
// discarded files into discardsDir. A nil mover falls back to DirMover.
func NewResolver(store Store, mover FileMover, keepersDir, discardsDir string) (*Resolver, error) {
	if store == nil {
		return nil, fmt.Errorf("resolver requires a store")
	}
	if keepersDir == "" || discardsDir == "" {
		return nil, fmt.Errorf("resolver requires keepers and discards directories")
	}
	if mover == nil {
		mover = DirMover{}
	}
	return &Resolver{store: store, mover: mover, keepersDir: keepersDir, discardsDir: discardsDir}, nil
}

// Dissolve closes a cluster without touching any asset; every member stays
// as a distinct item. Dissolving an unknown id is a no-op.
func (r *Resolver) Dissolve(ctx context.Context, id int64) error {
	deleted, err := r.store.DeleteCluster(ctx, id)
	if err != nil {
		return err
	}
	if deleted {
		logging.Info("cluster dissolved", "cluster_id", id)
	} else {
		logging.Debug("dissolve of unknown cluster ignored", "cluster_id", id)
	}
	return nil
}

// Resolve keeps keptKey, discards every other member and closes the
// cluster. Files are moved from where they live now, so a keeper of an
// earlier resolution stays in place when kept again and leaves the keepers
// folder when discarded. File moves and the catalog update are not atomic
// together; any disagreement is reported as a *PartialResolutionError and
// left for manual reconciliation.
func (r *Resolver) Resolve(ctx context.Context, id int64, keptKey string) (*Outcome, error) {
	cluster, err := r.store.GetCluster(ctx, id)
	if err != nil {
		return nil, err
	}
	if cluster == nil {
		return nil, fmt.Errorf("%w: %d", ErrClusterNotFound, id)
	}
	if !cluster.Contains(keptKey) {
		return nil, &InvalidSelectionError{ClusterID: id, Key: keptKey}
	}

	members := make(map[string]types.Asset, len(cluster.Members))
	for _, key := range cluster.Members {
		asset, err := r.store.GetAsset(ctx, key)
		if err != nil {
			return nil, err
		}
		if asset == nil {
			asset = &types.Asset{Key: key}
		}
		members[key] = *asset
	}

	losers := cluster.Losers(keptKey)
	outcome := &Outcome{ClusterID: id, Kept: keptKey, Discarded: losers}

	var (
		moved  []string
		failed []MoveFailure
	)
	kept := members[keptKey]
	keptLocation := kept.CurrentPath()
	if kept.IsKeeper() {
		outcome.KeptPath = keptLocation
	} else if dest, err := r.mover.Move(keptLocation, r.keepersDir); err != nil {
		failed = append(failed, MoveFailure{Path: keptLocation, Err: err})
	} else {
		moved = append(moved, keptKey)
		keptLocation = dest
		outcome.KeptPath = dest
	}
	for _, loser := range losers {
		src := members[loser].CurrentPath()
		if _, err := r.mover.Move(src, r.discardsDir); err != nil {
			failed = append(failed, MoveFailure{Path: src, Err: err})
			continue
		}
		moved = append(moved, loser)
	}

	commitErr := r.store.CommitResolution(ctx, id, keptKey, keptLocation, losers)
	if len(failed) > 0 || commitErr != nil {
		partial := &PartialResolutionError{ClusterID: id, Moved: moved, Failed: failed, CommitErr: commitErr}
		logging.Warn("resolution needs manual reconciliation", "cluster_id", id, "error", partial.Error())
		return outcome, partial
	}

	logging.Info("cluster resolved", "cluster_id", id, "kept", keptKey, "discarded", len(losers))
	return outcome, nil
}

// ResolveWinner resolves a cluster in favor of its stored winner
func (r *Resolver) ResolveWinner(ctx context.Context, id int64) (*Outcome, error) {
	cluster, err := r.store.GetCluster(ctx, id)
	if err != nil {
		return nil, err
	}
	if cluster == nil {
		return nil, fmt.Errorf("%w: %d", ErrClusterNotFound, id)
	}
	return r.Resolve(ctx, id, cluster.WinnerKey)
}

// ResolveAll resolves every open cluster in favor of its winner. A failing
// cluster is recorded in the report and does not stop the batch.
func (r *Resolver) ResolveAll(ctx context.Context) (*BatchReport, error) {
	clusters, err := r.store.ListClusters(ctx)
	if err != nil {
		return nil, err
	}

	report := &BatchReport{Failed: make(map[int64]error)}
	for _, cluster := range clusters {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		outcome, err := r.Resolve(ctx, cluster.ID, cluster.WinnerKey)
		if err != nil {
			report.Failed[cluster.ID] = err
			continue
		}
		report.Resolved++
		report.Discarded += len(outcome.Discarded)
	}
	return report, nil
}
