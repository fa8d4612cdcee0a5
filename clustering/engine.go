package clustering

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"

	"imagecurator/database"
	"imagecurator/logging"
	"imagecurator/types"
)

// Store is the slice of the catalog the engine reads from and writes to
type Store interface {
	ListAwaitingDecision(ctx context.Context) iter.Seq2[types.Asset, error]
	ListKeepers(ctx context.Context) iter.Seq2[types.Asset, error]
	ReplaceClusters(ctx context.Context, run database.RunInfo, clusters []types.Cluster) error
}

// Engine runs clustering passes against a catalog
type Engine struct {
	store  Store
	params Params
}

// Summary reports the outcome of one recluster
type Summary struct {
	Considered int
	Clusters   int
	Clustered  int
	Orphans    int
	RunID      string
	Duration   time.Duration
}

// NewEngine validates params and returns an engine bound to store
func NewEngine(store Store, params Params) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("clustering engine requires a store")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.Policy == "" {
		params.Policy = PolicyPermissive
	}
	return &Engine{store: store, params: params}, nil
}

// Params returns the parameters the engine runs with
func (e *Engine) Params() Params {
	return e.params
}

// Recluster rebuilds the cluster generation from scratch. ModeNew considers
// every asset awaiting a decision: NEW assets and members of open clusters.
// ModeGlobal adds the keepers of earlier resolutions. Members of dissolved
// clusters are left alone in both modes. The new generation replaces the
// old one atomically.
func (e *Engine) Recluster(ctx context.Context, mode Mode) (*Summary, error) {
	start := time.Now()

	switch mode {
	case ModeNew, "":
		mode = ModeNew
	case ModeGlobal:
	default:
		return nil, fmt.Errorf("unknown cluster mode %q", mode)
	}

	assets, err := database.CollectAssets(e.store.ListAwaitingDecision(ctx))
	if err != nil {
		return nil, fmt.Errorf("load pending assets: %w", err)
	}
	if mode == ModeGlobal {
		keepers, err := database.CollectAssets(e.store.ListKeepers(ctx))
		if err != nil {
			return nil, fmt.Errorf("load keepers: %w", err)
		}
		assets = append(assets, keepers...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logging.Info("clustering",
		"mode", string(mode),
		"assets", len(assets),
		"threshold", e.params.Threshold,
		"radius_days", e.params.RadiusDays,
		"policy", string(e.params.Policy),
	)
	clusters := Cluster(assets, e.params)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	run := database.RunInfo{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Threshold:  e.params.Threshold,
		RadiusDays: e.params.RadiusDays,
		Policy:     string(e.params.Policy),
		Mode:       string(mode),
	}
	if err := e.store.ReplaceClusters(ctx, run, clusters); err != nil {
		return nil, fmt.Errorf("replace clusters: %w", err)
	}

	clustered := 0
	for _, c := range clusters {
		clustered += len(c.Members)
	}
	summary := &Summary{
		Considered: len(assets),
		Clusters:   len(clusters),
		Clustered:  clustered,
		Orphans:    len(assets) - clustered,
		RunID:      run.ID,
		Duration:   time.Since(start),
	}
	logging.Info("clustering finished",
		"run_id", summary.RunID,
		"clusters", summary.Clusters,
		"clustered", summary.Clustered,
		"orphans", summary.Orphans,
		"duration", summary.Duration,
	)
	return summary, nil
}
