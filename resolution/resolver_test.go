package resolution_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"imagecurator/clustering"
	"imagecurator/database"
	"imagecurator/resolution"
	"imagecurator/testsupport"
	"imagecurator/types"
)

type recordingMover struct {
	moves map[string]string
	fail  map[string]bool
}

func newRecordingMover() *recordingMover {
	return &recordingMover{moves: map[string]string{}, fail: map[string]bool{}}
}

func (m *recordingMover) Move(src, destDir string) (string, error) {
	if m.fail[src] {
		return "", fmt.Errorf("disk full")
	}
	dest := filepath.Join(destDir, filepath.Base(src))
	m.moves[src] = dest
	return dest, nil
}

func seedCluster(t *testing.T) *database.Catalog {
	t.Helper()
	catalog := testsupport.MustOpenCatalog(t)
	testsupport.MustInsert(t, catalog,
		testsupport.Asset("/p/a.jpg", 1, nil),
		testsupport.Asset("/p/b.jpg", 1, nil),
		testsupport.Asset("/p/c.jpg", 1, nil),
	)
	clusters := []types.Cluster{{ID: 1, Members: []string{"/p/a.jpg", "/p/b.jpg", "/p/c.jpg"}, WinnerKey: "/p/c.jpg"}}
	if err := catalog.ReplaceClusters(context.Background(), database.RunInfo{ID: "seed"}, clusters); err != nil {
		t.Fatalf("ReplaceClusters failed: %v", err)
	}
	return catalog
}

func newResolver(t *testing.T, catalog *database.Catalog, mover resolution.FileMover) *resolution.Resolver {
	t.Helper()
	resolver, err := resolution.NewResolver(catalog, mover, "/keepers", "/discards")
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}
	return resolver
}

func TestResolveKeepsSelectionAndDiscardsRest(t *testing.T) {
	catalog := seedCluster(t)
	mover := newRecordingMover()
	resolver := newResolver(t, catalog, mover)
	ctx := context.Background()

	outcome, err := resolver.Resolve(ctx, 1, "/p/b.jpg")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if diff := cmp.Diff([]string{"/p/a.jpg", "/p/c.jpg"}, outcome.Discarded); diff != "" {
		t.Fatalf("discarded mismatch (-want +got):\n%s", diff)
	}
	wantMoves := map[string]string{
		"/p/b.jpg": "/keepers/b.jpg",
		"/p/a.jpg": "/discards/a.jpg",
		"/p/c.jpg": "/discards/c.jpg",
	}
	if diff := cmp.Diff(wantMoves, mover.moves); diff != "" {
		t.Fatalf("moves mismatch (-want +got):\n%s", diff)
	}

	kept, err := catalog.GetAsset(ctx, "/p/b.jpg")
	if err != nil {
		t.Fatalf("GetAsset failed: %v", err)
	}
	if kept.Status != types.StatusResolved {
		t.Fatalf("kept status = %s, want RESOLVED", kept.Status)
	}
	for _, loser := range outcome.Discarded {
		got, err := catalog.GetAsset(ctx, loser)
		if err != nil {
			t.Fatalf("GetAsset failed: %v", err)
		}
		if got != nil {
			t.Fatalf("expected %s to leave the catalog", loser)
		}
	}
	cluster, err := catalog.GetCluster(ctx, 1)
	if err != nil {
		t.Fatalf("GetCluster failed: %v", err)
	}
	if cluster != nil {
		t.Fatal("expected cluster to be closed")
	}
}

func TestDissolveAfterResolveIsNoOp(t *testing.T) {
	catalog := seedCluster(t)
	resolver := newResolver(t, catalog, newRecordingMover())
	ctx := context.Background()

	if _, err := resolver.Resolve(ctx, 1, "/p/a.jpg"); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	before, err := catalog.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if err := resolver.Dissolve(ctx, 1); err != nil {
		t.Fatalf("Dissolve after resolve returned %v", err)
	}
	after, err := catalog.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("dissolve changed state (-before +after):\n%s", diff)
	}
}

func TestDissolveKeepsAssets(t *testing.T) {
	catalog := seedCluster(t)
	resolver := newResolver(t, catalog, newRecordingMover())
	ctx := context.Background()

	if err := resolver.Dissolve(ctx, 1); err != nil {
		t.Fatalf("Dissolve failed: %v", err)
	}
	if err := resolver.Dissolve(ctx, 1); err != nil {
		t.Fatalf("second Dissolve failed: %v", err)
	}
	assets, err := database.CollectAssets(catalog.ListAll(ctx))
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(assets) != 3 {
		t.Fatalf("expected all 3 assets to survive, got %d", len(assets))
	}
}

func TestResolveRejectsNonMember(t *testing.T) {
	catalog := seedCluster(t)
	mover := newRecordingMover()
	resolver := newResolver(t, catalog, mover)
	ctx := context.Background()

	_, err := resolver.Resolve(ctx, 1, "/p/stranger.jpg")
	var invalid *resolution.InvalidSelectionError
	if !errors.As(err, &invalid) || !errors.Is(err, resolution.ErrInvalidSelection) {
		t.Fatalf("expected InvalidSelectionError, got %v", err)
	}
	if len(mover.moves) != 0 {
		t.Fatalf("expected no moves, got %v", mover.moves)
	}
	cluster, err := catalog.GetCluster(ctx, 1)
	if err != nil {
		t.Fatalf("GetCluster failed: %v", err)
	}
	if cluster == nil || len(cluster.Members) != 3 {
		t.Fatalf("expected cluster untouched, got %#v", cluster)
	}
}

func TestResolveUnknownCluster(t *testing.T) {
	catalog := seedCluster(t)
	resolver := newResolver(t, catalog, newRecordingMover())

	_, err := resolver.Resolve(context.Background(), 42, "/p/a.jpg")
	if !errors.Is(err, resolution.ErrClusterNotFound) {
		t.Fatalf("expected ErrClusterNotFound, got %v", err)
	}
}

func TestResolveReportsPartialResolution(t *testing.T) {
	catalog := seedCluster(t)
	mover := newRecordingMover()
	mover.fail["/p/a.jpg"] = true
	resolver := newResolver(t, catalog, mover)

	_, err := resolver.Resolve(context.Background(), 1, "/p/c.jpg")
	if !errors.Is(err, resolution.ErrPartialResolution) {
		t.Fatalf("expected ErrPartialResolution, got %v", err)
	}
	var partial *resolution.PartialResolutionError
	if !errors.As(err, &partial) {
		t.Fatalf("expected *PartialResolutionError, got %T", err)
	}
	if len(partial.Failed) != 1 || partial.Failed[0].Path != "/p/a.jpg" {
		t.Fatalf("unexpected failures: %#v", partial.Failed)
	}
	if diff := cmp.Diff([]string{"/p/c.jpg", "/p/b.jpg"}, partial.Moved); diff != "" {
		t.Fatalf("moved mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveAllUsesWinners(t *testing.T) {
	catalog := testsupport.MustOpenCatalog(t)
	ctx := context.Background()
	testsupport.MustInsert(t, catalog,
		testsupport.Asset("/p/a1.jpg", 1, nil),
		testsupport.Asset("/p/a2.jpg", 1, nil),
		testsupport.Asset("/p/b1.jpg", 2, nil),
		testsupport.Asset("/p/b2.jpg", 2, nil),
	)
	clusters := []types.Cluster{
		{ID: 1, Members: []string{"/p/a1.jpg", "/p/a2.jpg"}, WinnerKey: "/p/a2.jpg"},
		{ID: 2, Members: []string{"/p/b1.jpg", "/p/b2.jpg"}, WinnerKey: "/p/b1.jpg"},
	}
	if err := catalog.ReplaceClusters(ctx, database.RunInfo{ID: "r"}, clusters); err != nil {
		t.Fatalf("ReplaceClusters failed: %v", err)
	}

	mover := newRecordingMover()
	mover.fail["/p/b2.jpg"] = true
	resolver := newResolver(t, catalog, mover)

	report, err := resolver.ResolveAll(ctx)
	if err != nil {
		t.Fatalf("ResolveAll failed: %v", err)
	}
	if report.Resolved != 1 || report.Discarded != 1 {
		t.Fatalf("unexpected report: %#v", report)
	}
	if !errors.Is(report.Failed[2], resolution.ErrPartialResolution) {
		t.Fatalf("expected cluster 2 to be partial, got %v", report.Failed[2])
	}
	if mover.moves["/p/a2.jpg"] != "/keepers/a2.jpg" {
		t.Fatalf("expected winner a2 to be kept, moves: %v", mover.moves)
	}
}

func writePhoto(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(filepath.Base(path)), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func mustExist(t *testing.T, path string, want bool) {
	t.Helper()
	_, err := os.Stat(path)
	if got := err == nil; got != want {
		t.Fatalf("%s exists = %v, want %v (%v)", path, got, want, err)
	}
}

// resolvedKeeperInGlobalCluster keeps first.jpg out of a pair, then adds a
// new shot of the same scene and regroups it globally with the keeper.
func resolvedKeeperInGlobalCluster(t *testing.T) (*database.Catalog, *resolution.Resolver, map[string]string) {
	t.Helper()
	ctx := context.Background()
	root := t.TempDir()
	dirs := map[string]string{
		"photos":   filepath.Join(root, "photos"),
		"keepers":  filepath.Join(root, "keepers"),
		"discards": filepath.Join(root, "discards"),
	}
	if err := os.MkdirAll(dirs["photos"], 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	first := filepath.Join(dirs["photos"], "first.jpg")
	dup := filepath.Join(dirs["photos"], "dup.jpg")
	writePhoto(t, first)
	writePhoto(t, dup)

	catalog := testsupport.MustOpenCatalog(t)
	testsupport.MustInsert(t, catalog,
		testsupport.Asset(first, 0x5, testsupport.Day(0)),
		testsupport.Asset(dup, 0x5, testsupport.Day(0)),
	)
	engine, err := clustering.NewEngine(catalog, clustering.DefaultParams())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if _, err := engine.Recluster(ctx, clustering.ModeNew); err != nil {
		t.Fatalf("Recluster failed: %v", err)
	}
	resolver, err := resolution.NewResolver(catalog, resolution.DirMover{}, dirs["keepers"], dirs["discards"])
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}
	if _, err := resolver.Resolve(ctx, 1, first); err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}

	later := filepath.Join(dirs["photos"], "later.jpg")
	writePhoto(t, later)
	testsupport.MustInsert(t, catalog, testsupport.Asset(later, 0x5, testsupport.Day(1)))
	summary, err := engine.Recluster(ctx, clustering.ModeGlobal)
	if err != nil {
		t.Fatalf("global Recluster failed: %v", err)
	}
	if summary.Clusters != 1 || summary.Clustered != 2 {
		t.Fatalf("expected keeper and new shot grouped, got %#v", summary)
	}
	dirs["first"] = first
	dirs["later"] = later
	return catalog, resolver, dirs
}

func TestResolveDiscardsEarlierKeeperFromKeepersFolder(t *testing.T) {
	catalog, resolver, dirs := resolvedKeeperInGlobalCluster(t)
	ctx := context.Background()

	outcome, err := resolver.Resolve(ctx, 1, dirs["later"])
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	keptAt := filepath.Join(dirs["keepers"], "later.jpg")
	if outcome.KeptPath != keptAt {
		t.Fatalf("KeptPath = %q, want %q", outcome.KeptPath, keptAt)
	}
	mustExist(t, keptAt, true)
	mustExist(t, filepath.Join(dirs["keepers"], "first.jpg"), false)
	mustExist(t, filepath.Join(dirs["discards"], "first.jpg"), true)

	first, err := catalog.GetAsset(ctx, dirs["first"])
	if err != nil {
		t.Fatalf("GetAsset failed: %v", err)
	}
	if first != nil {
		t.Fatalf("expected the earlier keeper to leave the catalog, got %#v", first)
	}
	later, err := catalog.GetAsset(ctx, dirs["later"])
	if err != nil {
		t.Fatalf("GetAsset failed: %v", err)
	}
	if later.Status != types.StatusResolved || later.Location != keptAt {
		t.Fatalf("unexpected kept asset: %#v", later)
	}
}

func TestResolveKeepingEarlierKeeperLeavesItInPlace(t *testing.T) {
	catalog, resolver, dirs := resolvedKeeperInGlobalCluster(t)
	ctx := context.Background()
	keptAt := filepath.Join(dirs["keepers"], "first.jpg")

	outcome, err := resolver.Resolve(ctx, 1, dirs["first"])
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if outcome.KeptPath != keptAt {
		t.Fatalf("KeptPath = %q, want %q", outcome.KeptPath, keptAt)
	}
	mustExist(t, keptAt, true)
	mustExist(t, filepath.Join(dirs["discards"], "later.jpg"), true)

	entries, err := os.ReadDir(dirs["keepers"])
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected a single file in keepers, got %d", len(entries))
	}

	first, err := catalog.GetAsset(ctx, dirs["first"])
	if err != nil {
		t.Fatalf("GetAsset failed: %v", err)
	}
	if first.Status != types.StatusResolved || first.Location != keptAt {
		t.Fatalf("unexpected kept asset: %#v", first)
	}
}
