package clustering

import (
	"cmp"
	"slices"

	"imagecurator/types"
)

// SortAssets returns a copy ordered by capture time ascending. Assets
// without a capture time go last; ties are broken by key.
//
// The ordering is load-bearing: the early exit in Cluster relies on every
// timestamped asset preceding every untimestamped one.
func SortAssets(assets []types.Asset) []types.Asset {
	sorted := slices.Clone(assets)
	slices.SortStableFunc(sorted, compareAssets)
	return sorted
}

func compareAssets(a, b types.Asset) int {
	switch {
	case a.CapturedAt != nil && b.CapturedAt != nil:
		if c := cmp.Compare(*a.CapturedAt, *b.CapturedAt); c != 0 {
			return c
		}
	case a.CapturedAt != nil:
		return -1
	case b.CapturedAt != nil:
		return 1
	}
	return cmp.Compare(a.Key, b.Key)
}

// Cluster partitions assets into near-duplicate groups with greedy
// single-link scanning from each unvisited anchor. Groups of one are
// dropped, leaving the asset an orphan. Cluster ids run 1..n in commit
// order. The result depends only on the asset set and params, not on the
// order of the input slice.
func Cluster(assets []types.Asset, params Params) []types.Cluster {
	sorted := SortAssets(assets)
	n := len(sorted)
	scorer := params.scorer()

	// sorted[tail:] are exactly the assets without a capture time.
	tail := slices.IndexFunc(sorted, func(a types.Asset) bool { return a.CapturedAt == nil })
	if tail < 0 {
		tail = n
	}

	visited := make([]bool, n)
	var clusters []types.Cluster
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		anchor := sorted[i]
		visited[i] = true
		group := []int{i}

		for j := i + 1; j < n; j++ {
			if visited[j] {
				continue
			}
			candidate := sorted[j]

			if canEarlyExit(anchor, candidate, params) {
				// Every later timestamped asset is at least as far away.
				if params.Policy == PolicyStrict || tail == n {
					break
				}
				// Permissive: the untimestamped tail may still match.
				j = tail - 1
				continue
			}

			if matches(anchor, candidate, params) {
				group = append(group, j)
				visited[j] = true
			}
		}

		if len(group) < 2 {
			continue
		}
		members := make([]types.Asset, len(group))
		keys := make([]string, len(group))
		for k, idx := range group {
			members[k] = sorted[idx]
			keys[k] = sorted[idx].Key
		}
		clusters = append(clusters, types.Cluster{
			ID:        int64(len(clusters) + 1),
			Members:   keys,
			WinnerKey: PickWinner(members, scorer).Key,
		})
	}
	return clusters
}

// canEarlyExit reports whether the inner scan may stop considering
// timestamped candidates. It only holds when the gate is enabled and both
// capture times are known, because only then is the distance to every
// later timestamped asset guaranteed to be larger.
func canEarlyExit(anchor, candidate types.Asset, params Params) bool {
	if !params.gateEnabled() {
		return false
	}
	if anchor.CapturedAt == nil || candidate.CapturedAt == nil {
		return false
	}
	return *candidate.CapturedAt-*anchor.CapturedAt > params.radiusSeconds()
}

func matches(a, b types.Asset, params Params) bool {
	if a.Fingerprint.Distance(b.Fingerprint) > params.Threshold {
		return false
	}
	return withinTimeGate(a, b, params)
}

func withinTimeGate(a, b types.Asset, params Params) bool {
	if !params.gateEnabled() {
		return true
	}
	if a.CapturedAt == nil || b.CapturedAt == nil {
		return params.Policy != PolicyStrict
	}
	diff := *a.CapturedAt - *b.CapturedAt
	if diff < 0 {
		diff = -diff
	}
	return diff <= params.radiusSeconds()
}
