// Package testsupport holds helpers shared by package tests.
package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"imagecurator/database"
	"imagecurator/types"
)

// MustOpenCatalog opens a catalog in a temp dir and registers cleanup.
func MustOpenCatalog(t testing.TB) *database.Catalog {
	t.Helper()

	catalog, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("database.Open: %v", err)
	}
	t.Cleanup(func() {
		catalog.Close()
	})
	return catalog
}

// Day returns a capture time n days after a fixed origin.
func Day(n int) *int64 {
	const origin = int64(1_600_000_000)
	return types.Timestamp(origin + int64(n)*86400)
}

// Asset builds a NEW asset with a 64-bit fingerprint.
func Asset(key string, fingerprint uint64, capturedAt *int64) types.Asset {
	return types.Asset{
		Key:         key,
		Fingerprint: types.FingerprintFromUint64(fingerprint),
		CapturedAt:  capturedAt,
		Sharpness:   100,
		Width:       4000,
		Height:      3000,
		Saturation:  80,
		Status:      types.StatusNew,
	}
}

// MustInsert stores assets and fails the test on any error.
func MustInsert(t testing.TB, catalog *database.Catalog, assets ...types.Asset) {
	t.Helper()

	if _, err := catalog.UpsertBatch(context.Background(), assets, 0); err != nil {
		t.Fatalf("UpsertBatch: %v", err)
	}
}
