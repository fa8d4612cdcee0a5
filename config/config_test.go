package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pelletier/go-toml/v2"

	"imagecurator/clustering"
	"imagecurator/config"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	return home
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	home := isolate(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(home, ".config", "imagecurator", "config.toml"); resolved != want {
		t.Fatalf("resolved = %q, want %q", resolved, want)
	}
	if cfg.Paths.KeepersDir != filepath.Join(home, "Pictures", "imagecurator", "Keepers") {
		t.Fatalf("unexpected keepers dir: %q", cfg.Paths.KeepersDir)
	}
	if filepath.Base(cfg.Paths.Database) != "imagecurator.db" {
		t.Fatalf("unexpected database path: %q", cfg.Paths.Database)
	}

	params, err := cfg.ClusteringParams()
	if err != nil {
		t.Fatal(err)
	}
	want := clustering.DefaultParams()
	if diff := cmp.Diff(want, params); diff != "" {
		t.Errorf("clustering params mismatch (-want +got):\n%s", diff)
	}

	opts := cfg.IngestOptions()
	if opts.Workers < 1 || opts.BatchSize != 500 || opts.AnalyzeTimeout != time.Minute {
		t.Errorf("unexpected ingest options %+v", opts)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
[paths]
database = "~/curator/catalog.db"

[clustering]
similarity_threshold = 10
time_radius_days = 0
missing_timestamp_policy = "Strict"

[ingest]
worker_count = 3

[logging]
format = "json"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if !strings.HasSuffix(cfg.Paths.Database, filepath.Join("curator", "catalog.db")) || !filepath.IsAbs(cfg.Paths.Database) {
		t.Errorf("database not expanded: %q", cfg.Paths.Database)
	}
	if cfg.Clustering.SimilarityThreshold != 10 || cfg.Clustering.TimeRadiusDays != 0 {
		t.Errorf("clustering = %+v", cfg.Clustering)
	}
	if cfg.Clustering.MissingTimestampPolicy != "strict" {
		t.Errorf("policy not normalized: %q", cfg.Clustering.MissingTimestampPolicy)
	}
	if cfg.Ingest.WorkerCount != 3 || cfg.Ingest.BatchSize != 500 {
		t.Errorf("ingest = %+v", cfg.Ingest)
	}
	if got := cfg.LoggingOptions(); got.Format != "json" || got.Level != "info" {
		t.Errorf("logging = %+v", got)
	}
}

func TestProjectConfigIsFound(t *testing.T) {
	isolate(t)
	if err := os.WriteFile("imagecurator.toml", []byte("[clustering]\nsimilarity_threshold = 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if !exists || cfg.Clustering.SimilarityThreshold != 4 {
		t.Fatalf("project config not used: exists=%v threshold=%d", exists, cfg.Clustering.SimilarityThreshold)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "[clustering]\nsimilarity_threshold = 10\n")
	t.Setenv("IMAGECURATOR_SIMILARITY_THRESHOLD", "20")
	t.Setenv("IMAGECURATOR_TIME_RADIUS_DAYS", "3")
	t.Setenv("IMAGECURATOR_LOG_LEVEL", "DEBUG")

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Clustering.SimilarityThreshold != 20 || cfg.Clustering.TimeRadiusDays != 3 {
		t.Errorf("env not applied: %+v", cfg.Clustering)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
}

func TestDotEnvSeedsEnvironment(t *testing.T) {
	isolate(t)
	const key = "IMAGECURATOR_BATCH_SIZE"
	t.Setenv(key, "")
	os.Unsetenv(key)
	if err := os.WriteFile(".env", []byte(key+"=42\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := config.LoadDotEnv(); err != nil {
		t.Fatal(err)
	}
	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ingest.BatchSize != 42 {
		t.Fatalf("batch size = %d, want 42", cfg.Ingest.BatchSize)
	}

	if err := config.LoadDotEnv("missing.env"); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"zero workers", "[ingest]\nworker_count = 0\n", "worker_count"},
		{"zero batch", "[ingest]\nbatch_size = 0\n", "batch_size"},
		{"negative threshold", "[clustering]\nsimilarity_threshold = -1\n", "similarity_threshold"},
		{"negative radius", "[clustering]\ntime_radius_days = -2\n", "time_radius_days"},
		{"unknown policy", "[clustering]\nmissing_timestamp_policy = \"lenient\"\n", "missing_timestamp_policy"},
		{"bad format", "[logging]\nformat = \"xml\"\n", "logging.format"},
		{"same folders", "[paths]\nkeepers_dir = \"/x\"\ndiscards_dir = \"/x\"\n", "must differ"},
		{"unknown key", "[clustering]\nthreshold = 3\n", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, _, _, err := config.Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestBadEnvInteger(t *testing.T) {
	isolate(t)
	t.Setenv("IMAGECURATOR_WORKER_COUNT", "many")
	if _, _, _, err := config.Load(""); err == nil {
		t.Fatal("expected error for non-integer worker count")
	}
}

func TestExplicitMissingConfigFails(t *testing.T) {
	isolate(t)
	if _, _, _, err := config.Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestCreateSample(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var parsed config.Config
	if err := toml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	if parsed.Clustering.SimilarityThreshold != 16 || parsed.Clustering.TimeRadiusDays != 10 {
		t.Errorf("sample defaults drifted: %+v", parsed.Clustering)
	}

	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample should load cleanly: %v", err)
	}
	if err := config.CreateSample(path); err == nil {
		t.Fatal("CreateSample should not overwrite")
	}
}
