package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"imagecurator/clustering"
	"imagecurator/logging"
	"imagecurator/scanner"
	"imagecurator/utils"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths locates the catalog and the resolution output folders.
type Paths struct {
	Database    string `toml:"database"`
	KeepersDir  string `toml:"keepers_dir"`
	DiscardsDir string `toml:"discards_dir"`
	LogFile     string `toml:"log_file"`
}

// Clustering holds the grouping rules.
type Clustering struct {
	SimilarityThreshold    int    `toml:"similarity_threshold"`
	TimeRadiusDays         int    `toml:"time_radius_days"` // 0 disables the time gate
	MissingTimestampPolicy string `toml:"missing_timestamp_policy"`
}

// Scoring tunes the winner election.
type Scoring struct {
	ResNormConstant  float64 `toml:"res_norm_constant"`
	SaturationWeight float64 `toml:"saturation_weight"`
}

// Ingest tunes the analysis worker pool.
type Ingest struct {
	WorkerCount           int `toml:"worker_count"`
	BatchSize             int `toml:"batch_size"`
	AnalyzeTimeoutSeconds int `toml:"analyze_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for imagecurator.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Clustering Clustering `toml:"clustering"`
	Scoring    Scoring    `toml:"scoring"`
	Ingest     Ingest     `toml:"ingest"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return utils.ExpandPath(defaultConfigPath)
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ./.env) into
// the process environment. Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// Load locates, parses, and validates a configuration file. Environment
// overrides are applied after the file. It returns the resolved path and
// whether a file existed there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := utils.ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s does not exist", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// CreateSample writes the sample configuration file to path, refusing to
// overwrite an existing file.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	if _, err := f.WriteString(sampleConfig); err != nil {
		f.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return f.Close()
}

// ClusteringParams builds the engine parameters from the clustering and scoring sections
func (c *Config) ClusteringParams() (clustering.Params, error) {
	policy, err := clustering.ParsePolicy(c.Clustering.MissingTimestampPolicy)
	if err != nil {
		return clustering.Params{}, err
	}
	return clustering.Params{
		Threshold:  c.Clustering.SimilarityThreshold,
		RadiusDays: c.Clustering.TimeRadiusDays,
		Policy:     policy,
		Scorer: clustering.WeightedScorer{
			ResNormConstant:  c.Scoring.ResNormConstant,
			SaturationWeight: c.Scoring.SaturationWeight,
		},
	}, nil
}

// IngestOptions builds the ingestion pipeline options
func (c *Config) IngestOptions() scanner.Options {
	return scanner.Options{
		Workers:        c.Ingest.WorkerCount,
		BatchSize:      c.Ingest.BatchSize,
		AnalyzeTimeout: time.Duration(c.Ingest.AnalyzeTimeoutSeconds) * time.Second,
	}
}

// LoggingOptions builds the logger setup options
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		File:   c.Paths.LogFile,
	}
}
