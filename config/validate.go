package config

import (
	"errors"
	"fmt"

	"imagecurator/clustering"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateClustering(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.Database == "" {
		return errors.New("paths.database must be set")
	}
	if c.Paths.KeepersDir == "" || c.Paths.DiscardsDir == "" {
		return errors.New("paths.keepers_dir and paths.discards_dir must be set")
	}
	if c.Paths.KeepersDir == c.Paths.DiscardsDir {
		return errors.New("paths.keepers_dir and paths.discards_dir must differ")
	}
	return nil
}

func (c *Config) validateClustering() error {
	if c.Clustering.SimilarityThreshold < 0 {
		return fmt.Errorf("clustering.similarity_threshold must be >= 0, got %d", c.Clustering.SimilarityThreshold)
	}
	if c.Clustering.TimeRadiusDays < 0 {
		return fmt.Errorf("clustering.time_radius_days must be >= 0, got %d", c.Clustering.TimeRadiusDays)
	}
	if _, err := clustering.ParsePolicy(c.Clustering.MissingTimestampPolicy); err != nil {
		return fmt.Errorf("clustering.missing_timestamp_policy: %w", err)
	}
	if c.Scoring.SaturationWeight < 0 {
		return errors.New("scoring.saturation_weight must be >= 0")
	}
	return nil
}

func (c *Config) validateIngest() error {
	if c.Ingest.WorkerCount < 1 {
		return fmt.Errorf("ingest.worker_count must be >= 1, got %d", c.Ingest.WorkerCount)
	}
	if c.Ingest.BatchSize < 1 {
		return fmt.Errorf("ingest.batch_size must be >= 1, got %d", c.Ingest.BatchSize)
	}
	if c.Ingest.AnalyzeTimeoutSeconds < 0 {
		return errors.New("ingest.analyze_timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}
