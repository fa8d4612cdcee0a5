package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"imagecurator/utils"
)

const envPrefix = "IMAGECURATOR_"

// applyEnv overrides file values with IMAGECURATOR_* variables
func (c *Config) applyEnv() error {
	strVars := map[string]*string{
		"DATABASE":                 &c.Paths.Database,
		"KEEPERS_DIR":              &c.Paths.KeepersDir,
		"DISCARDS_DIR":             &c.Paths.DiscardsDir,
		"LOG_FILE":                 &c.Paths.LogFile,
		"MISSING_TIMESTAMP_POLICY": &c.Clustering.MissingTimestampPolicy,
		"LOG_LEVEL":                &c.Logging.Level,
		"LOG_FORMAT":               &c.Logging.Format,
	}
	for name, dst := range strVars {
		if value, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = strings.TrimSpace(value)
		}
	}

	if value, ok := os.LookupEnv(envPrefix + "SIMILARITY_THRESHOLD"); ok {
		threshold, err := utils.ParseThreshold(value)
		if err != nil {
			return fmt.Errorf("%sSIMILARITY_THRESHOLD: %w", envPrefix, err)
		}
		c.Clustering.SimilarityThreshold = threshold
	}

	intVars := map[string]*int{
		"TIME_RADIUS_DAYS":        &c.Clustering.TimeRadiusDays,
		"WORKER_COUNT":            &c.Ingest.WorkerCount,
		"BATCH_SIZE":              &c.Ingest.BatchSize,
		"ANALYZE_TIMEOUT_SECONDS": &c.Ingest.AnalyzeTimeoutSeconds,
	}
	for name, dst := range intVars {
		value, ok := os.LookupEnv(envPrefix + name)
		if !ok {
			continue
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s%s: invalid integer %q", envPrefix, name, value)
		}
		*dst = parsed
	}
	return nil
}

func (c *Config) normalize() error {
	var err error
	if strings.TrimSpace(c.Paths.Database) == "" {
		c.Paths.Database = utils.GetDefaultDatabasePath()
	}
	if c.Paths.Database, err = utils.ExpandPath(c.Paths.Database); err != nil {
		return fmt.Errorf("paths.database: %w", err)
	}
	if c.Paths.KeepersDir, err = utils.ExpandPath(c.Paths.KeepersDir); err != nil {
		return fmt.Errorf("paths.keepers_dir: %w", err)
	}
	if c.Paths.DiscardsDir, err = utils.ExpandPath(c.Paths.DiscardsDir); err != nil {
		return fmt.Errorf("paths.discards_dir: %w", err)
	}
	if c.Paths.LogFile, err = utils.ExpandPath(c.Paths.LogFile); err != nil {
		return fmt.Errorf("paths.log_file: %w", err)
	}

	c.Clustering.MissingTimestampPolicy = strings.ToLower(strings.TrimSpace(c.Clustering.MissingTimestampPolicy))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	return nil
}
