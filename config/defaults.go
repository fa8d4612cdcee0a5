package config

import (
	"imagecurator/clustering"
	"imagecurator/signalhandler"
)

const (
	defaultConfigPath         = "~/.config/imagecurator/config.toml"
	projectConfigName         = "imagecurator.toml"
	defaultKeepersDir         = "~/Pictures/imagecurator/Keepers"
	defaultDiscardsDir        = "~/Pictures/imagecurator/Discards"
	defaultSimilarity         = 16
	defaultTimeRadiusDays     = 10
	defaultBatchSize          = 500
	defaultAnalyzeTimeoutSecs = 60
	defaultLogLevel           = "info"
	defaultLogFormat          = "console"
)

// Default returns a Config populated with repository defaults. The database
// path stays empty and is resolved next to the executable during Load.
func Default() Config {
	return Config{
		Paths: Paths{
			KeepersDir:  defaultKeepersDir,
			DiscardsDir: defaultDiscardsDir,
		},
		Clustering: Clustering{
			SimilarityThreshold:    defaultSimilarity,
			TimeRadiusDays:         defaultTimeRadiusDays,
			MissingTimestampPolicy: string(clustering.PolicyPermissive),
		},
		Scoring: Scoring{
			ResNormConstant:  clustering.DefaultResNormConstant,
			SaturationWeight: clustering.DefaultSaturationWeight,
		},
		Ingest: Ingest{
			WorkerCount:           signalhandler.GetOptimalProcs(),
			BatchSize:             defaultBatchSize,
			AnalyzeTimeoutSeconds: defaultAnalyzeTimeoutSecs,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
