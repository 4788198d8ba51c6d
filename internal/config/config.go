// =============================================================================
// Avisos Generator - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration files.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): global settings, loaded with viper.
//      An optional .env next to it is loaded first; AVISOS_* environment
//      variables override file values (blob.s3_bucket -> AVISOS_BLOB_S3_BUCKET).
//   2. Activity Configs (activities/*.yaml): per-activity column mapping and
//      transformation rules for the source exports.
//   3. Subject Profile (subject.yaml): the obligated subject.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "github.com/ginjaninja78/avisos/internal/errors"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "AVISOS"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for CSV and XLSX exports.
	// Default: "./input"
	InputDir string `mapstructure:"input_dir"`

	// OutputDir receives the generated XML documents.
	// Default: "./output"
	OutputDir string `mapstructure:"output_dir"`

	// InputArchiveDir receives exports after a successful generation.
	// Default: "./input_archive"
	InputArchiveDir string `mapstructure:"input_archive_dir"`

	// OutputArchiveDir receives copies of published documents.
	// Default: "./output_archive"
	OutputArchiveDir string `mapstructure:"output_archive_dir"`

	// ActivitiesDir contains one YAML file per activity export layout.
	// Default: "./activities"
	ActivitiesDir string `mapstructure:"activities_dir"`

	// SubjectProfile is the path of the obligated subject's profile.
	// Default: "./subject.yaml"
	SubjectProfile string `mapstructure:"subject_profile"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel: "debug", "info", "warn", "error". Default: "info"
	LogLevel string `mapstructure:"log_level"`

	// LogFormat: "json" or "console". Default: "console"
	LogFormat string `mapstructure:"log_format"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxRecordsPerCall caps the records of one generation. 0 disables it.
	// Default: 50000
	MaxRecordsPerCall int `mapstructure:"max_records_per_call"`

	// MaxConcurrency is the maximum number of files processed concurrently.
	// Default: 4
	MaxConcurrency int `mapstructure:"max_concurrency"`

	// ContinueOnError keeps processing other files when one fails.
	// Default: true
	ContinueOnError bool `mapstructure:"continue_on_error"`

	// ArchiveOnSuccess moves processed exports to InputArchiveDir.
	// Default: true
	ArchiveOnSuccess bool `mapstructure:"archive_on_success"`

	// ArchiveDateSubdirs files archived exports and avisos under YYYY/MM/DD.
	// Default: true
	ArchiveDateSubdirs bool `mapstructure:"archive_date_subdirs"`

	// OverwriteOutput allows replacing an existing document in OutputDir.
	// Default: false
	OverwriteOutput bool `mapstructure:"overwrite_output"`

	// GeneratedBy identifies the operator in the generation history.
	// Default: the USER environment variable
	GeneratedBy string `mapstructure:"generated_by"`

	// MetricsTextfile, when set, receives the run's metrics.
	MetricsTextfile string `mapstructure:"metrics_textfile"`

	// =========================================================================
	// DELIVERY SETTINGS
	// =========================================================================

	Blob    BlobConfig    `mapstructure:"blob"`
	History HistoryConfig `mapstructure:"history"`
}

// BlobConfig selects and configures the artifact store.
type BlobConfig struct {
	// Driver: "fs", "memory" or "s3". Default: "fs"
	Driver string `mapstructure:"driver"`

	// FSRoot is the root directory of the fs driver.
	// Default: "./published"
	FSRoot string `mapstructure:"fs_root"`

	// BaseURL prefixes retrieval references of the fs and memory drivers.
	BaseURL string `mapstructure:"base_url"`

	S3Bucket    string `mapstructure:"s3_bucket"`
	S3Region    string `mapstructure:"s3_region"`
	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3PathStyle bool   `mapstructure:"s3_path_style"`

	// PresignExpiry bounds retrieval references. Default: 15m
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// HistoryConfig selects the generation history store.
type HistoryConfig struct {
	// Driver: "sqlite", "postgres" or "none". Default: "sqlite"
	Driver string `mapstructure:"driver"`

	// DSN is the database file (sqlite) or connection string (postgres).
	// Default: "./avisos.db"
	DSN string `mapstructure:"dsn"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file. A missing file is
//     not an error; defaults and environment overrides still apply.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - A configuration error if the file cannot be parsed or is invalid.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	loadEnvFile(configPath)

	v := viper.New()
	applyMainConfigDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, "failed to read config file", err)
			}
		}
	}

	var config MainConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, "failed to parse config file", err)
	}

	if err := validateMainConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// loadEnvFile loads a .env file next to the configuration file, if any.
// Variables already present in the environment win.
func loadEnvFile(configPath string) {
	dir := "."
	if configPath != "" {
		dir = filepath.Dir(configPath)
	}
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err == nil {
		_ = godotenv.Load(path)
	}
}

// applyMainConfigDefaults registers the default of every key. Registering
// every key also lets AutomaticEnv resolve overrides during Unmarshal.
func applyMainConfigDefaults(v *viper.Viper) {
	v.SetDefault("input_dir", "./input")
	v.SetDefault("output_dir", "./output")
	v.SetDefault("input_archive_dir", "./input_archive")
	v.SetDefault("output_archive_dir", "./output_archive")
	v.SetDefault("activities_dir", "./activities")
	v.SetDefault("subject_profile", "./subject.yaml")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("max_records_per_call", 50000)
	v.SetDefault("max_concurrency", 4)
	v.SetDefault("continue_on_error", true)
	v.SetDefault("archive_on_success", true)
	v.SetDefault("archive_date_subdirs", true)
	v.SetDefault("overwrite_output", false)
	v.SetDefault("generated_by", os.Getenv("USER"))
	v.SetDefault("metrics_textfile", "")

	v.SetDefault("blob.driver", "fs")
	v.SetDefault("blob.fs_root", "./published")
	v.SetDefault("blob.base_url", "")
	v.SetDefault("blob.s3_bucket", "")
	v.SetDefault("blob.s3_region", "us-east-1")
	v.SetDefault("blob.s3_endpoint", "")
	v.SetDefault("blob.s3_path_style", false)
	v.SetDefault("blob.presign_expiry", "15m")

	v.SetDefault("history.driver", "sqlite")
	v.SetDefault("history.dsn", "./avisos.db")
}

// validateMainConfig validates the main configuration and creates missing
// working directories.
func validateMainConfig(config *MainConfig) error {
	invalid := func(format string, args ...interface{}) error {
		return apperrors.Newf(apperrors.ErrCodeInvalidConfig, format, args...)
	}

	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("unsupported log_level %q", config.LogLevel)
	}
	switch strings.ToLower(config.LogFormat) {
	case "json", "console":
	default:
		return invalid("unsupported log_format %q", config.LogFormat)
	}
	if config.MaxRecordsPerCall < 0 {
		return invalid("max_records_per_call must not be negative")
	}
	if config.MaxConcurrency < 1 {
		config.MaxConcurrency = 1
	}

	switch config.Blob.Driver {
	case "fs", "memory":
	case "s3":
		if config.Blob.S3Bucket == "" {
			return invalid("blob.s3_bucket is required for the s3 driver")
		}
	default:
		return invalid("unsupported blob.driver %q", config.Blob.Driver)
	}
	if config.Blob.PresignExpiry <= 0 {
		return invalid("blob.presign_expiry must be positive")
	}

	switch config.History.Driver {
	case "none":
	case "sqlite", "postgres":
		if config.History.DSN == "" {
			return invalid("history.dsn is required for the %s driver", config.History.Driver)
		}
	default:
		return invalid("unsupported history.driver %q", config.History.Driver)
	}

	dirs := []string{
		config.InputDir,
		config.OutputDir,
		config.ActivitiesDir,
	}
	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return apperrors.Wrap(apperrors.ErrCodeInvalidConfig, fmt.Sprintf("failed to create directory %s", dir), err)
			}
		}
	}

	return nil
}
