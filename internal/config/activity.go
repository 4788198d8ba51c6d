package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	apperrors "github.com/ginjaninja78/avisos/internal/errors"
	"github.com/ginjaninja78/avisos/internal/types"
)

// =============================================================================
// ACTIVITY CONFIGURATION STRUCTURE
// =============================================================================

// ActivityConfig describes how one activity's source exports are read.
// Each file in the activities directory holds one ActivityConfig.
type ActivityConfig struct {
	// ActivityType is the registry key this export feeds.
	ActivityType types.ActivityType `yaml:"activity_type"`

	// Name is the human-readable name used in logs and summaries.
	Name string `yaml:"name"`

	// FileMatchingPatterns is a list of glob patterns matched against the
	// input file name.
	// Examples:
	//   - "inmuebles_*.csv"
	//   - "*_JYS_*.xlsx"
	FileMatchingPatterns []string `yaml:"file_matching_patterns"`

	// CSVSettings contains settings for parsing CSV exports.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// SheetName selects the worksheet of XLSX exports. Empty means the
	// first sheet.
	SheetName string `yaml:"sheet_name"`

	// ColumnMapping maps record fields to source column headers.
	// Example:
	//   column_mapping:
	//     counterparty_tax_id: "RFC Cliente"
	//     amount: "Importe"
	ColumnMapping map[string]string `yaml:"column_mapping"`

	// TransformationRules are applied to source columns before mapping.
	TransformationRules []TransformationRule `yaml:"transformation_rules"`

	// StaticFields set record fields to constant values when the source
	// leaves them blank.
	StaticFields []StaticField `yaml:"static_fields"`

	// GamingKeywords overrides the deposit/withdrawal split keywords.
	GamingKeywords *KeywordConfig `yaml:"gaming_keywords,omitempty"`

	// Source is the file the configuration was loaded from.
	Source string `yaml:"-"`
}

// CSVSettings contains settings for parsing CSV files.
type CSVSettings struct {
	// Delimiter separates fields. Common values: ",", "|", "\t", ";"
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of header rows. Multi-row headers are
	// joined with a space.
	// Default: 1
	HeaderRows int `yaml:"header_rows"`

	// DataStartRow is the 1-based row where data begins.
	// Default: HeaderRows + 1
	DataStartRow int `yaml:"data_start_row"`

	// Encoding: "UTF-8", "Windows-1252" or "ISO-8859-1".
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`
}

// TransformationRule defines transformations for one source column.
type TransformationRule struct {
	// Field is the source column header.
	Field string `yaml:"field"`

	// Actions are applied in order.
	Actions []TransformationAction `yaml:"actions"`
}

// TransformationAction defines a single transformation action.
type TransformationAction struct {
	// Type is the transformation to apply. Supported types:
	//   - "prepend_string", "append_string"
	//   - "pad_zeros_to_length", "ensure_length", "truncate", "substring"
	//   - "uppercase", "lowercase", "trim", "normalize_whitespace"
	//   - "replace", "regex_replace", "remove_characters", "extract_digits"
	//   - "format_date" (value "input|output" layouts)
	//   - "format_number" (value = decimal places)
	//   - "lookup", "lookup_with_default"
	//   - "if_empty_use_default", "if_empty_use_field"
	Type string `yaml:"type"`

	// Value is the parameter of the transformation.
	Value string `yaml:"value"`

	// Find is the substring or pattern for "replace" and "regex_replace".
	Find string `yaml:"find,omitempty"`

	// LookupTable maps input values to output values.
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// StaticField defines a record field with a constant value.
type StaticField struct {
	// Field is the record field name (see the ingest package).
	Field string `yaml:"field"`

	// Value is the constant value for this field.
	Value string `yaml:"value"`
}

// KeywordConfig lists the operation-type keywords of gaming reports.
type KeywordConfig struct {
	Deposits    []string `yaml:"deposits"`
	Withdrawals []string `yaml:"withdrawals"`
}

// =============================================================================
// ACTIVITY CONFIGURATION LOADING
// =============================================================================

// LoadActivityConfigs loads all activity configurations from a directory.
//
// RETURNS:
//   - The configurations keyed by normalized activity type.
//   - A configuration error if a file cannot be parsed, names no activity,
//     or repeats an activity already loaded.
func LoadActivityConfigs(dir string) (map[types.ActivityType]*ActivityConfig, error) {
	configs := make(map[types.ActivityType]*ActivityConfig)

	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list activity configs: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list activity configs: %w", err)
	}
	files = append(files, ymlFiles...)
	sort.Strings(files)

	for _, file := range files {
		cfg, err := LoadActivityConfig(file)
		if err != nil {
			return nil, err
		}
		if prev, exists := configs[cfg.ActivityType]; exists {
			return nil, apperrors.Newf(apperrors.ErrCodeInvalidConfig,
				"activity %q configured twice (%s, %s)", cfg.ActivityType, prev.Source, file)
		}
		configs[cfg.ActivityType] = cfg
	}

	return configs, nil
}

// LoadActivityConfig loads a single activity configuration file.
func LoadActivityConfig(filePath string) (*ActivityConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, fmt.Sprintf("failed to read %s", filePath), err)
	}

	var cfg ActivityConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, fmt.Sprintf("failed to parse %s", filePath), err)
	}

	cfg.ActivityType = cfg.ActivityType.Normalize()
	if cfg.ActivityType == "" {
		return nil, apperrors.Newf(apperrors.ErrCodeInvalidConfig, "%s: activity_type is required", filePath)
	}
	cfg.Source = filePath

	applyActivityConfigDefaults(&cfg)
	return &cfg, nil
}

// applyActivityConfigDefaults sets default values for an activity configuration.
func applyActivityConfigDefaults(cfg *ActivityConfig) {
	if cfg.Name == "" {
		cfg.Name = string(cfg.ActivityType)
	}
	if cfg.CSVSettings.Delimiter == "" {
		cfg.CSVSettings.Delimiter = ","
	}
	if cfg.CSVSettings.HeaderRows == 0 {
		cfg.CSVSettings.HeaderRows = 1
	}
	if cfg.CSVSettings.DataStartRow == 0 {
		cfg.CSVSettings.DataStartRow = cfg.CSVSettings.HeaderRows + 1
	}
	if cfg.CSVSettings.Encoding == "" {
		cfg.CSVSettings.Encoding = "UTF-8"
	}
	if cfg.ColumnMapping == nil {
		cfg.ColumnMapping = make(map[string]string)
	}
}

// FindActivityForFile returns the configuration whose file matching patterns
// match the base name of filePath, or nil.
//
// MATCHING LOGIC:
//   Configurations are tried in activity order so that overlapping patterns
//   resolve the same way on every run. Invalid patterns are skipped.
func FindActivityForFile(filePath string, configs map[types.ActivityType]*ActivityConfig) *ActivityConfig {
	fileName := filepath.Base(filePath)

	keys := make([]string, 0, len(configs))
	for k := range configs {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	for _, k := range keys {
		cfg := configs[types.ActivityType(k)]
		for _, pattern := range cfg.FileMatchingPatterns {
			matched, err := filepath.Match(pattern, fileName)
			if err != nil {
				continue
			}
			if matched {
				return cfg
			}
		}
	}
	return nil
}
