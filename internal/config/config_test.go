package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ginjaninja78/avisos/internal/errors"
	"github.com/ginjaninja78/avisos/internal/types"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// dirsYAML points every working directory into root.
func dirsYAML(root string) string {
	return "input_dir: " + filepath.Join(root, "in") + "\n" +
		"output_dir: " + filepath.Join(root, "out") + "\n" +
		"activities_dir: " + filepath.Join(root, "activities") + "\n"
}

func TestLoadMainConfig(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "config.yaml")
	writeFile(t, path, dirsYAML(root)+`
log_level: debug
log_format: json
max_records_per_call: 100
generated_by: cumplimiento
blob:
  driver: s3
  s3_bucket: avisos-prod
  presign_expiry: 5m
history:
  driver: postgres
  dsn: postgres://localhost/avisos
`)

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 100, cfg.MaxRecordsPerCall)
	assert.Equal(t, "cumplimiento", cfg.GeneratedBy)
	assert.Equal(t, "s3", cfg.Blob.Driver)
	assert.Equal(t, "avisos-prod", cfg.Blob.S3Bucket)
	assert.Equal(t, "us-east-1", cfg.Blob.S3Region)
	assert.Equal(t, 5*time.Minute, cfg.Blob.PresignExpiry)
	assert.Equal(t, "postgres", cfg.History.Driver)
	assert.True(t, cfg.ContinueOnError)
	assert.True(t, cfg.ArchiveDateSubdirs)
	assert.Equal(t, 4, cfg.MaxConcurrency)

	assert.DirExists(t, filepath.Join(root, "in"))
	assert.DirExists(t, filepath.Join(root, "out"))
	assert.DirExists(t, filepath.Join(root, "activities"))
}

func TestLoadMainConfig_Defaults(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "config.yaml")
	writeFile(t, path, dirsYAML(root))

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, 50000, cfg.MaxRecordsPerCall)
	assert.Equal(t, "fs", cfg.Blob.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Blob.PresignExpiry)
	assert.Equal(t, "sqlite", cfg.History.Driver)
	assert.Equal(t, "./avisos.db", cfg.History.DSN)
}

func TestLoadMainConfig_EnvOverrides(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "config.yaml")
	writeFile(t, path, dirsYAML(root)+"log_level: info\n")

	t.Setenv("AVISOS_LOG_LEVEL", "warn")
	t.Setenv("AVISOS_HISTORY_DRIVER", "none")

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "none", cfg.History.Driver)
}

func TestLoadMainConfig_DotEnv(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "config.yaml")
	writeFile(t, path, dirsYAML(root))
	writeFile(t, filepath.Join(root, ".env"), "AVISOS_METRICS_TEXTFILE=/var/lib/node_exporter/avisos.prom\n")
	t.Cleanup(func() { os.Unsetenv("AVISOS_METRICS_TEXTFILE") })

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/node_exporter/avisos.prom", cfg.MetricsTextfile)
}

func TestLoadMainConfig_MissingFileUsesDefaults(t *testing.T) {
	root := t.TempDir()
	t.Setenv("AVISOS_INPUT_DIR", filepath.Join(root, "in"))
	t.Setenv("AVISOS_OUTPUT_DIR", filepath.Join(root, "out"))
	t.Setenv("AVISOS_ACTIVITIES_DIR", filepath.Join(root, "activities"))

	cfg, err := LoadMainConfig(filepath.Join(root, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "in"), cfg.InputDir)
}

func TestLoadMainConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"log level", "log_level: loud\n"},
		{"log format", "log_format: xml\n"},
		{"negative limit", "max_records_per_call: -1\n"},
		{"blob driver", "blob:\n  driver: ftp\n"},
		{"s3 without bucket", "blob:\n  driver: s3\n"},
		{"history driver", "history:\n  driver: mongo\n"},
		{"malformed", "log_level: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			path := filepath.Join(root, "config.yaml")
			writeFile(t, path, dirsYAML(root)+tt.yaml)

			_, err := LoadMainConfig(path)
			require.Error(t, err)
			assert.True(t, apperrors.IsConfiguration(err))
		})
	}
}

func TestLoadActivityConfigs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "casino.yaml"), `
activity_type: JUEGOS_APUESTAS
name: Casino
file_matching_patterns: ["casino_*.csv", "*_JYS_*.xlsx"]
csv_settings:
  delimiter: "|"
  encoding: Windows-1252
column_mapping:
  counterparty_tax_id: RFC
  amount: Importe
transformation_rules:
  - field: Importe
    actions:
      - type: format_number
        value: "2"
static_fields:
  - field: currency
    value: 1-MXN
gaming_keywords:
  deposits: [fichas]
  withdrawals: [canje]
`)
	writeFile(t, filepath.Join(dir, "autos.yml"), "activity_type: vehiculos\nfile_matching_patterns: [\"autos_*\"]\n")

	configs, err := LoadActivityConfigs(dir)
	require.NoError(t, err)
	require.Len(t, configs, 2)

	casino := configs[types.ActivityGaming]
	require.NotNil(t, casino)
	assert.Equal(t, "Casino", casino.Name)
	assert.Equal(t, "|", casino.CSVSettings.Delimiter)
	assert.Equal(t, 1, casino.CSVSettings.HeaderRows)
	assert.Equal(t, 2, casino.CSVSettings.DataStartRow)
	assert.Equal(t, "Windows-1252", casino.CSVSettings.Encoding)
	assert.Equal(t, "RFC", casino.ColumnMapping["counterparty_tax_id"])
	require.Len(t, casino.TransformationRules, 1)
	assert.Equal(t, "format_number", casino.TransformationRules[0].Actions[0].Type)
	assert.Equal(t, []StaticField{{Field: "currency", Value: "1-MXN"}}, casino.StaticFields)
	require.NotNil(t, casino.GamingKeywords)
	assert.Equal(t, []string{"canje"}, casino.GamingKeywords.Withdrawals)

	autos := configs[types.ActivityVehicles]
	require.NotNil(t, autos)
	assert.Equal(t, "vehiculos", autos.Name)
	assert.Equal(t, ",", autos.CSVSettings.Delimiter)
	assert.Equal(t, "UTF-8", autos.CSVSettings.Encoding)
	assert.NotNil(t, autos.ColumnMapping)
}

func TestLoadActivityConfigs_Errors(t *testing.T) {
	t.Run("missing activity", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.yaml"), "name: nada\n")
		_, err := LoadActivityConfigs(dir)
		assert.True(t, apperrors.IsConfiguration(err))
	})

	t.Run("duplicate activity", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.yaml"), "activity_type: vehiculos\n")
		writeFile(t, filepath.Join(dir, "b.yaml"), "activity_type: VEHICULOS\n")
		_, err := LoadActivityConfigs(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configured twice")
	})

	t.Run("malformed", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.yaml"), "activity_type: [\n")
		_, err := LoadActivityConfigs(dir)
		assert.True(t, apperrors.IsConfiguration(err))
	})
}

func TestFindActivityForFile(t *testing.T) {
	configs := map[types.ActivityType]*ActivityConfig{
		types.ActivityGaming:   {ActivityType: types.ActivityGaming, FileMatchingPatterns: []string{"casino_*.csv", "["}},
		types.ActivityVehicles: {ActivityType: types.ActivityVehicles, FileMatchingPatterns: []string{"autos_*"}},
	}

	assert.Equal(t, types.ActivityGaming, FindActivityForFile("/in/casino_202403.csv", configs).ActivityType)
	assert.Equal(t, types.ActivityVehicles, FindActivityForFile("autos_marzo.xlsx", configs).ActivityType)
	assert.Nil(t, FindActivityForFile("otros.csv", configs))
}

func TestLoadSubjectProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subject.yaml")
	writeFile(t, path, "rfc: AAA010101AAA\ndenominacion_razon: Autos del Norte\nclave_sujeto_obligado: \"000123\"\n")

	subject, err := LoadSubjectProfile(path)
	require.NoError(t, err)
	assert.Equal(t, types.SubjectProfile{TaxID: "AAA010101AAA", LegalName: "Autos del Norte", ObligorKey: "000123"}, subject)

	_, err = LoadSubjectProfile(filepath.Join(dir, "missing.yaml"))
	assert.True(t, apperrors.IsDependency(err))
	assert.Equal(t, apperrors.ErrCodeSubjectNotFound, apperrors.CodeOf(err))

	empty := filepath.Join(dir, "empty.yaml")
	writeFile(t, empty, "denominacion_razon: Sin RFC\n")
	_, err = LoadSubjectProfile(empty)
	assert.Equal(t, apperrors.ErrCodeSubjectNotFound, apperrors.CodeOf(err))
}
