package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	apperrors "policymetrics/pkg/errors"
	"policymetrics/pkg/models"
)

func TestGetConfigPath(t *testing.T) {
	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".policymetrics")
	assert.Equal(t, expected, GetConfigPath())
	assert.Equal(t, filepath.Join(expected, "config.yaml"), GetConfigFile())
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, "commission_SERL_percent", cfg.Columns.CommissionPercent)
	assert.Equal(t, []string{"sale_date", "cancel_date", "start_date"}, cfg.DateColumns)
	assert.Len(t, cfg.Repairs, 3)
	assert.Equal(t, "png", cfg.Charts.Format)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(NewViper())
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Columns, cfg.Columns)
	assert.Equal(t, def.Repairs, cfg.Repairs)
	assert.Equal(t, def.DateColumns, cfg.DateColumns)
	assert.Equal(t, def.Charts, cfg.Charts)
	assert.Equal(t, def.Logging, cfg.Logging)
	assert.Equal(t, ".", cfg.OutputDir)
	assert.Empty(t, cfg.Report.Formats)
	assert.False(t, cfg.CoerceInvalid)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "policymetrics.yaml")

	saved := Default()
	saved.Input = "policies.json"
	saved.Charts.Format = "svg"
	saved.Report.Formats = []string{"json", "xlsx"}
	saved.Repairs = []models.ColumnRepair{{From: "premum", To: "premium"}}

	require.NoError(t, Save(path, saved))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Contains(t, raw, "charts")

	v := NewViper()
	used, err := ReadFile(v, path)
	require.NoError(t, err)
	assert.Equal(t, path, used)

	loaded, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "policies.json", loaded.Input)
	assert.Equal(t, "svg", loaded.Charts.Format)
	assert.Equal(t, []string{"json", "xlsx"}, loaded.Report.Formats)
	assert.Equal(t, []models.ColumnRepair{{From: "premum", To: "premium"}}, loaded.Repairs)
	assert.Equal(t, saved.Columns, loaded.Columns)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("charts:\n  format: pdf\ncolumns:\n  premium: gross_premium\n"), 0600))

	v := NewViper()
	_, err := ReadFile(v, path)
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "pdf", cfg.Charts.Format)
	assert.Equal(t, 14.0, cfg.Charts.WidthIn)
	assert.Equal(t, "gross_premium", cfg.Columns.Premium)
	assert.Equal(t, "policy_number", cfg.Columns.PolicyNumber)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("POLICYMETRICS_CHARTS_FORMAT", "svg")
	t.Setenv("POLICYMETRICS_COERCE_INVALID", "true")
	t.Setenv("POLICYMETRICS_REPORT_FORMATS", "json,csv")

	cfg, err := Load(NewViper())
	require.NoError(t, err)
	assert.Equal(t, "svg", cfg.Charts.Format)
	assert.True(t, cfg.CoerceInvalid)
	assert.Equal(t, []string{"json", "csv"}, cfg.Report.Formats)
}

func TestReadFileSearch(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	// nothing to find is fine
	used, err := ReadFile(NewViper(), "")
	require.NoError(t, err)
	assert.Empty(t, used)

	// the home config is used when there is no local file
	require.NoError(t, Save("", Default()))
	used, err = ReadFile(NewViper(), "")
	require.NoError(t, err)
	assert.Equal(t, GetConfigFile(), used)

	// a local file wins
	require.NoError(t, os.WriteFile(LocalFile, []byte("output_dir: out\n"), 0600))
	v := NewViper()
	used, err = ReadFile(v, "")
	require.NoError(t, err)
	assert.Equal(t, LocalFile, used)
	assert.Equal(t, "out", v.GetString("output_dir"))
}

func TestReadFileExplicitMissing(t *testing.T) {
	_, err := ReadFile(NewViper(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeConfigNotFound, apperrors.GetErrorCode(err))
}

func TestReadFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("charts: [unclosed\n"), 0600))

	_, err := ReadFile(NewViper(), path)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeConfigInvalid, apperrors.GetErrorCode(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*models.Config)
		field  string
	}{
		{"chart format", func(c *models.Config) { c.Charts.Format = "gif" }, "charts.format"},
		{"chart size", func(c *models.Config) { c.Charts.HeightIn = 0 }, "charts.width_in"},
		{"report format", func(c *models.Config) { c.Report.Formats = []string{"html"} }, "report.formats"},
		{"repair target", func(c *models.Config) { c.Repairs = []models.ColumnRepair{{From: "a"}} }, "repairs"},
		{"repair itself", func(c *models.Config) { c.Repairs = []models.ColumnRepair{{From: "a", To: "a"}} }, "repairs"},
		{"date column", func(c *models.Config) { c.DateColumns = []string{" "} }, "date_columns"},
		{"log format", func(c *models.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *models.Config) { c.Logging.Level = "loud" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeConfigInvalid, apperrors.GetErrorCode(err))

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.field, appErr.Context["field"])
		})
	}
}

func TestSaveWithInvalidPath(t *testing.T) {
	err := Save("../escape.yaml", Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config file path")
}
