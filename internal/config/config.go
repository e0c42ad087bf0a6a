package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"policymetrics/internal/charts"
	"policymetrics/internal/common"
	"policymetrics/internal/dataset"
	"policymetrics/internal/policy"
	"policymetrics/internal/report"
	apperrors "policymetrics/pkg/errors"
	"policymetrics/pkg/models"
)

// EnvPrefix prefixes environment overrides, e.g. POLICYMETRICS_CHARTS_FORMAT
const EnvPrefix = "POLICYMETRICS"

// LocalFile is the project level config file looked up in the working directory
const LocalFile = "policymetrics.yaml"

func GetConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".policymetrics")
}

func GetConfigFile() string {
	return filepath.Join(GetConfigPath(), "config.yaml")
}

// Default returns the built-in configuration
func Default() *models.Config {
	return &models.Config{
		OutputDir:   ".",
		Columns:     policy.DefaultColumns(),
		Repairs:     dataset.DefaultRepairs(),
		DateColumns: dataset.DefaultDateColumns(),
		Charts: models.Charts{
			Enabled:  true,
			Format:   string(charts.FormatPNG),
			WidthIn:  14,
			HeightIn: 10,
			Prefix:   "policy-metrics",
		},
		Report: models.Report{
			Formats:  []string{},
			Basename: "policy-metrics",
		},
		Logging: models.Logging{
			Level:  "warn",
			Format: "text",
		},
	}
}

// NewViper returns a viper instance carrying the defaults and environment
// bindings. Command line flags are bound on top by the caller.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v, Default())
	return v
}

// SetDefaults registers every key of cfg as a viper default so that
// environment variables are picked up on Unmarshal
func SetDefaults(v *viper.Viper, cfg *models.Config) {
	v.SetDefault("input", cfg.Input)
	v.SetDefault("output_dir", cfg.OutputDir)
	v.SetDefault("coerce_invalid", cfg.CoerceInvalid)

	v.SetDefault("columns.policy_number", cfg.Columns.PolicyNumber)
	v.SetDefault("columns.product_name", cfg.Columns.ProductName)
	v.SetDefault("columns.sale_date", cfg.Columns.SaleDate)
	v.SetDefault("columns.cancel_date", cfg.Columns.CancelDate)
	v.SetDefault("columns.start_date", cfg.Columns.StartDate)
	v.SetDefault("columns.premium", cfg.Columns.Premium)
	v.SetDefault("columns.ipt_percent", cfg.Columns.IPTPercent)
	v.SetDefault("columns.commission_percent", cfg.Columns.CommissionPercent)
	v.SetDefault("columns.sum_insured", cfg.Columns.SumInsured)
	v.SetDefault("columns.first_name", cfg.Columns.FirstName)
	v.SetDefault("columns.last_name", cfg.Columns.LastName)

	v.SetDefault("repairs", cfg.Repairs)
	v.SetDefault("date_columns", cfg.DateColumns)

	v.SetDefault("charts.enabled", cfg.Charts.Enabled)
	v.SetDefault("charts.format", cfg.Charts.Format)
	v.SetDefault("charts.width_in", cfg.Charts.WidthIn)
	v.SetDefault("charts.height_in", cfg.Charts.HeightIn)
	v.SetDefault("charts.prefix", cfg.Charts.Prefix)

	v.SetDefault("report.formats", cfg.Report.Formats)
	v.SetDefault("report.basename", cfg.Report.Basename)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}

// ReadFile points v at the config file to use and reads it. An explicit
// path must exist; otherwise ./policymetrics.yaml and then the home config
// are tried, and having neither is not an error. The path read is returned.
func ReadFile(v *viper.Viper, explicit string) (string, error) {
	var path string
	if explicit != "" {
		cleaned, err := common.CleanPath(explicit)
		if err != nil {
			return "", apperrors.ConfigError(fmt.Sprintf("invalid config file path: %v", err), "config")
		}
		if _, err := os.Stat(cleaned); err != nil {
			return "", apperrors.New(apperrors.ErrCodeConfigNotFound, "config file not found").
				WithContext("path", cleaned).
				WithSuggestions("Run 'policymetrics config init --path " + explicit + "' to create it")
		}
		path = cleaned
	} else {
		for _, candidate := range []string{LocalFile, GetConfigFile()} {
			if Exists(candidate) {
				path = candidate
				break
			}
		}
		if path == "" {
			return "", nil
		}
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeConfigInvalid, "failed to read config file").
			WithContext("path", path)
	}
	return path, nil
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*models.Config, error) {
	var cfg models.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigInvalid, "failed to decode configuration")
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be caught by decoding alone
func Validate(cfg *models.Config) error {
	if _, err := charts.ParseFormat(cfg.Charts.Format); err != nil {
		return apperrors.ConfigError(fmt.Sprintf("invalid chart format %q", cfg.Charts.Format), "charts.format").
			WithSuggestions("Use one of: png, svg, pdf")
	}
	if cfg.Charts.WidthIn <= 0 || cfg.Charts.HeightIn <= 0 {
		return apperrors.ConfigError("chart width and height must be positive", "charts.width_in")
	}
	if _, err := report.ParseFormats(cfg.Report.Formats); err != nil {
		return apperrors.ConfigError(err.Error(), "report.formats").
			WithSuggestions("Use any of: json, yaml, csv, markdown, xlsx")
	}
	for i, r := range cfg.Repairs {
		if r.From == "" || r.To == "" {
			return apperrors.ConfigError(fmt.Sprintf("repair %d needs both from and to", i), "repairs")
		}
		if r.From == r.To {
			return apperrors.ConfigError(fmt.Sprintf("repair %d merges %q into itself", i, r.From), "repairs")
		}
	}
	for _, c := range cfg.DateColumns {
		if strings.TrimSpace(c) == "" {
			return apperrors.ConfigError("date column names cannot be empty", "date_columns")
		}
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "", "text", "json":
	default:
		return apperrors.ConfigError(fmt.Sprintf("invalid log format %q", cfg.Logging.Format), "logging.format").
			WithSuggestions("Use text or json")
	}
	switch strings.ToLower(cfg.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error", "off", "none", "disabled":
	default:
		return apperrors.ConfigError(fmt.Sprintf("invalid log level %q", cfg.Logging.Level), "logging.level").
			WithSuggestions("Use debug, info, warn, error or off")
	}
	return nil
}

// Save writes cfg as YAML to path, creating the directory if needed
func Save(path string, cfg *models.Config) error {
	if path == "" {
		path = GetConfigFile()
	}
	cleaned, err := common.CleanPath(path)
	if err != nil {
		return apperrors.ConfigError(fmt.Sprintf("invalid config file path: %v", err), "config")
	}

	if err := os.MkdirAll(filepath.Dir(cleaned), common.DirPermissionSecure); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeConfigWrite, "failed to create config directory").
			WithContext("path", cleaned)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeConfigWrite, "failed to marshal config")
	}

	if err := os.WriteFile(cleaned, data, common.FilePermissionSecure); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeConfigWrite, "failed to write config file").
			WithContext("path", cleaned)
	}

	return nil
}

func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
