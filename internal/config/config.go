// Package config holds the tunables shared by the masking commands. Values
// come from an optional YAML file; anything left unset takes its default.
package config

import (
	"os"
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-sdsmask/internal/errors"
)

// Config captures the runtime options of create_mask and mask_sds.
type Config struct {
	// MaxClauses bounds the number of clauses in one mask expression.
	MaxClauses int `yaml:"max_clauses"`

	// AggregationAttribute is the file attribute whose presence marks a
	// container as aggregated.
	AggregationAttribute string `yaml:"aggregation_attribute"`
	// PackedSuffix names the packed observation store of an aggregated dataset.
	PackedSuffix string `yaml:"packed_suffix"`
	// RowCountDataset holds the number of packed rows per grid row.
	RowCountDataset string `yaml:"row_count_dataset"`
	// ColCountDataset holds the number of observations per grid cell.
	ColCountDataset string `yaml:"col_count_dataset"`

	MaskDataset  string `yaml:"mask_dataset"`
	OnValue      *int   `yaml:"on_value"`
	OffValue     *int   `yaml:"off_value"`
	MaskFillByte *int   `yaml:"mask_fill_byte"`

	LogLevel string `yaml:"log_level"`
}

const (
	maxClausesDefault           = 32
	aggregationAttributeDefault = "NUMBER_OF_OVERLAP_GRANULES"
	packedSuffixDefault         = "_c"
	rowCountDatasetDefault      = "nadd_obs_row"
	colCountDatasetDefault      = "num_observations"
	maskDatasetDefault          = "Mask"
	onValueDefault              = 255
	offValueDefault             = 0
	maskFillByteDefault         = 254
	logLevelDefault             = "info"
)

// Default returns the configuration used when no file is given.
func Default() Config {
	return defaultConfig()
}

// Load reads path and fills unset keys with defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.WithStackTrace(err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and fills unset keys with defaults.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.WithStackTraceAndPrefix(err, "parsing config")
	}
	if err := mergo.Merge(&cfg, defaultConfig(), mergo.WithoutDereference); err != nil {
		return Config{}, errors.WithStackTrace(err)
	}
	normalizeConfig(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports keys holding values no run can use.
func (c Config) Validate() error {
	if c.MaxClauses < 1 {
		return errors.Errorf("max_clauses must be positive, got %d", c.MaxClauses)
	}
	if c.MaskDataset == "" {
		return errors.Errorf("mask_dataset must not be empty")
	}
	return nil
}

// On returns the configured ON byte.
func (c Config) On() int {
	if c.OnValue == nil {
		return onValueDefault
	}
	return *c.OnValue
}

// Off returns the configured OFF byte.
func (c Config) Off() int {
	if c.OffValue == nil {
		return offValueDefault
	}
	return *c.OffValue
}

// FillByte returns the configured byte for FILL pixels of a synthesized mask.
func (c Config) FillByte() int {
	if c.MaskFillByte == nil {
		return maskFillByteDefault
	}
	return *c.MaskFillByte
}

func normalizeConfig(cfg *Config) {
	cfg.AggregationAttribute = strings.TrimSpace(cfg.AggregationAttribute)
	cfg.PackedSuffix = strings.TrimSpace(cfg.PackedSuffix)
	cfg.RowCountDataset = strings.TrimSpace(cfg.RowCountDataset)
	cfg.ColCountDataset = strings.TrimSpace(cfg.ColCountDataset)
	cfg.MaskDataset = strings.TrimSpace(cfg.MaskDataset)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
}

func defaultConfig() Config {
	return Config{
		MaxClauses:           maxClausesDefault,
		AggregationAttribute: aggregationAttributeDefault,
		PackedSuffix:         packedSuffixDefault,
		RowCountDataset:      rowCountDatasetDefault,
		ColCountDataset:      colCountDatasetDefault,
		MaskDataset:          maskDatasetDefault,
		OnValue:              intPtr(onValueDefault),
		OffValue:             intPtr(offValueDefault),
		MaskFillByte:         intPtr(maskFillByteDefault),
		LogLevel:             logLevelDefault,
	}
}

func intPtr(v int) *int {
	return &v
}
