// Package config loads tpm-algtest options from flags, environment and an
// optional yaml file.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-tpm/tpm2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/stiankri/tpm-algtest/benchmark"
)

const (
	EnvPrefix = "TPM_ALGTEST"
	FileName  = "tpm-algtest"
)

type Config struct {
	Algorithm   string `mapstructure:"algorithm" yaml:"algorithm"`
	Repetitions int    `mapstructure:"repetitions" yaml:"repetitions"`
	KeyLen      int    `mapstructure:"keylen" yaml:"keylen"`
	CurveID     string `mapstructure:"curveid" yaml:"curveid"`
	// Duration is the overall budget in seconds, 0 for none.
	Duration  int    `mapstructure:"duration" yaml:"duration"`
	NoExport  bool   `mapstructure:"no-export" yaml:"no-export"`
	OutputDir string `mapstructure:"output-dir" yaml:"output-dir"`
	Prefix    string `mapstructure:"prefix" yaml:"prefix"`
	TPM       string `mapstructure:"tpm" yaml:"tpm"`
	Parent    string `mapstructure:"parent" yaml:"parent"`
	Progress  bool   `mapstructure:"progress" yaml:"progress"`
	Debug     bool   `mapstructure:"debug" yaml:"debug"`
}

// SetDefaults registers every key so that environment variables are picked up
// by Unmarshal even when no flag or file mentions them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("algorithm", "all")
	v.SetDefault("repetitions", benchmark.DefaultRepetitions)
	v.SetDefault("keylen", 0)
	v.SetDefault("curveid", "")
	v.SetDefault("duration", 0)
	v.SetDefault("no-export", false)
	v.SetDefault("output-dir", "out")
	v.SetDefault("prefix", benchmark.DefaultPrefix)
	v.SetDefault("tpm", "")
	v.SetDefault("parent", "rsa")
	v.SetDefault("progress", false)
	v.SetDefault("debug", false)
}

// Load merges configDir/tpm-algtest.yaml (if any) and TPM_ALGTEST_* variables
// into v and returns the validated result.
func Load(v *viper.Viper, configDir string) (*Config, error) {
	SetDefaults(v)

	if configDir != "" {
		v.AddConfigPath(configDir)
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed reading config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks option ranges. The algorithm selector is checked by the
// sweep itself.
func (c *Config) Validate() error {
	if c.Repetitions < 1 {
		return fmt.Errorf("repetitions must be at least 1, got %d", c.Repetitions)
	}
	if c.KeyLen < 0 || c.KeyLen > 0xffff {
		return fmt.Errorf("keylen out of range: %d", c.KeyLen)
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %d", c.Duration)
	}
	if _, err := c.curve(); err != nil {
		return err
	}
	if _, err := c.parent(); err != nil {
		return err
	}
	return nil
}

func (c *Config) curve() (*tpm2.TPMECCCurve, error) {
	if c.CurveID == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(c.CurveID, 0, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid curveid '%s': %w", c.CurveID, err)
	}
	curve := tpm2.TPMECCCurve(v)
	return &curve, nil
}

func (c *Config) parent() (tpm2.TPMAlgID, error) {
	switch strings.ToLower(c.Parent) {
	case "rsa":
		return tpm2.TPMAlgRSA, nil
	case "ecc":
		return tpm2.TPMAlgECC, nil
	}
	return 0, fmt.Errorf("unsupported parent '%s', expected 'rsa' or 'ecc'", c.Parent)
}

// Options converts the configuration into sweep options.
func (c *Config) Options() (benchmark.Options, error) {
	opts := benchmark.DefaultOptions()

	curve, err := c.curve()
	if err != nil {
		return opts, err
	}
	parent, err := c.parent()
	if err != nil {
		return opts, err
	}

	opts.Params.KeyLen = c.KeyLen
	opts.Params.Curve = curve
	opts.Repetitions = c.Repetitions
	opts.Budget = time.Duration(c.Duration) * time.Second
	opts.Export = !c.NoExport
	opts.OutputDir = c.OutputDir
	opts.Prefix = c.Prefix
	opts.Parent = parent
	opts.Progress = c.Progress
	return opts, nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() string {
	out, err := yaml.Marshal(c)
	if err != nil {
		return err.Error()
	}
	return string(out)
}
