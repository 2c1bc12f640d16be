package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// CurrentVersion is the config schema version written by Save
const CurrentVersion = 1

// SupportedConfigVersions lists the schema versions LoadConfig accepts
var SupportedConfigVersions = []int{1}

// Config represents the semcheck tool configuration. Lint levels are not
// configured here; they come from the current version's manifest.
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Logging    LoggingConfig    `json:"logging" mapstructure:"logging"`
	Evaluation EvaluationConfig `json:"evaluation" mapstructure:"evaluation"`
	Witness    WitnessConfig    `json:"witness" mapstructure:"witness"`
	Output     OutputConfig     `json:"output" mapstructure:"output"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// EvaluationConfig contains rule evaluation settings
type EvaluationConfig struct {
	Workers       int `json:"workers" mapstructure:"workers"`
	RuleTimeoutMs int `json:"ruleTimeoutMs" mapstructure:"ruleTimeoutMs"`
}

// WitnessConfig contains witness synthesis settings
type WitnessConfig struct {
	Enabled     bool `json:"enabled" mapstructure:"enabled"`
	Workers     int  `json:"workers" mapstructure:"workers"`
	CheckSyntax bool `json:"checkSyntax" mapstructure:"checkSyntax"`
}

// OutputConfig contains report rendering settings
type OutputConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Color  bool   `json:"color" mapstructure:"color"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Logging: LoggingConfig{
			Format: "human",
			Level:  "warn",
		},
		Evaluation: EvaluationConfig{
			Workers:       0,
			RuleTimeoutMs: 30000,
		},
		Witness: WitnessConfig{
			Enabled:     true,
			Workers:     0,
			CheckSyntax: true,
		},
		Output: OutputConfig{
			Format: "human",
			Color:  true,
		},
	}
}

// RuleTimeout returns the per-rule budget as a duration
func (c *Config) RuleTimeout() time.Duration {
	return time.Duration(c.Evaluation.RuleTimeoutMs) * time.Millisecond
}

// envBinding maps a config key to its environment variable
type envBinding struct {
	Key    string
	EnvVar string
}

var envBindings = []envBinding{
	{"logging.format", "SEMCHECK_LOG_FORMAT"},
	{"logging.level", "SEMCHECK_LOG_LEVEL"},
	{"evaluation.workers", "SEMCHECK_WORKERS"},
	{"evaluation.ruleTimeoutMs", "SEMCHECK_RULE_TIMEOUT_MS"},
	{"witness.enabled", "SEMCHECK_WITNESS_ENABLED"},
	{"witness.workers", "SEMCHECK_WITNESS_WORKERS"},
	{"witness.checkSyntax", "SEMCHECK_WITNESS_CHECK_SYNTAX"},
	{"output.format", "SEMCHECK_OUTPUT_FORMAT"},
	{"output.color", "SEMCHECK_OUTPUT_COLOR"},
}

// ConfigPathEnv names an explicit config file, bypassing discovery
const ConfigPathEnv = "SEMCHECK_CONFIG_PATH"

// EnvOverride records a value taken from the environment
type EnvOverride struct {
	Key    string
	EnvVar string
	Value  string
}

// LoadResult is a loaded configuration with its provenance
type LoadResult struct {
	Config       *Config
	ConfigPath   string
	UsedDefaults bool
	EnvOverrides []EnvOverride
}

// GetSupportedEnvVars returns every environment variable LoadConfig reads
func GetSupportedEnvVars() []string {
	vars := []string{ConfigPathEnv}
	for _, b := range envBindings {
		vars = append(vars, b.EnvVar)
	}
	return vars
}

// LoadConfig loads configuration from .semcheck/config.json
func LoadConfig(repoRoot string) (*Config, error) {
	result, err := LoadConfigWithDetails(repoRoot)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// LoadConfigWithDetails loads configuration and reports where it came from.
// SEMCHECK_CONFIG_PATH names an explicit file; otherwise
// <repoRoot>/.semcheck/config.json is used when present. SEMCHECK_*
// variables override file values.
func LoadConfigWithDetails(repoRoot string) (*LoadResult, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if path := os.Getenv(ConfigPathEnv); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(filepath.Join(repoRoot, ".semcheck"))
	}

	result := &LoadResult{}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		result.UsedDefaults = true
	} else {
		result.ConfigPath = v.ConfigFileUsed()
	}

	for _, b := range envBindings {
		if err := v.BindEnv(b.Key, b.EnvVar); err != nil {
			return nil, fmt.Errorf("binding %s: %w", b.EnvVar, err)
		}
		if value, ok := os.LookupEnv(b.EnvVar); ok {
			result.EnvOverrides = append(result.EnvOverrides, EnvOverride{Key: b.Key, EnvVar: b.EnvVar, Value: value})
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	result.Config = &cfg
	return result, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("evaluation.workers", d.Evaluation.Workers)
	v.SetDefault("evaluation.ruleTimeoutMs", d.Evaluation.RuleTimeoutMs)
	v.SetDefault("witness.enabled", d.Witness.Enabled)
	v.SetDefault("witness.workers", d.Witness.Workers)
	v.SetDefault("witness.checkSyntax", d.Witness.CheckSyntax)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.color", d.Output.Color)
}

// Save writes the configuration to .semcheck/config.json
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, ".semcheck")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	supported := false
	for _, v := range SupportedConfigVersions {
		if c.Version == v {
			supported = true
		}
	}
	if !supported {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}
	if !oneOf(c.Logging.Format, "human", "json") {
		return &ConfigError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", c.Logging.Format)}
	}
	if !oneOf(c.Logging.Level, "debug", "info", "warn", "warning", "error") {
		return &ConfigError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}
	if c.Evaluation.Workers < 0 {
		return &ConfigError{Field: "evaluation.workers", Message: "must not be negative"}
	}
	if c.Evaluation.RuleTimeoutMs <= 0 {
		return &ConfigError{Field: "evaluation.ruleTimeoutMs", Message: "must be positive"}
	}
	if c.Witness.Workers < 0 {
		return &ConfigError{Field: "witness.workers", Message: "must not be negative"}
	}
	if !oneOf(c.Output.Format, "human", "json", "sarif") {
		return &ConfigError{Field: "output.format", Message: fmt.Sprintf("unknown format %q", c.Output.Format)}
	}
	return nil
}

func oneOf(s string, options ...string) bool {
	for _, o := range options {
		if strings.EqualFold(s, o) {
			return true
		}
	}
	return false
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
