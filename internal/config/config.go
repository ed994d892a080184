// Package config resolves the recipes runtime configuration from viper.
//
// Precedence follows viper: explicit flag, then GOURMAND_* environment
// variable, then the config file ($HOME/.gourmand.yaml or ./.gourmand.yaml),
// then the defaults registered by SetDefaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/corey/gourmand/internal/defaults"
	"github.com/corey/gourmand/internal/domain/prompts"
	"github.com/corey/gourmand/internal/ports"
)

// Keys shared by flags, env and the config file.
const (
	KeyAWSProfile        = "aws-profile"
	KeyRegion            = "region"
	KeyVerbose           = "verbose"
	KeyModel             = "model"
	KeyImageModel        = "image-model"
	KeyOutput            = "output"
	KeyPrompt            = "prompt"
	KeyPromptFile        = "prompt-file"
	KeyImages            = "images"
	KeyMaxTokens         = "max-tokens"
	KeyTemperature       = "temperature"
	KeyTopP              = "top-p"
	KeyRequestsPerMinute = "requests-per-minute"
	KeyDataDir           = "data-dir"
	KeyMetricsAddr       = "metrics-addr"
	KeyLogLevel          = "log-level"
	KeyLogFormat         = "log-format"
)

// EnvPrefix is the prefix for environment overrides (GOURMAND_MODEL, ...).
const EnvPrefix = "GOURMAND"

// EnvLogLevel is consulted when no log level is configured.
const EnvLogLevel = "LOG_LEVEL"

// Config is the resolved runtime configuration.
type Config struct {
	AWSProfile string `json:"aws_profile,omitempty" yaml:"aws_profile,omitempty"`
	Region     string `json:"region,omitempty" yaml:"region,omitempty"`
	Verbose    bool   `json:"verbose" yaml:"verbose"`

	Model      string `json:"model" yaml:"model"`
	ImageModel string `json:"image_model" yaml:"image_model"`
	Output     string `json:"output" yaml:"output"`

	Prompt     string `json:"prompt" yaml:"prompt"`
	PromptFile string `json:"prompt_file,omitempty" yaml:"prompt_file,omitempty"`

	Images      int      `json:"images" yaml:"images"`
	MaxTokens   *int32   `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	Temperature *float32 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	TopP        *float32 `json:"top_p,omitempty" yaml:"top_p,omitempty"`

	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute"`

	DataDir     string `json:"data_dir" yaml:"data_dir"`
	MetricsAddr string `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty"`

	LogLevel  string `json:"log_level" yaml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyModel, defaults.ChatModel)
	v.SetDefault(KeyImageModel, defaults.ImageModel)
	v.SetDefault(KeyOutput, ".")
	v.SetDefault(KeyPrompt, defaults.PromptName)
	v.SetDefault(KeyImages, defaults.ImageCount)
	v.SetDefault(KeyRequestsPerMinute, defaults.RequestsPerMinute)
	v.SetDefault(KeyDataDir, filepath.Join("~", ".gourmand"))
	v.SetDefault(KeyLogFormat, "text")
}

// BindEnv enables GOURMAND_* environment overrides on v.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load builds a Config from v and validates it.
// Sampling parameters are only set when explicitly configured, so that the
// model's own defaults apply otherwise.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AWSProfile:        v.GetString(KeyAWSProfile),
		Region:            v.GetString(KeyRegion),
		Verbose:           v.GetBool(KeyVerbose),
		Model:             strings.TrimSpace(v.GetString(KeyModel)),
		ImageModel:        strings.TrimSpace(v.GetString(KeyImageModel)),
		Output:            v.GetString(KeyOutput),
		Prompt:            strings.ToLower(strings.TrimSpace(v.GetString(KeyPrompt))),
		PromptFile:        v.GetString(KeyPromptFile),
		Images:            v.GetInt(KeyImages),
		RequestsPerMinute: v.GetInt(KeyRequestsPerMinute),
		DataDir:           v.GetString(KeyDataDir),
		MetricsAddr:       v.GetString(KeyMetricsAddr),
		LogLevel:          v.GetString(KeyLogLevel),
		LogFormat:         v.GetString(KeyLogFormat),
	}

	if isSet(v, KeyMaxTokens) {
		n, err := parseInt32(v, KeyMaxTokens)
		if err != nil {
			return nil, err
		}
		cfg.MaxTokens = &n
	}
	if isSet(v, KeyTemperature) {
		f, err := parseFloat32(v, KeyTemperature)
		if err != nil {
			return nil, err
		}
		cfg.Temperature = &f
	}
	if isSet(v, KeyTopP) {
		f, err := parseFloat32(v, KeyTopP)
		if err != nil {
			return nil, err
		}
		cfg.TopP = &f
	}

	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = os.Getenv(EnvLogLevel)
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// isSet reports whether key was given a non-default value. viper.IsSet is
// true for any bound flag, so an empty string counts as unset.
func isSet(v *viper.Viper, key string) bool {
	return v.IsSet(key) && strings.TrimSpace(v.GetString(key)) != ""
}

func parseInt32(v *viper.Viper, key string) (int32, error) {
	raw := strings.TrimSpace(v.GetString(key))
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, raw)
	}
	return int32(n), nil
}

func parseFloat32(v *viper.Viper, key string) (float32, error) {
	raw := strings.TrimSpace(v.GetString(key))
	f, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", key, raw)
	}
	return float32(f), nil
}

// Validate checks ranges and names.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("%s: must not be empty", KeyModel)
	}
	if c.Images < 0 || c.Images > defaults.MaxImageCount {
		return fmt.Errorf("%s: %d out of range [0,%d]", KeyImages, c.Images, defaults.MaxImageCount)
	}
	if c.Images > 0 && c.ImageModel == "" {
		return fmt.Errorf("%s: must not be empty when images are enabled", KeyImageModel)
	}
	if c.RequestsPerMinute < 1 {
		return fmt.Errorf("%s: must be at least 1, got %d", KeyRequestsPerMinute, c.RequestsPerMinute)
	}
	if c.MaxTokens != nil && *c.MaxTokens < 1 {
		return fmt.Errorf("%s: must be positive, got %d", KeyMaxTokens, *c.MaxTokens)
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 1) {
		return fmt.Errorf("%s: %v out of range [0,1]", KeyTemperature, *c.Temperature)
	}
	if c.TopP != nil && (*c.TopP <= 0 || *c.TopP > 1) {
		return fmt.Errorf("%s: %v out of range (0,1]", KeyTopP, *c.TopP)
	}
	if c.PromptFile == "" {
		if _, err := prompts.Builtin(c.Prompt); err != nil {
			return fmt.Errorf("%s: %w", KeyPrompt, err)
		}
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%s: %q, supported values: [text json]", KeyLogFormat, c.LogFormat)
	}
	return nil
}

// Inference returns the sampling parameters for Converse requests.
func (c *Config) Inference() ports.InferenceConfig {
	return ports.InferenceConfig{
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		TopP:        c.TopP,
	}
}
