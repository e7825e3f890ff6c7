package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const DefaultConfigFile = "config.yaml"

// Upper bounds on request-controlled work when the config leaves them unset
const (
	DefaultMaxSteps   = 5000
	DefaultMaxSamples = 10001
)

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// AlpacaConfig represents Alpaca API configuration
type AlpacaConfig struct {
	APIKey    string `yaml:"api_key"`
	SecretKey string `yaml:"secret_key"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
	// RateLimitMS is the minimum spacing between requests
	RateLimitMS int `yaml:"rate_limit_ms"`
}

// TreasuryConfig selects where risk-free yields come from. A non-empty
// StaticCurve (tenor label to decimal yield) takes precedence over the download.
type TreasuryConfig struct {
	CSVURL      string             `yaml:"csv_url"`
	RedisAddr   string             `yaml:"redis_addr"`
	CacheTTL    time.Duration      `yaml:"cache_ttl"`
	StaticCurve map[string]float64 `yaml:"static_curve"`
	TimeoutSecs int                `yaml:"timeout_seconds"`
}

// DefaultsConfig fills request fields the caller leaves empty. MaxSteps and
// MaxSamples bound what a caller may ask for.
type DefaultsConfig struct {
	Offset        float64 `yaml:"offset"`
	Steps         int     `yaml:"steps"`
	ExerciseStyle string  `yaml:"exercise_style"`
	Samples       int     `yaml:"samples"`
	RangeMultiple float64 `yaml:"range_multiple"`
	PremiumSource string  `yaml:"premium_source"`
	MaxSteps      int     `yaml:"max_steps"`
	MaxSamples    int     `yaml:"max_samples"`
}

type Config struct {
	// Server settings
	Port string `yaml:"port"`

	// Provider is "alpaca" or "snapshot"
	Provider     string `yaml:"provider"`
	SnapshotFile string `yaml:"snapshot_file"`

	Alpaca   AlpacaConfig   `yaml:"alpaca"`
	Treasury TreasuryConfig `yaml:"treasury"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Logging  LoggingConfig  `yaml:"logging"`
}

func defaults() *Config {
	return &Config{
		Port:     "8080",
		Provider: "alpaca",
		Alpaca: AlpacaConfig{
			BaseURL:     "https://api.alpaca.markets",
			DataURL:     "https://data.alpaca.markets",
			RateLimitMS: 350,
		},
		Treasury: TreasuryConfig{
			CacheTTL:    6 * time.Hour,
			TimeoutSecs: 30,
		},
		Defaults: DefaultsConfig{
			Offset:        0.1,
			Steps:         100,
			ExerciseStyle: "european",
			Samples:       201,
			RangeMultiple: 3,
			PremiumSource: "closed_form",
			MaxSteps:      DefaultMaxSteps,
			MaxSamples:    DefaultMaxSamples,
		},
		Logging: LoggingConfig{
			LogLevel: "info",
			LogFile:  "optionlab.log",
		},
	}
}

// Load reads the file named by OPTIONLAB_CONFIG (config.yaml by default)
func Load() (*Config, error) {
	return LoadFile(getEnv("OPTIONLAB_CONFIG", DefaultConfigFile))
}

// LoadFile layers defaults, the YAML file at path and the environment, in that
// order. A missing file is not an error; a malformed one is.
func LoadFile(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", path)
		}
	case !os.IsNotExist(err):
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.Provider = getEnv("OPTIONLAB_PROVIDER", c.Provider)
	c.SnapshotFile = getEnv("SNAPSHOT_FILE", c.SnapshotFile)

	c.Alpaca.APIKey = getEnv("ALPACA_API_KEY", c.Alpaca.APIKey)
	c.Alpaca.SecretKey = getEnv("ALPACA_SECRET_KEY", c.Alpaca.SecretKey)
	c.Alpaca.BaseURL = getEnv("ALPACA_BASE_URL", c.Alpaca.BaseURL)
	c.Alpaca.DataURL = getEnv("ALPACA_DATA_URL", c.Alpaca.DataURL)
	c.Alpaca.RateLimitMS = getEnvInt("ALPACA_RATE_LIMIT_MS", c.Alpaca.RateLimitMS)

	c.Treasury.CSVURL = getEnv("TREASURY_CSV_URL", c.Treasury.CSVURL)
	c.Treasury.RedisAddr = getEnv("REDIS_ADDR", c.Treasury.RedisAddr)
	c.Treasury.CacheTTL = getEnvDuration("TREASURY_CACHE_TTL", c.Treasury.CacheTTL)

	c.Defaults.Offset = getEnvFloat("DEFAULT_OFFSET", c.Defaults.Offset)
	c.Defaults.Steps = getEnvInt("DEFAULT_STEPS", c.Defaults.Steps)
	c.Defaults.ExerciseStyle = getEnv("DEFAULT_EXERCISE_STYLE", c.Defaults.ExerciseStyle)
	c.Defaults.Samples = getEnvInt("DEFAULT_SAMPLES", c.Defaults.Samples)
	c.Defaults.RangeMultiple = getEnvFloat("DEFAULT_RANGE_MULTIPLE", c.Defaults.RangeMultiple)
	c.Defaults.PremiumSource = getEnv("DEFAULT_PREMIUM_SOURCE", c.Defaults.PremiumSource)
	c.Defaults.MaxSteps = getEnvInt("MAX_STEPS", c.Defaults.MaxSteps)
	c.Defaults.MaxSamples = getEnvInt("MAX_SAMPLES", c.Defaults.MaxSamples)

	c.Logging.LogLevel = getEnv("LOG_LEVEL", c.Logging.LogLevel)
	c.Logging.LogFile = getEnv("LOG_FILE", c.Logging.LogFile)
}

// Validate rejects settings no request could succeed with
func (c *Config) Validate() error {
	switch strings.ToLower(c.Provider) {
	case "alpaca":
	case "snapshot":
		if c.SnapshotFile == "" {
			return errors.New("provider snapshot needs snapshot_file")
		}
	default:
		return errors.Errorf("unknown provider %q: want alpaca or snapshot", c.Provider)
	}
	if c.Defaults.Offset <= 0 || c.Defaults.Offset >= 1 {
		return errors.Errorf("defaults.offset %v must lie strictly between 0 and 1", c.Defaults.Offset)
	}
	if c.Defaults.Steps < 1 {
		return errors.Errorf("defaults.steps %d must be at least 1", c.Defaults.Steps)
	}
	if c.Defaults.Steps > c.Defaults.MaxSteps {
		return errors.Errorf("defaults.steps %d exceeds defaults.max_steps %d", c.Defaults.Steps, c.Defaults.MaxSteps)
	}
	if c.Defaults.Samples < 2 {
		return errors.Errorf("defaults.samples %d must be at least 2", c.Defaults.Samples)
	}
	if c.Defaults.Samples > c.Defaults.MaxSamples {
		return errors.Errorf("defaults.samples %d exceeds defaults.max_samples %d", c.Defaults.Samples, c.Defaults.MaxSamples)
	}
	if c.Defaults.RangeMultiple <= 0 {
		return errors.Errorf("defaults.range_multiple %v must be positive", c.Defaults.RangeMultiple)
	}
	return nil
}

// HasAlpacaCredentials reports whether both keys are set to something other
// than the placeholder values shipped in the sample config
func (c *Config) HasAlpacaCredentials() bool {
	return c.Alpaca.APIKey != "" && c.Alpaca.APIKey != "YOUR_ALPACA_API_KEY" &&
		c.Alpaca.SecretKey != "" && c.Alpaca.SecretKey != "YOUR_ALPACA_SECRET_KEY"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
