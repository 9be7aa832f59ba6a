package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Analytics AnalyticsConfig `yaml:"analytics" envconfig:"ANALYTICS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RunTimeout      time.Duration `yaml:"run_timeout" envconfig:"RUN_TIMEOUT" default:"30m"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// PathsConfig contains file system paths for raw extracts and derived output
type PathsConfig struct {
	DataDir         string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	RetailExtract   string `yaml:"retail_extract" envconfig:"RETAIL_EXTRACT" default:"data/datasets/retail_sales.csv"`
	UsersCSV        string `yaml:"users_csv" envconfig:"USERS_CSV" default:"data/datasets/users.csv"`
	TransactionsCSV string `yaml:"transactions_csv" envconfig:"TRANSACTIONS_CSV" default:"data/datasets/transactions.csv"`
	ActivitiesCSV   string `yaml:"activities_csv" envconfig:"ACTIVITIES_CSV" default:"data/datasets/user_activities.csv"`
	OutputDir       string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"data/output"`
}

// Load loads configuration from environment variables and an optional YAML
// config file. Environment variables win over file values.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("RETAILSIGHT", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	configFile := configFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileCfg, cfg)
	}

	if cfg.Analytics.isZero() {
		cfg.Analytics = DefaultAnalyticsConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// configFilePath returns the config file location, overridable via env.
func configFilePath() string {
	if path := os.Getenv("RETAILSIGHT_CONFIG_FILE"); path != "" {
		return path
	}
	return "config.yaml"
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeConfigs overlays env-derived values on top of file values. A section
// that is still at its zero state defers to the file.
func mergeConfigs(file, env Config) Config {
	merged := file

	if env.Server.Port != 0 {
		merged.Server = env.Server
	}
	if env.Logging.Level != "" {
		merged.Logging = env.Logging
	}
	if env.Paths.DataDir != "" {
		merged.Paths = env.Paths
	}
	if len(env.Security.AllowedOrigins) > 0 {
		merged.Security = env.Security
	}
	if !env.Analytics.isZero() {
		merged.Analytics = env.Analytics
	}

	return merged
}

// Validate checks the configuration for structural and range errors.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if err := c.Analytics.Validate(); err != nil {
		return fmt.Errorf("analytics config: %w", err)
	}
	return nil
}
