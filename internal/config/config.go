package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	Verifier VerifierConfig `yaml:"verifier"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port               int      `yaml:"port"`
	Host               string   `yaml:"host"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	// Allow override via environment
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// RedisConfig holds the job store connection settings. URL accepts either a
// redis:// URL or a bare host:port address.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// DatabaseConfig holds the Postgres connection settings for job history.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// VerifierConfig holds the verification engine settings.
type VerifierConfig struct {
	SenderDomain        string `yaml:"sender_domain"`
	ProbeTimeoutSeconds int    `yaml:"probe_timeout_seconds"`
	DNSTimeoutSeconds   int    `yaml:"dns_timeout_seconds"`
	MaxUploadMB         int    `yaml:"max_upload_mb"`
	JobTTLMinutes       int    `yaml:"job_ttl_minutes"`
}

// ProbeTimeout returns the generic probe timeout as a duration
func (c VerifierConfig) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

// DNSTimeout returns the per-lookup DNS timeout as a duration
func (c VerifierConfig) DNSTimeout() time.Duration {
	return time.Duration(c.DNSTimeoutSeconds) * time.Second
}

// JobTTL returns how long bulk job state is kept in Redis
func (c VerifierConfig) JobTTL() time.Duration {
	return time.Duration(c.JobTTLMinutes) * time.Minute
}

// MaxUploadBytes returns the bulk upload size cap in bytes
func (c VerifierConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns a configuration with all defaults applied and no file read.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.CORSAllowedOrigins) == 0 {
		cfg.Server.CORSAllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if cfg.Verifier.SenderDomain == "" {
		cfg.Verifier.SenderDomain = "example.com"
	}
	if cfg.Verifier.ProbeTimeoutSeconds == 0 {
		cfg.Verifier.ProbeTimeoutSeconds = 7
	}
	if cfg.Verifier.DNSTimeoutSeconds == 0 {
		cfg.Verifier.DNSTimeoutSeconds = 5
	}
	if cfg.Verifier.MaxUploadMB == 0 {
		cfg.Verifier.MaxUploadMB = 50
	}
	if cfg.Verifier.JobTTLMinutes == 0 {
		cfg.Verifier.JobTTLMinutes = 60
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if os.IsNotExist(err) {
		// Running without a config file is fine, env vars cover the rest.
		cfg = Default()
	} else if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("VERIFY_SENDER_DOMAIN"); v != "" {
		cfg.Verifier.SenderDomain = v
	}
	if v := os.Getenv("VERIFY_PROBE_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Verifier.ProbeTimeoutSeconds = secs
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg, nil
}
