package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone  = "UTC"
	configPathEnv    = "EMOTIONAL_DIARY_CONFIG"
	databaseDSNEnv   = "DATABASE_DSN"
	geminiAPIKeyEnv  = "GEMINI_API_KEY"
	geminiModelEnv   = "GEMINI_MODEL"
	jwtSecretEnv     = "JWT_SECRET_KEY"
	httpAddrEnv      = "HTTP_ADDR"
	journalTZEnv     = "JOURNAL_TIMEZONE"
	logLevelEnv      = "LOG_LEVEL"
	rateLimitRPSEnv  = "RATE_LIMIT_RPS"
	geminiTimeoutEnv = "GEMINI_TIMEOUT"
)

// Config holds high-level settings required across the application.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Auth     AuthConfig     `yaml:"auth"`
	Journal  JournalConfig  `yaml:"journal"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// HTTPConfig describes the API listener.
type HTTPConfig struct {
	Addr           string          `yaml:"addr"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig bounds per-user calls to endpoints that reach the provider.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Burst             int     `yaml:"burst"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN selects
// the in-memory store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// GeminiConfig defines how to contact the Gemini generateContent API.
type GeminiConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout"`
}

// AuthConfig holds the shared secret used to verify bearer tokens.
type AuthConfig struct {
	// JWTSecret is base64 encoded.
	JWTSecret string `yaml:"jwtSecret"`
}

// JournalConfig defines the calendar used for daily entries.
type JournalConfig struct {
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the journal timezone string to a time.Location.
func (j JournalConfig) Location() *time.Location {
	if j.location != nil {
		return j.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// LoggingConfig selects the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads .env and YAML configuration (if present) and applies environment overrides.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: cannot load .env: %v", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}

	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Gemini.Model = v
	}

	if v := os.Getenv(geminiTimeoutEnv); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Gemini.Timeout = d
		} else {
			log.Printf("config: invalid %s %q: %v", geminiTimeoutEnv, v, err)
		}
	}

	if v := os.Getenv(jwtSecretEnv); v != "" {
		c.Auth.JWTSecret = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	if v := os.Getenv(rateLimitRPSEnv); v != "" {
		if rps, err := strconv.ParseFloat(v, 64); err == nil {
			c.HTTP.RateLimit.RequestsPerSecond = rps
		} else {
			log.Printf("config: invalid %s %q: %v", rateLimitRPSEnv, v, err)
		}
	}

	if v := os.Getenv(journalTZEnv); v != "" {
		c.Journal.Timezone = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Journal.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Journal.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}
	if len(override.HTTP.AllowedOrigins) > 0 {
		base.HTTP.AllowedOrigins = override.HTTP.AllowedOrigins
	}
	if override.HTTP.RateLimit.RequestsPerSecond > 0 {
		base.HTTP.RateLimit.RequestsPerSecond = override.HTTP.RateLimit.RequestsPerSecond
	}
	if override.HTTP.RateLimit.Burst > 0 {
		base.HTTP.RateLimit.Burst = override.HTTP.RateLimit.Burst
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Gemini.Endpoint != "" {
		base.Gemini.Endpoint = override.Gemini.Endpoint
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if override.Gemini.Timeout > 0 {
		base.Gemini.Timeout = override.Gemini.Timeout
	}

	if override.Auth.JWTSecret != "" {
		base.Auth.JWTSecret = override.Auth.JWTSecret
	}

	if override.Journal.Timezone != "" {
		base.Journal.Timezone = override.Journal.Timezone
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		HTTP: HTTPConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:5173"},
			RateLimit:      RateLimitConfig{RequestsPerSecond: 1, Burst: 5},
		},
		Database: DatabaseConfig{DSN: ""},
		Gemini: GeminiConfig{
			Endpoint: "https://generativelanguage.googleapis.com",
			Model:    "gemini-2.5-flash",
			APIKey:   "",
			Timeout:  30 * time.Second,
		},
		Journal: JournalConfig{Timezone: defaultTimezone, location: tz},
		Logging: LoggingConfig{Level: "info"},
	}
}
