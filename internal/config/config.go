// Package config holds the typed, validated configuration for the
// screening engine. A Config value is constructed once at startup and
// passed explicitly into every constructor that needs it (Fetcher,
// Parser, InputValidator, MatchingEngine) rather than referenced through
// a process-wide singleton.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// MatchingConfig holds thresholds, weights, layers and adaptive-threshold
// tuning for the MatchingEngine (C9).
type MatchingConfig struct {
	BaseThreshold int `yaml:"base_threshold"`

	Layers struct {
		LowMatch      int `yaml:"low_match"`
		ModerateMatch int `yaml:"moderate_match"`
		HighConfidence int `yaml:"high_confidence"`
	} `yaml:"layers"`

	Weights struct {
		Name        float64 `yaml:"name"`
		Document    float64 `yaml:"document"`
		DOB         float64 `yaml:"dob"`
		Nationality float64 `yaml:"nationality"`
		Address     float64 `yaml:"address"`
	} `yaml:"weights"`

	ShortNameThreshold int `yaml:"short_name_threshold"`

	Recommendation struct {
		AutoEscalate        int `yaml:"auto_escalate"`
		ManualReview        int `yaml:"manual_review"`
		AutoClear           int `yaml:"auto_clear"`
	} `yaml:"recommendation"`

	CommonNames []string `yaml:"common_names"`

	DefaultLimit int `yaml:"default_limit"`
}

// InputValidationConfig holds the InputValidator's (C3) tunables.
type InputValidationConfig struct {
	NameMinLength     int    `yaml:"name_min_length"`
	NameMaxLength     int    `yaml:"name_max_length"`
	DocumentMaxLength int    `yaml:"document_max_length"`
	BlockedCharacters string `yaml:"blocked_characters"`
	AllowUnicodeNames bool   `yaml:"allow_unicode_names"`
}

// DataSourceConfig is a single fetchable source list (OFAC or UN).
type DataSourceConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// DataConfig holds ingestion tunables (C5/C6/C7).
type DataConfig struct {
	DataDir                     string              `yaml:"data_dir"`
	Sources                     []DataSourceConfig  `yaml:"sources"`
	UpdateFrequency             time.Duration       `yaml:"update_frequency"`
	MalformedEntityThreshold    float64             `yaml:"malformed_entity_threshold"`
	EntityCountVarianceThreshold float64            `yaml:"entity_count_variance_threshold"`
	RequiredFields              []string            `yaml:"required_fields"`
	VerifyKnownHashes           bool                `yaml:"verify_known_hashes"`
	KnownHashesPath             string              `yaml:"known_hashes_path"`
	HistoryDriver               string              `yaml:"history_driver"` // "postgres", "sqlite", "supabase", "" (disabled)
	HistoryDSN                  string              `yaml:"history_dsn"`    // postgres DSN or sqlite file path, driver-dependent
	SupabaseURL                 string              `yaml:"supabase_url"`
	SupabaseKey                 string              `yaml:"supabase_key"`
	CacheAddr                   string              `yaml:"cache_addr"`   // redis address, e.g. "localhost:6379"; empty disables distributed cache
	CachePrefix                 string              `yaml:"cache_prefix"`
}

// ReportingConfig holds recommendation thresholds surfaced for transparency
// to out-of-core reporting collaborators.
type ReportingConfig struct {
	AutoEscalate        int `yaml:"auto_escalate"`
	ManualReview        int `yaml:"manual_review"`
	AutoClear           int `yaml:"auto_clear"`
}

// PerformanceConfig holds resource-bound tunables.
type PerformanceConfig struct {
	MemoryLimitBytes      int64 `yaml:"memory_limit_bytes"`
	BatchSize             int   `yaml:"batch_size"`
	MaxFileSizeBytes      int64 `yaml:"max_file_size_bytes"`
	MaxEntityCountFactor  float64 `yaml:"max_entity_count_factor"`
	RecentScreeningsCap   int   `yaml:"recent_screenings_cap"`
}

// ServerConfig holds the HTTP entrypoint's listener and JWT tunables.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	ReloadInterval  time.Duration `yaml:"reload_interval"`
	JWTSecret       string        `yaml:"jwt_secret"`
	RequireAuth     bool          `yaml:"require_auth"`
}

// Config is the full, validated configuration surface.
type Config struct {
	Matching         MatchingConfig        `yaml:"matching"`
	InputValidation  InputValidationConfig `yaml:"input_validation"`
	Data             DataConfig            `yaml:"data"`
	Reporting        ReportingConfig       `yaml:"reporting"`
	Performance      PerformanceConfig     `yaml:"performance"`
	Server           ServerConfig          `yaml:"server"`
}

// Default returns the configuration populated with sane defaults for
// matching, input validation, and performance bounds.
func Default() *Config {
	c := &Config{}

	c.Matching.BaseThreshold = 60
	c.Matching.Layers.LowMatch = 60
	c.Matching.Layers.ModerateMatch = 70
	c.Matching.Layers.HighConfidence = 85
	c.Matching.Weights.Name = 0.40
	c.Matching.Weights.Document = 0.30
	c.Matching.Weights.DOB = 0.15
	c.Matching.Weights.Nationality = 0.10
	c.Matching.Weights.Address = 0.05
	c.Matching.ShortNameThreshold = 95
	c.Matching.Recommendation.AutoEscalate = 95
	c.Matching.Recommendation.ManualReview = 85
	c.Matching.Recommendation.AutoClear = 60
	c.Matching.DefaultLimit = 10

	c.InputValidation.NameMinLength = 2
	c.InputValidation.NameMaxLength = 200
	c.InputValidation.DocumentMaxLength = 50
	c.InputValidation.BlockedCharacters = `<>{}[]|\;` + "`" + `$`
	c.InputValidation.AllowUnicodeNames = true

	c.Data.DataDir = "./data"
	c.Data.UpdateFrequency = 24 * time.Hour
	c.Data.MalformedEntityThreshold = 0.05
	c.Data.EntityCountVarianceThreshold = 0.20
	c.Data.RequiredFields = []string{"id", "name", "source"}
	c.Data.HistoryDriver = ""
	c.Data.CachePrefix = "sanctions-screening"

	c.Reporting.AutoEscalate = 95
	c.Reporting.ManualReview = 85
	c.Reporting.AutoClear = 60

	c.Performance.MemoryLimitBytes = 2 << 30 // 2 GiB
	c.Performance.BatchSize = 1000
	c.Performance.MaxFileSizeBytes = 1 << 30 // 1 GiB
	c.Performance.MaxEntityCountFactor = 2.0
	c.Performance.RecentScreeningsCap = 10000

	c.Server.Port = 8080
	c.Server.ReadTimeout = 30 * time.Second
	c.Server.WriteTimeout = 30 * time.Second
	c.Server.IdleTimeout = 60 * time.Second
	c.Server.ShutdownTimeout = 15 * time.Second
	c.Server.ReloadInterval = c.Data.UpdateFrequency
	c.Server.RequireAuth = false

	return c
}

// Load reads a YAML config file (if path is non-empty and exists), a
// .env file (if present), then applies environment-variable overrides on
// top of Default(), using a layered getEnvAsX override approach.
func Load(yamlPath string) (*Config, error) {
	_ = godotenv.Load() // best-effort; absence of .env is not an error

	cfg := Default()

	if yamlPath != "" {
		if data, err := os.ReadFile(yamlPath); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", yamlPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read %s: %w", yamlPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(c *Config) {
	c.Data.DataDir = getEnvAsString("SCREENING_DATA_DIR", c.Data.DataDir)
	c.Matching.BaseThreshold = getEnvAsInt("SCREENING_BASE_THRESHOLD", c.Matching.BaseThreshold)
	c.Matching.ShortNameThreshold = getEnvAsInt("SCREENING_SHORT_NAME_THRESHOLD", c.Matching.ShortNameThreshold)
	c.InputValidation.AllowUnicodeNames = getEnvAsBool("SCREENING_ALLOW_UNICODE_NAMES", c.InputValidation.AllowUnicodeNames)
	c.Data.HistoryDriver = getEnvAsString("SCREENING_HISTORY_DRIVER", c.Data.HistoryDriver)
	c.Server.Port = getEnvAsInt("SCREENING_SERVER_PORT", c.Server.Port)
	c.Server.JWTSecret = getEnvAsString("SCREENING_JWT_SECRET", c.Server.JWTSecret)
}

func getEnvAsString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// Validate enforces cross-field consistency rules on a loaded Config.
func (c *Config) Validate() error {
	if c.Matching.BaseThreshold < 0 || c.Matching.BaseThreshold > 100 {
		return fmt.Errorf("config: base_threshold must be in [0,100], got %d", c.Matching.BaseThreshold)
	}
	if c.Matching.ShortNameThreshold < 0 || c.Matching.ShortNameThreshold > 100 {
		return fmt.Errorf("config: short_name_threshold must be in [0,100], got %d", c.Matching.ShortNameThreshold)
	}
	r := c.Matching.Recommendation
	if !(r.AutoClear < r.ManualReview && r.ManualReview < r.AutoEscalate) {
		return fmt.Errorf("config: recommendation thresholds must be strictly ascending (auto_clear < manual_review < auto_escalate), got %d < %d < %d", r.AutoClear, r.ManualReview, r.AutoEscalate)
	}
	iv := c.InputValidation
	if !(iv.NameMinLength > 0 && iv.NameMinLength <= iv.NameMaxLength && iv.NameMaxLength <= 1000) {
		return fmt.Errorf("config: require 0 < name_min_length(%d) <= name_max_length(%d) <= 1000", iv.NameMinLength, iv.NameMaxLength)
	}
	if iv.DocumentMaxLength <= 0 {
		return fmt.Errorf("config: document_max_length must be > 0, got %d", iv.DocumentMaxLength)
	}
	return nil
}
