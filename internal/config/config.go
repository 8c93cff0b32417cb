// Package config loads application configuration from a YAML file,
// environment variables and a local .env file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      App      `mapstructure:"app"`
	Database Database `mapstructure:"database"`
	Trends   Trends   `mapstructure:"trends"`
	Signal   Signal   `mapstructure:"signal"`
	Feeds    Feeds    `mapstructure:"feeds"`
	Logging  Logging  `mapstructure:"logging"`
}

// App holds general application configuration
type App struct {
	DataDir      string `mapstructure:"data_dir"`      // Local data directory (signal cache lives here)
	DefaultOwner string `mapstructure:"default_owner"` // Owner used when --owner is not passed
}

// Database holds Postgres connection configuration
type Database struct {
	URL             string `mapstructure:"url"` // Full DSN; overrides the individual fields
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Name            string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
}

// ConnectionString assembles the Postgres DSN.
func (d Database) ConnectionString() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// Trends holds the trend detection engine configuration
type Trends struct {
	MaxTrends        int     `mapstructure:"max_trends"`        // Detection cap per run
	MinMentions      int     `mapstructure:"min_mentions"`      // Minimum distinct content mentions per candidate
	LookbackDays     int     `mapstructure:"lookback_days"`     // Extraction window
	RecentDays       int     `mapstructure:"recent_days"`       // Recent velocity sub-window
	ListingDays      int     `mapstructure:"listing_days"`      // Window for general trend listing
	MentionWeight    float64 `mapstructure:"mention_weight"`    // Composite score weight for mentions
	SignalWeight     float64 `mapstructure:"signal_weight"`     // Composite score weight for the external signal
	VelocityWeight   float64 `mapstructure:"velocity_weight"`   // Composite score weight for velocity
	MentionSaturate  float64 `mapstructure:"mention_saturate"`  // Mention count treated as a full signal
	VelocitySaturate float64 `mapstructure:"velocity_saturate"` // Velocity magnitude treated as a full signal
}

// Signal holds external trend-signal provider configuration
type Signal struct {
	Endpoint   string `mapstructure:"endpoint"`    // Base URL of the trends index
	Timeframe  string `mapstructure:"timeframe"`   // Lookup timeframe (provider syntax)
	BatchSize  int    `mapstructure:"batch_size"`  // Keywords per request (provider limit)
	BatchDelay string `mapstructure:"batch_delay"` // Pause between sequential batches
	MaxLookups int    `mapstructure:"max_lookups"` // Keywords enriched per detection run
	CacheTTL   string `mapstructure:"cache_ttl"`   // How long cached scores stay fresh
	Timeout    string `mapstructure:"timeout"`     // Per-request HTTP timeout
}

// Feeds holds RSS/Atom ingestion configuration
type Feeds struct {
	UserAgent       string `mapstructure:"user_agent"`
	Timeout         string `mapstructure:"timeout"`
	MaxItemsPerFeed int    `mapstructure:"max_items_per_feed"`
}

// Logging holds logging configuration
type Logging struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from the given file (or the default search
// paths), applying env overrides and defaults.
func Load(configFile string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "warning: error loading .env file: %v\n", err)
		}
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		v.SetConfigName(".currents")
		v.SetConfigType("yaml")
	}

	setDefaults(v)
	bindEnvironment(v)

	v.SetEnvPrefix("CURRENTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.data_dir", ".currents")
	v.SetDefault("app.default_owner", "")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "currents")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")

	v.SetDefault("trends.max_trends", 10)
	v.SetDefault("trends.min_mentions", 2)
	v.SetDefault("trends.lookback_days", 7)
	v.SetDefault("trends.recent_days", 3)
	v.SetDefault("trends.listing_days", 30)
	v.SetDefault("trends.mention_weight", 0.4)
	v.SetDefault("trends.signal_weight", 0.4)
	v.SetDefault("trends.velocity_weight", 0.2)
	v.SetDefault("trends.mention_saturate", 50)
	v.SetDefault("trends.velocity_saturate", 5)

	v.SetDefault("signal.endpoint", "https://trends.google.com")
	v.SetDefault("signal.timeframe", "now 7-d")
	v.SetDefault("signal.batch_size", 5)
	v.SetDefault("signal.batch_delay", "2s")
	v.SetDefault("signal.max_lookups", 20)
	v.SetDefault("signal.cache_ttl", "6h")
	v.SetDefault("signal.timeout", "25s")

	v.SetDefault("feeds.user_agent", "Currents Feed Reader/1.0")
	v.SetDefault("feeds.timeout", "30s")
	v.SetDefault("feeds.max_items_per_feed", 50)

	v.SetDefault("logging.level", "info")
}

// bindEnvironment maps legacy environment variable names onto config keys.
func bindEnvironment(v *viper.Viper) {
	_ = v.BindEnv("database.url", "CURRENTS_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("database.password", "CURRENTS_DATABASE_PASSWORD", "DB_PASSWORD")
	_ = v.BindEnv("app.default_owner", "CURRENTS_OWNER")
	_ = v.BindEnv("logging.level", "CURRENTS_LOG_LEVEL", "LOG_LEVEL")
}

// validate rejects configurations the engine cannot run with.
func (c *Config) validate() error {
	t := c.Trends
	if t.MaxTrends <= 0 {
		return fmt.Errorf("trends.max_trends must be positive, got %d", t.MaxTrends)
	}
	if t.RecentDays <= 0 || t.RecentDays >= t.LookbackDays {
		return fmt.Errorf("trends.recent_days must be within (0, lookback_days), got %d", t.RecentDays)
	}
	sum := t.MentionWeight + t.SignalWeight + t.VelocityWeight
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("trend score weights must sum to 1.0, got %.3f", sum)
	}
	if c.Signal.BatchSize <= 0 || c.Signal.BatchSize > 5 {
		return fmt.Errorf("signal.batch_size must be in [1,5], got %d", c.Signal.BatchSize)
	}
	for key, raw := range map[string]string{
		"signal.batch_delay":         c.Signal.BatchDelay,
		"signal.cache_ttl":           c.Signal.CacheTTL,
		"signal.timeout":             c.Signal.Timeout,
		"feeds.timeout":              c.Feeds.Timeout,
		"database.conn_max_lifetime": c.Database.ConnMaxLifetime,
	} {
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("%s is not a valid duration: %w", key, err)
		}
	}
	return nil
}

// Duration parses a duration config value that has already passed
// validation.
func Duration(raw string) time.Duration {
	d, _ := time.ParseDuration(raw)
	return d
}
