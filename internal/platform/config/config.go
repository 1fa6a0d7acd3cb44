package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported DATA_LAYER values.
const (
	DataLayerMemory = "memory"
	DataLayerPgsql  = "pgsql"
	DataLayerMongo  = "mongo"
)

const defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// Config holds application configuration.
type Config struct {
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	JWTSecret     string

	// Storage
	DataLayer     string
	DatabaseURL   string
	PgsqlMaxConns int32
	MongoURL      string
	MongoDatabase string

	// Sync core tuning
	DataLayerTimeout    time.Duration
	SyncStatusInterval  time.Duration
	ReadCacheSize       int
	MetricsCacheSize    int
	NotificationHistory int

	// HTTP edge
	RateLimit          string
	CORSAllowedOrigins []string
	PosthogAPIKey      string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("DATA_LAYER", DataLayerMemory)
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PGSQL_MAX_CONNS", 10)
	v.SetDefault("MONGO_URL", "")
	v.SetDefault("MONGO_DATABASE", "finance_sync")
	v.SetDefault("DATA_LAYER_TIMEOUT", "10s")
	v.SetDefault("SYNC_STATUS_INTERVAL", "30s")
	v.SetDefault("READ_CACHE_SIZE", 256)
	v.SetDefault("METRICS_CACHE_SIZE", 32)
	v.SetDefault("NOTIFICATION_HISTORY", 50)
	v.SetDefault("RATE_LIMIT", "100-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("POSTHOG_API_KEY", "")

	// Actual environment variables override .env values, which override the defaults above.
	v.AutomaticEnv()

	cfg := &Config{
		Port:                v.GetString("PORT"),
		IsProduction:        v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:       v.GetBool("ENABLE_DB_CHECK"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		DataLayer:           strings.ToLower(strings.TrimSpace(v.GetString("DATA_LAYER"))),
		DatabaseURL:         v.GetString("PGSQL_URL"),
		PgsqlMaxConns:       v.GetInt32("PGSQL_MAX_CONNS"),
		MongoURL:            v.GetString("MONGO_URL"),
		MongoDatabase:       v.GetString("MONGO_DATABASE"),
		ReadCacheSize:       v.GetInt("READ_CACHE_SIZE"),
		MetricsCacheSize:    v.GetInt("METRICS_CACHE_SIZE"),
		NotificationHistory: v.GetInt("NOTIFICATION_HISTORY"),
		RateLimit:           v.GetString("RATE_LIMIT"),
		CORSAllowedOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		PosthogAPIKey:       v.GetString("POSTHOG_API_KEY"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		slog.Warn("PORT environment variable not set, using default", slog.String("port", cfg.Port))
	}

	var err error
	if cfg.DataLayerTimeout, err = parseDuration(v, "DATA_LAYER_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.SyncStatusInterval, err = parseDuration(v, "SYNC_STATUS_INTERVAL"); err != nil {
		return nil, err
	}

	switch cfg.DataLayer {
	case DataLayerMemory:
	case DataLayerPgsql:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PGSQL_URL is required when DATA_LAYER=%s", DataLayerPgsql)
		}
	case DataLayerMongo:
		if cfg.MongoURL == "" {
			return nil, fmt.Errorf("MONGO_URL is required when DATA_LAYER=%s", DataLayerMongo)
		}
	default:
		return nil, fmt.Errorf("unsupported DATA_LAYER %q (want %s, %s or %s)", cfg.DataLayer, DataLayerMemory, DataLayerPgsql, DataLayerMongo)
	}

	if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = defaultJWTSecret // !! CHANGE IN PRODUCTION !!
		slog.Warn("JWT_SECRET environment variable not set. Using default insecure key.")
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s (%q): %w", key, raw, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
