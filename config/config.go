package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMySQL    = "mysql"
)

type Config struct {
	App struct {
		Env         string `env:"APP_ENV"      envDefault:"development"`
		Port        string `env:"PORT"         envDefault:"8088"`
		FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
		LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"`
	}
	Store struct {
		Driver string `env:"STORE_DRIVER" envDefault:"memory"`
	}
	DB struct {
		Host     string `env:"DB_HOST"     envDefault:"localhost"`
		Port     string `env:"DB_PORT"     envDefault:"5432"`
		User     string `env:"DB_USER"     envDefault:"postgres"`
		Password string `env:"DB_PASSWORD" envDefault:"password"`
		Name     string `env:"DB_NAME"     envDefault:"stepsquad"`
		SSLMode  string `env:"DB_SSLMODE"  envDefault:"disable"`
	}
	Redis struct {
		Addr     string        `env:"REDIS_ADDR"`
		Password string        `env:"REDIS_PASSWORD"`
		DB       int           `env:"REDIS_DB"              envDefault:"0"`
		CacheTTL time.Duration `env:"LEADERBOARD_CACHE_TTL" envDefault:"30s"`
	}
	Events struct {
		Channel        string        `env:"EVENT_CHANNEL"         envDefault:"steps.ingest"`
		PublishTimeout time.Duration `env:"EVENT_PUBLISH_TIMEOUT" envDefault:"2s"`
	}
	JWT struct {
		AccessTokenSecret        string `env:"JWT_ACCESS_TOKEN_SECRET"`
		AccessTokenExpiryMinutes int    `env:"JWT_ACCESS_TOKEN_EXPIRY_MINUTES" envDefault:"60"`
	}
	Auth struct {
		AdminEmail     string `env:"ADMIN_EMAIL"`
		DevAuthEnabled bool   `env:"DEV_AUTH_ENABLED" envDefault:"false"`
	}
	Competition struct {
		Timezone  string `env:"COMP_TZ"    envDefault:"Europe/Bucharest"`
		GraceDays int    `env:"GRACE_DAYS" envDefault:"2"`
	}
	Devices struct {
		FitbitClientID     string        `env:"FITBIT_CLIENT_ID"`
		FitbitClientSecret string        `env:"FITBIT_CLIENT_SECRET"`
		GarminEnabled      bool          `env:"GARMIN_ENABLED"   envDefault:"false"`
		GarminBaseURL      string        `env:"GARMIN_BASE_URL"  envDefault:"https://connectapi.garmin.com"`
		SyncEnabled        bool          `env:"SYNC_ENABLED"     envDefault:"false"`
		SyncInterval       time.Duration `env:"SYNC_INTERVAL"    envDefault:"24h"`
		CronSecretHash     string        `env:"CRON_SECRET_HASH"`
	}
}

var appConfig *Config
var once sync.Once // Used for singleton pattern to load config only once

// LoadConfig loads configuration from environment variables into the Config struct.
func LoadConfig() (*Config, error) {
	// It's okay if .env doesn't exist; deployments set env vars directly.
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on system environment variables")
	}

	cfg := &Config{}
	var err error

	// --- App Configuration ---
	cfg.App.Env = getEnv("APP_ENV", "development")
	cfg.App.Port = getEnv("PORT", "8088")
	cfg.App.FrontendURL = getEnv("FRONTEND_URL", "http://localhost:3000")
	cfg.App.LogLevel = getEnv("LOG_LEVEL", "info")

	// --- Store Configuration ---
	cfg.Store.Driver = strings.ToLower(getEnv("STORE_DRIVER", StoreMemory))
	switch cfg.Store.Driver {
	case StoreMemory, StorePostgres, StoreMySQL:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: expected memory, postgres or mysql", cfg.Store.Driver)
	}

	// --- Database Configuration ---
	defaultPort := "5432"
	if cfg.Store.Driver == StoreMySQL {
		defaultPort = "3306"
	}
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", defaultPort)
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "password")
	cfg.DB.Name = getEnv("DB_NAME", "stepsquad")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	// --- Redis Configuration ---
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	if cfg.Redis.DB, err = getEnvAsInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.Redis.CacheTTL, err = getEnvAsDuration("LEADERBOARD_CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}

	// --- Events Configuration ---
	cfg.Events.Channel = getEnv("EVENT_CHANNEL", "steps.ingest")
	if cfg.Events.PublishTimeout, err = getEnvAsDuration("EVENT_PUBLISH_TIMEOUT", 2*time.Second); err != nil {
		return nil, err
	}

	// --- JWT Configuration ---
	cfg.JWT.AccessTokenSecret = getEnv("JWT_ACCESS_TOKEN_SECRET", "")
	if cfg.JWT.AccessTokenExpiryMinutes, err = getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY_MINUTES", 60); err != nil {
		return nil, err
	}

	// --- Auth Configuration ---
	cfg.Auth.AdminEmail = strings.ToLower(strings.TrimSpace(getEnv("ADMIN_EMAIL", "")))
	if cfg.Auth.DevAuthEnabled, err = getEnvAsBool("DEV_AUTH_ENABLED", false); err != nil {
		return nil, err
	}

	// --- Competition Configuration ---
	cfg.Competition.Timezone = getEnv("COMP_TZ", "Europe/Bucharest")
	if _, err := time.LoadLocation(cfg.Competition.Timezone); err != nil {
		return nil, fmt.Errorf("invalid COMP_TZ %q: %w", cfg.Competition.Timezone, err)
	}
	if cfg.Competition.GraceDays, err = getEnvAsInt("GRACE_DAYS", 2); err != nil {
		return nil, err
	}
	if cfg.Competition.GraceDays < 0 {
		return nil, fmt.Errorf("GRACE_DAYS must not be negative, got %d", cfg.Competition.GraceDays)
	}

	// --- Device Configuration ---
	cfg.Devices.FitbitClientID = getEnv("FITBIT_CLIENT_ID", "")
	cfg.Devices.FitbitClientSecret = getEnv("FITBIT_CLIENT_SECRET", "")
	cfg.Devices.CronSecretHash = getEnv("CRON_SECRET_HASH", "")
	cfg.Devices.GarminBaseURL = strings.TrimRight(getEnv("GARMIN_BASE_URL", "https://connectapi.garmin.com"), "/")
	if cfg.Devices.GarminEnabled, err = getEnvAsBool("GARMIN_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.Devices.SyncEnabled, err = getEnvAsBool("SYNC_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.Devices.SyncInterval, err = getEnvAsDuration("SYNC_INTERVAL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Devices.SyncInterval <= 0 {
		return nil, fmt.Errorf("SYNC_INTERVAL must be positive, got %s", cfg.Devices.SyncInterval)
	}

	// Basic validation for critical secrets
	if cfg.JWT.AccessTokenSecret == "" && !cfg.Auth.DevAuthEnabled {
		slog.Warn("Neither JWT_ACCESS_TOKEN_SECRET nor DEV_AUTH_ENABLED is set; every API call will be rejected")
	}
	if cfg.Auth.DevAuthEnabled && cfg.App.Env == "production" {
		slog.Warn("DEV_AUTH_ENABLED is on in production; X-Dev-User headers are trusted")
	}
	if cfg.DB.Password == "password" && cfg.App.Env == "production" && cfg.Store.Driver != StoreMemory {
		slog.Warn("Using default DB password in production. Please set DB_PASSWORD environment variable.")
	}

	appConfig = cfg
	return cfg, nil
}

// ConnectDB opens the SQL database behind the document store.
func ConnectDB(cfg *Config) (*gorm.DB, error) {
	gormConfig := &gorm.Config{}
	if cfg.App.Env == "development" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info) // Log SQL queries in development
	} else {
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	}

	var dialector gorm.Dialector
	switch cfg.Store.Driver {
	case StorePostgres:
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.DB.Host, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.Port, cfg.DB.SSLMode,
		)
		dialector = postgres.Open(dsn)
	case StoreMySQL:
		dsn := fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("store driver %q has no database", cfg.Store.Driver)
	}

	gormDB, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("Successfully connected to database", "driver", cfg.Store.Driver, "host", cfg.DB.Host)
	return gormDB, nil
}

// Initialize loads the configuration once. Call it at the start of main.
func Initialize() error {
	var loadErr error
	once.Do(func() {
		if _, err := LoadConfig(); err != nil {
			loadErr = fmt.Errorf("failed to load configuration: %w", err)
		}
	})
	return loadErr
}

// GetConfig returns the loaded application configuration.
// It panics if the configuration has not been loaded yet.
func GetConfig() *Config {
	if appConfig == nil {
		panic("configuration not loaded; call config.Initialize() first")
	}
	return appConfig
}

// ParseLogLevel maps LOG_LEVEL onto a slog level; unknown values mean info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Helper function to get an environment variable or return a default value.
// Empty counts as unset.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// Helper function to get an environment variable as an integer or return a default value.
func getEnvAsInt(key string, fallback int) (int, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback, fmt.Errorf("env var %s: expected integer, got '%s'", key, valueStr)
	}
	return value, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return fallback, fmt.Errorf("env var %s: expected boolean, got '%s'", key, valueStr)
	}
	return value, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallback, fmt.Errorf("env var %s: expected duration, got '%s'", key, valueStr)
	}
	return value, nil
}
