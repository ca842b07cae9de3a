package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerConfig     ServerConfig     `json:"server"`
	DatabaseConfig   DatabaseConfig   `json:"database"`
	AuthConfig       AuthConfig       `json:"auth"`
	MarketDataConfig MarketDataConfig `json:"market_data"`
	SquadConfig      SquadConfig      `json:"squad"`
	RedisConfig      RedisConfig      `json:"redis"`
	VaultConfig      VaultConfig      `json:"vault"`
	LoggingConfig    LoggingConfig    `json:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	ProductionMode bool     `json:"production_mode"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
}

type AuthConfig struct {
	JWTSecret            string        `json:"jwt_secret"`
	AccessTokenDuration  time.Duration `json:"access_token_duration"`
	RefreshTokenDuration time.Duration `json:"refresh_token_duration"`
	BcryptCost           int           `json:"bcrypt_cost"`
	MinPasswordLength    int           `json:"min_password_length"`
}

// MarketDataConfig holds the upstream trading-platform API configuration.
// The API key is a single externally-provisioned bearer credential; it can
// come from the environment or from Vault (see VaultConfig).
type MarketDataConfig struct {
	BaseURL      string        `json:"base_url"`
	APIKey       string        `json:"api_key"`
	FetchTimeout time.Duration `json:"fetch_timeout"`
}

// SquadConfig holds squad and leaderboard tuning
type SquadConfig struct {
	MaxMembers     int           `json:"max_members"`
	LeaderboardTTL time.Duration `json:"leaderboard_ttl"`
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

type VaultConfig struct {
	Enabled    bool   `json:"enabled"`
	Address    string `json:"address"`
	Token      string `json:"token"`
	MountPath  string `json:"mount_path"`
	SecretPath string `json:"secret_path"`
	TLSEnabled bool   `json:"tls_enabled"`
	CACert     string `json:"ca_cert"`
}

type LoggingConfig struct {
	Level      string `json:"level"`       // debug, info, warn, error
	JSONFormat bool   `json:"json_format"` // JSON output vs console writer
}

// Load reads configuration from config.json (if present) and applies
// environment variable overrides on top.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := getEnvOrDefault("CONFIG_FILE", "config.json"); path != "" {
		if fileCfg, err := loadFromFile(path); err == nil {
			cfg = fileCfg
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if cfg.AuthConfig.JWTSecret == "" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET must be set")
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		ServerConfig: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		},
		DatabaseConfig: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Database: "squad_markets",
			SSLMode:  "disable",
		},
		AuthConfig: AuthConfig{
			AccessTokenDuration:  15 * time.Minute,
			RefreshTokenDuration: 7 * 24 * time.Hour,
			BcryptCost:           12,
			MinPasswordLength:    8,
		},
		MarketDataConfig: MarketDataConfig{
			FetchTimeout: 10 * time.Second,
		},
		SquadConfig: SquadConfig{
			MaxMembers:     10,
			LeaderboardTTL: 30 * time.Second,
		},
		RedisConfig: RedisConfig{
			Address:  "localhost:6379",
			PoolSize: 10,
		},
		VaultConfig: VaultConfig{
			Address:    "http://localhost:8200",
			MountPath:  "secret",
			SecretPath: "squad-markets/market-data",
		},
		LoggingConfig: LoggingConfig{
			Level:      "info",
			JSONFormat: true,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	// Server
	cfg.ServerConfig.Host = getEnvOrDefault("SERVER_HOST", cfg.ServerConfig.Host)
	cfg.ServerConfig.Port = getEnvIntOrDefault("SERVER_PORT", cfg.ServerConfig.Port)
	cfg.ServerConfig.ProductionMode = getEnvOrDefault("PRODUCTION_MODE", strconv.FormatBool(cfg.ServerConfig.ProductionMode)) == "true"

	// Database
	cfg.DatabaseConfig.Host = getEnvOrDefault("DB_HOST", cfg.DatabaseConfig.Host)
	cfg.DatabaseConfig.Port = getEnvIntOrDefault("DB_PORT", cfg.DatabaseConfig.Port)
	cfg.DatabaseConfig.User = getEnvOrDefault("DB_USER", cfg.DatabaseConfig.User)
	cfg.DatabaseConfig.Password = getEnvOrDefault("DB_PASSWORD", cfg.DatabaseConfig.Password)
	cfg.DatabaseConfig.Database = getEnvOrDefault("DB_NAME", cfg.DatabaseConfig.Database)
	cfg.DatabaseConfig.SSLMode = getEnvOrDefault("DB_SSLMODE", cfg.DatabaseConfig.SSLMode)

	// Auth
	cfg.AuthConfig.JWTSecret = getEnvOrDefault("AUTH_JWT_SECRET", cfg.AuthConfig.JWTSecret)
	cfg.AuthConfig.AccessTokenDuration = getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_DURATION", cfg.AuthConfig.AccessTokenDuration)
	cfg.AuthConfig.RefreshTokenDuration = getEnvDurationOrDefault("AUTH_REFRESH_TOKEN_DURATION", cfg.AuthConfig.RefreshTokenDuration)
	cfg.AuthConfig.BcryptCost = getEnvIntOrDefault("AUTH_BCRYPT_COST", cfg.AuthConfig.BcryptCost)
	cfg.AuthConfig.MinPasswordLength = getEnvIntOrDefault("AUTH_MIN_PASSWORD_LENGTH", cfg.AuthConfig.MinPasswordLength)

	// Market data
	cfg.MarketDataConfig.BaseURL = getEnvOrDefault("MARKET_DATA_BASE_URL", cfg.MarketDataConfig.BaseURL)
	cfg.MarketDataConfig.APIKey = getEnvOrDefault("MARKET_DATA_API_KEY", cfg.MarketDataConfig.APIKey)
	cfg.MarketDataConfig.FetchTimeout = getEnvDurationOrDefault("MARKET_DATA_FETCH_TIMEOUT", cfg.MarketDataConfig.FetchTimeout)

	// Squad
	cfg.SquadConfig.MaxMembers = getEnvIntOrDefault("SQUAD_MAX_MEMBERS", cfg.SquadConfig.MaxMembers)
	cfg.SquadConfig.LeaderboardTTL = getEnvDurationOrDefault("SQUAD_LEADERBOARD_TTL", cfg.SquadConfig.LeaderboardTTL)

	// Redis
	cfg.RedisConfig.Enabled = getEnvOrDefault("REDIS_ENABLED", strconv.FormatBool(cfg.RedisConfig.Enabled)) == "true"
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDRESS", cfg.RedisConfig.Address)
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisConfig.Password)
	cfg.RedisConfig.DB = getEnvIntOrDefault("REDIS_DB", cfg.RedisConfig.DB)
	cfg.RedisConfig.PoolSize = getEnvIntOrDefault("REDIS_POOL_SIZE", cfg.RedisConfig.PoolSize)

	// Vault
	cfg.VaultConfig.Enabled = getEnvOrDefault("VAULT_ENABLED", strconv.FormatBool(cfg.VaultConfig.Enabled)) == "true"
	cfg.VaultConfig.Address = getEnvOrDefault("VAULT_ADDR", cfg.VaultConfig.Address)
	cfg.VaultConfig.Token = getEnvOrDefault("VAULT_TOKEN", cfg.VaultConfig.Token)
	cfg.VaultConfig.MountPath = getEnvOrDefault("VAULT_MOUNT_PATH", cfg.VaultConfig.MountPath)
	cfg.VaultConfig.SecretPath = getEnvOrDefault("VAULT_SECRET_PATH", cfg.VaultConfig.SecretPath)
	cfg.VaultConfig.TLSEnabled = getEnvOrDefault("VAULT_TLS_ENABLED", strconv.FormatBool(cfg.VaultConfig.TLSEnabled)) == "true"
	cfg.VaultConfig.CACert = getEnvOrDefault("VAULT_CACERT", cfg.VaultConfig.CACert)

	// Logging
	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", cfg.LoggingConfig.Level)
	cfg.LoggingConfig.JSONFormat = getEnvOrDefault("LOG_JSON", strconv.FormatBool(cfg.LoggingConfig.JSONFormat)) == "true"
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := json.Unmarshal(file, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
