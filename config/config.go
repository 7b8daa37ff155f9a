package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort   string
	ServerHost   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis configuration, optional outside production
	RedisURL string

	// JWT configuration
	JWTSecret string
	TokenTTL  time.Duration

	// Pagination
	PageSize int

	// Media storage
	MediaBackend string
	MediaRoot    string
	MediaURL     string
	S3BucketName string
	AWSRegion    string

	// Limits
	RecipesPerHour     int
	LoginPerMinute     int
	MaxUploadSizeBytes int64

	LogLevel string
}

// DSN returns the postgres connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Addr returns the listen address of the HTTP server
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{}

	// A missing .env file is not an error; real environment variables win.
	_ = godotenv.Load()

	switch env {
	case CI:
		if err := loadCIConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load CI configuration: %w", err)
		}
	case Development, Test:
		if err := loadDevConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load development configuration: %w", err)
		}
	case Production:
		if err := loadProdConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load production configuration: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadCommon fills the non-sensitive settings shared by all environments
func loadCommon(cfg *Config) error {
	var err error

	cfg.ServerPort = getEnv("SERVER_PORT", "8000")
	cfg.ServerHost = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "http://localhost:3000"))

	cfg.DBDriver = getEnv("DB_DRIVER", "postgres")
	cfg.DBHost = getEnv("DB_HOST", "localhost")
	cfg.DBPort = getEnv("DB_PORT", "5432")
	cfg.DBName = getEnv("DB_NAME", "foodgram")
	cfg.DBSSLMode = getEnv("DB_SSL_MODE", "disable")
	cfg.SQLitePath = getEnv("SQLITE_PATH", "foodgram.db")

	cfg.MediaBackend = getEnv("MEDIA_BACKEND", "local")
	cfg.MediaRoot = getEnv("MEDIA_ROOT", "media")
	cfg.MediaURL = getEnv("MEDIA_URL", "/media/")
	cfg.S3BucketName = getEnv("S3_BUCKET_NAME", "foodgram-recipe-images")
	cfg.AWSRegion = os.Getenv("AWS_REGION")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	if cfg.ReadTimeout, err = getDuration("SERVER_READ_TIMEOUT", 15*time.Second); err != nil {
		return err
	}
	if cfg.WriteTimeout, err = getDuration("SERVER_WRITE_TIMEOUT", 15*time.Second); err != nil {
		return err
	}
	if cfg.TokenTTL, err = getDuration("TOKEN_TTL", 24*time.Hour); err != nil {
		return err
	}
	if cfg.PageSize, err = getInt("PAGE_SIZE", 6); err != nil {
		return err
	}
	if cfg.RecipesPerHour, err = getInt("RATE_LIMIT_RECIPES_PER_HOUR", 30); err != nil {
		return err
	}
	if cfg.LoginPerMinute, err = getInt("LOGIN_RATE_PER_MINUTE", 10); err != nil {
		return err
	}
	maxUpload, err := getInt("MAX_UPLOAD_SIZE_MB", 10)
	if err != nil {
		return err
	}
	cfg.MaxUploadSizeBytes = int64(maxUpload) << 20

	return nil
}

// loadCIConfig loads configuration for CI environment using ONLY environment variables
func loadCIConfig(cfg *Config) error {
	if err := loadCommon(cfg); err != nil {
		return err
	}
	cfg.DBUser = os.Getenv("DB_USER")
	cfg.DBPassword = os.Getenv("TEST_DB_PASSWORD")
	if cfg.DBPassword == "" {
		return fmt.Errorf("TEST_DB_PASSWORD environment variable is required in CI environment")
	}
	cfg.JWTSecret = os.Getenv("TEST_JWT_SECRET")
	cfg.RedisURL = os.Getenv("TEST_REDIS_URL")

	return nil
}

// loadDevConfig loads configuration for development and test environments.
// Environment variables take precedence, docker secrets fill the gaps.
func loadDevConfig(cfg *Config) error {
	if err := loadCommon(cfg); err != nil {
		return err
	}
	cfg.DBUser = getEnvOrSecret("DB_USER", "db_user", "postgres")
	cfg.DBPassword = getEnvOrSecret("DB_PASSWORD", "db_password", "postgres")
	cfg.JWTSecret = getEnvOrSecret("JWT_SECRET", "jwt_secret", "development-secret")
	cfg.RedisURL = getEnvOrSecret("REDIS_URL", "redis_url", "")

	return nil
}

// loadProdConfig loads configuration for production; credentials come ONLY from Docker secrets
func loadProdConfig(cfg *Config) error {
	if err := loadCommon(cfg); err != nil {
		return err
	}
	cfg.DBUser = readSecret("db_user")
	cfg.DBPassword = readSecret("db_password")
	cfg.JWTSecret = readSecret("jwt_secret")
	cfg.RedisURL = readSecret("redis_url")

	return nil
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvOrSecret(key, secret, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := readSecret(secret); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
