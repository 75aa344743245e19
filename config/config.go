package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort     string
	ServerHost     string
	AllowedOrigins []string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string
	TokenTTL  time.Duration

	// Media configuration
	MediaRoot   string
	MediaURL    string
	S3Bucket    string
	AWSRegion   string
	StorageKind string

	// Shopping list export
	DocumentFormat string
	RenderTimeout  time.Duration

	LogLevel string
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	StorageLocal = "local"
	StorageS3    = "s3"

	FormatPDF  = "pdf"
	FormatText = "txt"
)

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{}

	switch env {
	case CI:
		if err := loadCIConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load CI configuration: %w", err)
		}
	case Development, Test:
		loadDevConfig(cfg)
	case Production:
		loadProdConfig(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	loadCommon(cfg)
	applyDefaults(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadCIConfig loads configuration for CI environment using ONLY GitHub Actions secrets
func loadCIConfig(cfg *Config) error {
	cfg.ServerPort = os.Getenv("SERVER_PORT")
	cfg.ServerHost = os.Getenv("SERVER_HOST")
	cfg.DBDriver = os.Getenv("DB_DRIVER")
	cfg.DBHost = os.Getenv("DB_HOST")
	cfg.DBPort = os.Getenv("DB_PORT")
	cfg.DBUser = os.Getenv("DB_USER")
	cfg.DBName = os.Getenv("DB_NAME")
	cfg.DBSSLMode = os.Getenv("DB_SSL_MODE")
	cfg.RedisHost = os.Getenv("REDIS_HOST")
	cfg.RedisPort = os.Getenv("REDIS_PORT")

	cfg.DBPassword = os.Getenv("TEST_DB_PASSWORD")
	if cfg.DBPassword == "" && cfg.DBDriver != DriverSQLite {
		return fmt.Errorf("TEST_DB_PASSWORD environment variable is required in CI environment")
	}
	cfg.JWTSecret = os.Getenv("TEST_JWT_SECRET")
	cfg.RedisPassword = os.Getenv("TEST_REDIS_PASSWORD")
	cfg.RedisURL = os.Getenv("TEST_REDIS_URL")
	cfg.RedisDB = 0

	return nil
}

// loadDevConfig reads Docker secrets when they are mounted and falls back to
// the matching environment variable otherwise.
func loadDevConfig(cfg *Config) {
	cfg.ServerPort = secretOrEnv("server_port")
	cfg.ServerHost = secretOrEnv("server_host")
	cfg.DBDriver = secretOrEnv("db_driver")
	cfg.DBHost = secretOrEnv("db_host")
	cfg.DBPort = secretOrEnv("db_port")
	cfg.DBUser = secretOrEnv("db_user")
	cfg.DBPassword = secretOrEnv("db_password")
	cfg.DBName = secretOrEnv("db_name")
	cfg.DBSSLMode = secretOrEnv("db_ssl_mode")
	cfg.RedisHost = secretOrEnv("redis_host")
	cfg.RedisPort = secretOrEnv("redis_port")
	cfg.RedisPassword = secretOrEnv("redis_password")
	cfg.RedisDB = 0
	cfg.JWTSecret = secretOrEnv("jwt_secret")
	cfg.RedisURL = secretOrEnv("redis_url")
}

// loadProdConfig loads configuration for production environment using ONLY Docker secrets
func loadProdConfig(cfg *Config) {
	cfg.ServerPort = readSecret("server_port")
	cfg.ServerHost = readSecret("server_host")
	cfg.DBDriver = DriverPostgres
	cfg.DBHost = readSecret("db_host")
	cfg.DBPort = readSecret("db_port")
	cfg.DBUser = readSecret("db_user")
	cfg.DBPassword = readSecret("db_password")
	cfg.DBName = readSecret("db_name")
	cfg.DBSSLMode = readSecret("db_ssl_mode")
	cfg.RedisHost = readSecret("redis_host")
	cfg.RedisPort = readSecret("redis_port")
	cfg.RedisPassword = readSecret("redis_password")
	cfg.RedisDB = 0
	cfg.JWTSecret = readSecret("jwt_secret")
	cfg.RedisURL = readSecret("redis_url")
}

// loadCommon reads the non-secret settings shared by every environment.
func loadCommon(cfg *Config) {
	cfg.SQLitePath = os.Getenv("SQLITE_PATH")
	cfg.MediaRoot = os.Getenv("MEDIA_ROOT")
	cfg.MediaURL = os.Getenv("MEDIA_URL")
	cfg.S3Bucket = os.Getenv("S3_BUCKET_NAME")
	cfg.AWSRegion = os.Getenv("AWS_REGION")
	cfg.StorageKind = os.Getenv("IMAGE_STORAGE")
	cfg.DocumentFormat = os.Getenv("SHOPPING_LIST_FORMAT")
	cfg.LogLevel = os.Getenv("LOG_LEVEL")

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}
	if ttl, err := time.ParseDuration(os.Getenv("TOKEN_TTL")); err == nil {
		cfg.TokenTTL = ttl
	}
	if timeout, err := time.ParseDuration(os.Getenv("RENDER_TIMEOUT")); err == nil {
		cfg.RenderTimeout = timeout
	}
	if db, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil {
		cfg.RedisDB = db
	}
}

func applyDefaults(cfg *Config) {
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.DBDriver == "" {
		cfg.DBDriver = DriverPostgres
	}
	if cfg.DBSSLMode == "" {
		cfg.DBSSLMode = "disable"
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = "foodgram.db"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.MediaRoot == "" {
		cfg.MediaRoot = "media"
	}
	if cfg.MediaURL == "" {
		cfg.MediaURL = "/media"
	}
	if cfg.S3Bucket == "" {
		cfg.S3Bucket = "foodgram-recipe-images"
	}
	if cfg.StorageKind == "" {
		cfg.StorageKind = StorageLocal
	}
	if cfg.DocumentFormat == "" {
		cfg.DocumentFormat = FormatPDF
	}
	if cfg.RenderTimeout == 0 {
		cfg.RenderTimeout = 20 * time.Second
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:3000", "http://frontend:3000"}
	}
}

// DSN builds the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == DriverSQLite {
		return c.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func secretsDir() string {
	dir := os.Getenv("SECRETS_DIR")
	if dir == "" {
		dir = "/run/secrets"
	}
	return dir
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	if data, err := os.ReadFile(filepath.Join(secretsDir(), name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

// secretOrEnv prefers the Docker secret and falls back to the upper-cased
// environment variable of the same name.
func secretOrEnv(name string) string {
	if v := readSecret(name); v != "" {
		return v
	}
	return os.Getenv(strings.ToUpper(name))
}
