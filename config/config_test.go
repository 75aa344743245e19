package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CI", "")
	t.Setenv("ENV", "development")
	t.Setenv("SECRETS_DIR", dir)
	for _, key := range []string{
		"SERVER_PORT", "SERVER_HOST", "DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER",
		"DB_PASSWORD", "DB_NAME", "DB_SSL_MODE", "REDIS_HOST", "REDIS_PORT",
		"REDIS_PASSWORD", "REDIS_URL", "JWT_SECRET", "IMAGE_STORAGE",
		"SHOPPING_LIST_FORMAT", "TOKEN_TTL", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func TestLoadConfig(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("DB_NAME", "foodgram")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "postgres", cfg.DBPassword)
	assert.Equal(t, "disable", cfg.DBSSLMode)
	assert.Equal(t, "test-secret", cfg.JWTSecret)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=foodgram sslmode=disable", cfg.DSN())
}

func TestLoadConfigPrefersSecrets(t *testing.T) {
	dir := isolateEnv(t)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "from-env")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jwt_secret"), []byte("from-secret\n"), 0o600))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-secret", cfg.JWTSecret)
	assert.Equal(t, "foodgram.db", cfg.DSN())
}

func TestLoadConfigWithDefaults(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, StorageLocal, cfg.StorageKind)
	assert.Equal(t, FormatPDF, cfg.DocumentFormat)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "/media", cfg.MediaURL)
}

func TestValidateConfig(t *testing.T) {
	isolateEnv(t)

	t.Run("missing postgres settings", func(t *testing.T) {
		err := ValidateConfig(&Config{DBDriver: DriverPostgres, JWTSecret: "x", StorageKind: StorageLocal, DocumentFormat: FormatPDF})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_host")
		assert.Contains(t, err.Error(), "db_password")
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		err := ValidateConfig(&Config{DBDriver: DriverSQLite, StorageKind: StorageLocal, DocumentFormat: FormatPDF})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt_secret")
	})

	t.Run("sqlite rejected in production", func(t *testing.T) {
		t.Setenv("ENV", "production")
		err := ValidateConfig(&Config{DBDriver: DriverSQLite, JWTSecret: "x", RedisURL: "redis://r", StorageKind: StorageS3, DocumentFormat: FormatPDF})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_driver")
	})

	t.Run("unknown document format", func(t *testing.T) {
		err := ValidateConfig(&Config{DBDriver: DriverSQLite, JWTSecret: "x", StorageKind: StorageLocal, DocumentFormat: "docx"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "shopping_list_format")
	})
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("CI", "true")
	assert.Equal(t, CI, GetEnvironment())

	t.Setenv("CI", "")
	t.Setenv("ENV", "production")
	assert.Equal(t, Production, GetEnvironment())
	assert.True(t, IsProduction())

	t.Setenv("ENV", "")
	assert.Equal(t, Development, GetEnvironment())
}

func TestS3ReadPolicy(t *testing.T) {
	s := &S3Config{BucketName: "images", Region: "eu-west-1"}

	policy, err := s.ReadPolicy()
	require.NoError(t, err)
	assert.Contains(t, policy, `"Resource":"arn:aws:s3:::images/recipes/*"`)
	assert.Contains(t, policy, `"Action":"s3:GetObject"`)

	assert.Equal(t, "https://images.s3.eu-west-1.amazonaws.com/recipes/a.png", s.PublicURL("recipes/a.png"))
}
