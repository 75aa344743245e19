package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConfigRequirements defines required configuration for each environment
type ConfigRequirements struct {
	// RequirePostgres forces the postgres driver (production only).
	RequirePostgres bool
	// RequireRedis makes the Redis address mandatory.
	RequireRedis bool
}

var requirements = map[Environment]ConfigRequirements{
	Development: {},
	Test:        {},
	CI:          {},
	Production:  {RequirePostgres: true, RequireRedis: true},
}

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()
	reqs := requirements[env]

	var errs []ValidationError

	if cfg.JWTSecret == "" {
		errs = append(errs, ValidationError{Field: "jwt_secret", Message: "is required"})
	}

	switch cfg.DBDriver {
	case DriverPostgres:
		for field, value := range map[string]string{
			"db_host":     cfg.DBHost,
			"db_port":     cfg.DBPort,
			"db_user":     cfg.DBUser,
			"db_password": cfg.DBPassword,
			"db_name":     cfg.DBName,
		} {
			if value == "" {
				errs = append(errs, ValidationError{Field: field, Message: "is required for the postgres driver"})
			}
		}
	case DriverSQLite:
		if reqs.RequirePostgres {
			errs = append(errs, ValidationError{Field: "db_driver", Message: "sqlite is not allowed in " + string(env)})
		}
	default:
		errs = append(errs, ValidationError{Field: "db_driver", Message: fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	if reqs.RequireRedis && cfg.RedisURL == "" && cfg.RedisHost == "" {
		errs = append(errs, ValidationError{Field: "redis_url", Message: "redis_url or redis_host is required"})
	}

	switch cfg.StorageKind {
	case StorageLocal, StorageS3:
	default:
		errs = append(errs, ValidationError{Field: "image_storage", Message: fmt.Sprintf("unsupported storage %q", cfg.StorageKind)})
	}

	switch cfg.DocumentFormat {
	case FormatPDF, FormatText:
	default:
		errs = append(errs, ValidationError{Field: "shopping_list_format", Message: fmt.Sprintf("unsupported format %q", cfg.DocumentFormat)})
	}

	if len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(msgs, "\n"))
	}

	return nil
}
