package config

import (
	"os"
)

// Environment selects where configuration values are read from.
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment reads ENV; CI=true overrides it.
func GetEnvironment() Environment {
	if os.Getenv("CI") == "true" {
		return CI
	}

	switch env := Environment(os.Getenv("ENV")); env {
	case Production, Test, Development:
		return env
	default:
		return Development
	}
}

// IsProduction switches logging to JSON and gin to release mode.
func IsProduction() bool {
	return GetEnvironment() == Production
}
