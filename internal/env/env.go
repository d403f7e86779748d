// Package env resolves the runtime environment of a campus-assistant binary.
package env

import (
	"os"
	"strings"

	"github.com/ekisa-team/campus-assistant/internal/envvar"
)

// Environment is the deployment environment a binary runs in.
type Environment string

const (
	// Development enables human-friendly console output.
	Development Environment = "development"

	// Production emits structured JSON logs.
	Production Environment = "production"

	// Test is used by test harnesses.
	Test Environment = "test"
)

// FromEnv reads the environment from CAMPUS_ENV, defaulting to development.
func FromEnv() Environment {
	return Parse(os.Getenv(envvar.CampusEnv))
}

// Parse converts a raw value into an Environment.
func Parse(raw string) Environment {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "prod", "production":
		return Production
	case "test":
		return Test
	default:
		return Development
	}
}

// IsProduction reports whether e is the production environment.
func (e Environment) IsProduction() bool {
	return e == Production
}
