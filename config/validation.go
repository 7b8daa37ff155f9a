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
	RequiredSecrets []string
	RequireRedis    bool
}

var (
	// Environment-specific requirements
	requirements = map[Environment]ConfigRequirements{
		Development: {},
		Test:        {},
		CI:          {},
		Production: {
			RequiredSecrets: []string{
				"db_user",
				"db_password",
				"jwt_secret",
			},
			RequireRedis: true,
		},
	}
)

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()
	reqs := requirements[env]

	var errors []string

	for _, secret := range reqs.RequiredSecrets {
		if value := readSecret(secret); value == "" {
			errors = append(errors, fmt.Sprintf("required secret %s is not set", secret))
		}
	}
	if reqs.RequireRedis && cfg.RedisURL == "" {
		errors = append(errors, "redis_url secret is required")
	}

	if cfg.JWTSecret == "" {
		errors = append(errors, ValidationError{Field: "JWT_SECRET", Message: "must not be empty"}.Error())
	}
	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		errors = append(errors, ValidationError{Field: "DB_DRIVER", Message: "must be postgres or sqlite"}.Error())
	}
	switch cfg.MediaBackend {
	case "local", "s3":
	default:
		errors = append(errors, ValidationError{Field: "MEDIA_BACKEND", Message: "must be local or s3"}.Error())
	}
	if cfg.PageSize < 1 {
		errors = append(errors, ValidationError{Field: "PAGE_SIZE", Message: "must be positive"}.Error())
	}
	if cfg.TokenTTL <= 0 {
		errors = append(errors, ValidationError{Field: "TOKEN_TTL", Message: "must be positive"}.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}
