// env.go - Environment variable configuration and validation
package conf

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix namespaces automatic environment overrides, SHOBDOTORI_WEBSERVER_PORT etc.
const envPrefix = "SHOBDOTORI"

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns the variables of the original deployment that keep
// their unprefixed names.
func getEnvBindings() []envBinding {
	return []envBinding{
		{"webserver.port", "PORT", validateEnvPort},
		{"webserver.allowedorigins", "ALLOWED_ORIGINS", validateEnvOrigins},
		{"upload.maxfilesize", "MAX_FILE_SIZE", validateEnvSize},
		{"database.url", "DATABASE_URL", validateEnvDatabaseURL},

		{"storage.gdrive.clientid", "GOOGLE_CLIENT_ID", nil},
		{"storage.gdrive.clientsecret", "GOOGLE_CLIENT_SECRET", nil},
		{"storage.gdrive.refreshtoken", "GOOGLE_REFRESH_TOKEN", nil},
		{"storage.gdrive.folderid", "GOOGLE_DRIVE_FOLDER_ID", nil},

		{"sentry.dsn", "SENTRY_DSN", validateEnvURL},
		{"debug", "SHOBDOTORI_DEBUG", validateEnvBool},
		{"tracker.selection", "SHOBDOTORI_TRACKER_SELECTION", validateEnvSelection},
		{"upload.rejectindexmismatch", "SHOBDOTORI_UPLOAD_REJECTINDEXMISMATCH", validateEnvBool},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars(v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var warnings []string

	for _, binding := range getEnvBindings() {
		// the prefixed name stays valid next to the legacy one; BindEnv prefers the first that is set
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(binding.ConfigKey, ".", "_"))
		names := []string{binding.ConfigKey, binding.EnvVar}
		if prefixed != binding.EnvVar {
			names = []string{binding.ConfigKey, prefixed, binding.EnvVar}
		}

		if err := v.BindEnv(names...); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, redactEnvValue(binding.EnvVar, envValue), err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

// redactEnvValue keeps credentials out of startup warnings
func redactEnvValue(name, value string) string {
	if strings.Contains(name, "URL") || strings.Contains(name, "DSN") {
		if u, err := url.Parse(value); err == nil && u.User != nil {
			u.User = url.User("[REDACTED]")
			return u.String()
		}
	}
	return value
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f", value)
	}
	return nil
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid port: %w", err)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

func validateEnvOrigins(value string) error {
	for origin := range strings.SplitSeq(value, ",") {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			continue
		}
		if err := validateEnvURL(origin); err != nil {
			return fmt.Errorf("origin %q: %w", origin, err)
		}
	}
	return nil
}

func validateEnvSize(value string) error {
	n, err := parseSize(value)
	if err != nil {
		return err
	}
	if n <= 0 {
		return fmt.Errorf("size must be positive, got %d", n)
	}
	return nil
}

func validateEnvURL(value string) error {
	u, err := url.Parse(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("URL must include scheme and host")
	}
	return nil
}

func validateEnvDatabaseURL(value string) error {
	_, err := ParseDatabaseURL(value)
	return err
}

func validateEnvSelection(value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case SelectionSequential, SelectionRandom:
		return nil
	default:
		return fmt.Errorf("must be one of: %s, %s", SelectionSequential, SelectionRandom)
	}
}
