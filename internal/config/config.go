// Package config manages environment variables.
//
// It reads variables from the process environment (and a `.env` file,
// when present), loads them into structured Go types, and validates that
// required values are present so they can be reused across the application
// runtime.
//
// Responsibilities:
//   - Provide defaults for every setting, so the gateway starts with no env.
//   - Map env vars into a structured Go config (structs).
//   - Validate the result so the app fails fast on bad config.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists, it is loaded into the
	// process env before any variable is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Env vars are read using the POSTGATEWAY_ prefix. After the prefix is
	removed and the key lowercased, a double underscore marks nesting:

	  POSTGATEWAY_SERVER__PORT             -> server.port
	  POSTGATEWAY_UPSTREAM__BASE_URL       -> upstream.base_url
	  POSTGATEWAY_OBSERVABILITY__LOGGING__LEVEL -> observability.logging.level

	The bare PORT variable is honoured as well and wins over server.port.
*/

const (
	// EnvPrefix is the prefix every gateway env var carries.
	EnvPrefix = "POSTGATEWAY_"

	// PortEnv is the conventional, unprefixed listening port variable.
	PortEnv = "PORT"

	// DefaultPort is used when neither PORT nor server.port is set.
	DefaultPort = "3000"

	// DefaultUpstreamBaseURL is the public placeholder service the gateway
	// fronts unless told otherwise.
	DefaultUpstreamBaseURL = "https://jsonplaceholder.typicode.com"

	// ServiceName identifies this service in logs and APM.
	ServiceName = "post-gateway"
)

// Config is the root configuration object for the application.
//
// Observability is a pointer because it is optional. If not provided,
// defaults are injected at load time.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Upstream      UpstreamConfig       `koanf:"upstream" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the inbound HTTP server.
//
// Timeouts are whole seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required,numeric"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required,min=1"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required,min=1"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required,min=1"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required,min=1"`
}

// UpstreamConfig describes the remote post service.
//
// There is deliberately no timeout or retry setting: outbound calls are
// fire-once and bounded only by the inbound request context.
type UpstreamConfig struct {
	BaseURL   string `koanf:"base_url" validate:"required,url"`
	UserAgent string `koanf:"user_agent"`
}

// defaults returns the baseline configuration as a flat koanf map.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"primary.env":                 "development",
		"server.port":                 DefaultPort,
		"server.read_timeout":         30,
		"server.write_timeout":        30,
		"server.idle_timeout":         60,
		"server.cors_allowed_origins": []string{"*"},
		"upstream.base_url":           DefaultUpstreamBaseURL,
		"upstream.user_agent":         ServiceName,

		// Level and format stay empty so they follow the environment.
		"observability.new_relic.app_log_forwarding_enabled":  true,
		"observability.new_relic.distributed_tracing_enabled": true,
		"observability.health_checks.enabled":                 true,
		"observability.health_checks.timeout":                 "5s",
	}
}

// envKey maps a raw env var name onto a koanf key path.
//
// POSTGATEWAY_SERVER__READ_TIMEOUT -> server.read_timeout
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// envValue maps one env var into a koanf key/value pair. List settings
// (keys ending in "origins") are split on commas.
//
// An empty value returns an empty key, which koanf skips, so a blank
// variable leaves the default in place.
func envValue(s, v string) (string, interface{}) {
	if strings.TrimSpace(v) == "" {
		return "", nil
	}

	key := envKey(s)

	if strings.HasSuffix(key, "origins") {
		parts := strings.Split(v, ",")
		values := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				values = append(values, p)
			}
		}
		return key, values
	}

	return key, v
}

// LoadConfig loads configuration from defaults and environment variables,
// unmarshals it into Config, validates it, and applies observability defaults.
//
// Behavior summary:
//   - Loads built-in defaults
//   - Loads env vars with prefix POSTGATEWAY_ on top
//   - Applies the bare PORT variable on top of that
//   - Validates required config blocks/fields
//   - Sets default observability if missing and pins its service name and
//     environment
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("could not load config defaults: %w", err)
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	if port := strings.TrimSpace(os.Getenv(PortEnv)); port != "" {
		if err := k.Set("server.port", port); err != nil {
			return nil, fmt.Errorf("could not apply %s: %w", PortEnv, err)
		}
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name and environment always follow the primary config, so every
	// log line and trace is labelled the same way.
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}
