package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Remote SOP API
	APIBaseURL string

	// Session
	TokenFile string

	// Local snapshot mirror
	SnapshotDBPath string

	// AMQP mutation events (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker
	RefreshInterval time.Duration
}

func Load() *Config {
	return &Config{
		Port:       getEnv("PORT", "8081"),
		APIBaseURL: getEnv("SOP_API_BASE_URL", "https://sop-challenge-back-production.up.railway.app"),

		TokenFile:      getEnv("SOP_TOKEN_FILE", "./data/token"),
		SnapshotDBPath: getEnv("SNAPSHOT_DB_PATH", "./data/sopdash.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "sopdash"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "mutations"),

		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 5*time.Minute),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.APIBaseURL == "" {
		errors = append(errors, "SOP_API_BASE_URL must not be empty")
	} else if u, err := url.Parse(c.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid SOP_API_BASE_URL '%s': must be an absolute URL", c.APIBaseURL))
	}

	if c.TokenFile == "" {
		errors = append(errors, "SOP_TOKEN_FILE must not be empty")
	}

	if c.SnapshotDBPath == "" {
		errors = append(errors, "SNAPSHOT_DB_PATH must not be empty")
	}

	// AMQP is optional; when enabled the exchange and queue must be named.
	if c.AMQPURL != "" {
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP_EXCHANGE must not be empty when AMQP_URL is set")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP_QUEUE must not be empty when AMQP_URL is set")
		}
	}

	if c.RefreshInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid REFRESH_INTERVAL %s: must be at least 1s", c.RefreshInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errors, "; "))
	}
	return nil
}

// EventsEnabled reports whether mutation-event publishing is configured.
func (c *Config) EventsEnabled() bool {
	return c.AMQPURL != ""
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
