// Package config loads the portal's settings from environment variables with
// validation up front, so a misconfigured deployment fails at startup rather
// than mid-request.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Database configuration.
	DatabaseDriver string // postgres or sqlite
	DatabaseDSN    string

	// Advisory configuration.
	RulesPath   string // empty means the embedded rule set
	SnapshotTTL time.Duration

	// Dispatcher configuration.
	DispatchLimit int

	// Delivery provider configuration.
	SMSProvider     string // mock, gateway, or kafka
	SMSGatewayURL   string
	SMSGatewayKey   string
	SMSTimeout      time.Duration
	MockFailureRate float64
	KafkaBrokers    []string
	KafkaSMSTopic   string

	// Text generation configuration.
	TextGenEnabled bool
	OpenAIKey      string
	OpenAIModel    string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	snapshotTTL, err := parseDuration("SNAPSHOT_TTL", "6h")
	if err != nil {
		return nil, err
	}
	smsTimeout, err := parseDuration("SMS_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	dispatchLimit, err := parsePositiveInt("DISPATCH_LIMIT", 100)
	if err != nil {
		return nil, err
	}

	failureRate, err := parseFailureRate()
	if err != nil {
		return nil, err
	}

	openAIKey := os.Getenv("OPENAI_API_KEY")
	textGenEnabled := openAIKey != ""
	if v := os.Getenv("TEXTGEN_ENABLED"); v != "" {
		textGenEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatabaseDriver: envOrDefault("DATABASE_DRIVER", "postgres"),
		DatabaseDSN:    os.Getenv("DATABASE_DSN"),

		RulesPath:   os.Getenv("RULES_PATH"),
		SnapshotTTL: snapshotTTL,

		DispatchLimit: dispatchLimit,

		SMSProvider:     envOrDefault("SMS_PROVIDER", "mock"),
		SMSGatewayURL:   os.Getenv("SMS_GATEWAY_URL"),
		SMSGatewayKey:   os.Getenv("SMS_GATEWAY_KEY"),
		SMSTimeout:      smsTimeout,
		MockFailureRate: failureRate,
		KafkaBrokers:    parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSMSTopic:   envOrDefault("KAFKA_SMS_TOPIC", "outbound-sms"),

		TextGenEnabled: textGenEnabled,
		OpenAIKey:      openAIKey,
		OpenAIModel:    os.Getenv("OPENAI_MODEL"),
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if cfg.DatabaseDSN == "" {
		return nil, errors.New("DATABASE_DSN is required")
	}

	switch cfg.SMSProvider {
	case "mock":
	case "gateway":
		if cfg.SMSGatewayURL == "" || cfg.SMSGatewayKey == "" {
			return nil, errors.New("SMS_PROVIDER is gateway but SMS_GATEWAY_URL or SMS_GATEWAY_KEY is not set")
		}
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("SMS_PROVIDER is kafka but KAFKA_BROKERS is not set")
		}
	default:
		return nil, fmt.Errorf("unsupported SMS_PROVIDER %q", cfg.SMSProvider)
	}

	if cfg.TextGenEnabled && cfg.OpenAIKey == "" {
		return nil, errors.New("TEXTGEN_ENABLED is true but OPENAI_API_KEY is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseFailureRate() (float64, error) {
	s := os.Getenv("MOCK_FAILURE_RATE")
	if s == "" {
		return 0.05, nil
	}
	rate, err := strconv.ParseFloat(s, 64)
	if err != nil || rate < 0 || rate > 1 {
		return 0, errors.New("invalid MOCK_FAILURE_RATE")
	}
	return rate, nil
}
