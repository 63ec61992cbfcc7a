package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gatekeeper/internal/platform/admission"
	"gatekeeper/internal/shared/events"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string
	EventsTopic  string

	TokenIssuer   string
	TokenAudience string
	// Key sources accept a PEM file path or inline PEM material.
	TokenPublicKey  string
	TokenPrivateKey string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	IdentityAPIURL     string
	IdentityAPITimeout time.Duration

	AdmissionRules []admission.FlowRule

	OutboxPollInterval  time.Duration
	OutboxMaxRetries    int
	ConsumerMaxAttempts int

	// UseInProcBus swaps Kafka for the in-process bus; dev/test runs only.
	UseInProcBus bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "gatekeeper"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	topic := os.Getenv("EVENTS_TOPIC")
	if topic == "" {
		topic = events.TopicUserRegistered
	}

	issuer := os.Getenv("TOKEN_ISSUER")
	if issuer == "" {
		issuer = "gatekeeper"
	}
	audience := os.Getenv("TOKEN_AUDIENCE")
	if audience == "" {
		audience = "gatekeeper-clients"
	}

	rules, err := loadAdmissionRules()
	if err != nil {
		return Config{}, err
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,
		EventsTopic:  topic,

		TokenIssuer:     issuer,
		TokenAudience:   audience,
		TokenPublicKey:  os.Getenv("TOKEN_PUBLIC_KEY"),
		TokenPrivateKey: os.Getenv("TOKEN_PRIVATE_KEY"),
		AccessTokenTTL:  envDuration("ACCESS_TOKEN_TTL", 30*time.Minute),
		RefreshTokenTTL: envDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),

		IdentityAPIURL:     os.Getenv("IDENTITY_API_URL"),
		IdentityAPITimeout: envDuration("IDENTITY_API_TIMEOUT", 5*time.Second),

		AdmissionRules: rules,

		OutboxPollInterval:  envDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		OutboxMaxRetries:    envInt("OUTBOX_MAX_RETRIES", 5),
		ConsumerMaxAttempts: envInt("CONSUMER_MAX_ATTEMPTS", 5),

		UseInProcBus: envBool("USE_INPROC_BUS", false),
	}, nil
}

func loadAdmissionRules() ([]admission.FlowRule, error) {
	raw := strings.TrimSpace(os.Getenv("ADMISSION_RULES"))
	if raw == "" {
		return nil, nil
	}
	rules, err := admission.ParseRules(raw)
	if err != nil {
		return nil, fmt.Errorf("parse ADMISSION_RULES: %w", err)
	}
	return rules, nil
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
