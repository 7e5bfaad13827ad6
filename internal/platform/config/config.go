package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process-level configuration so main stays lean.
type Config struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string

	// AnalyzerURL is the base URL of the external clause analysis service.
	AnalyzerURL string
	// RuleEngineURL is the base URL of the policy rule evaluation service.
	RuleEngineURL string
	// InternalAPIBaseURL/InternalAPIKey address the owning proposal subsystem's
	// verify-actor endpoint when it is deployed as a separate service.
	InternalAPIBaseURL string
	InternalAPIKey     string

	Redis RedisConfig
	Kafka KafkaConfig

	// UploadDir is where generated policy rule files land when the rule engine
	// cannot generate one itself.
	UploadDir string
}

// RedisConfig configures the optional actor-resolution cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// ActorCacheTTL bounds how long a resolved actor may be served from cache.
	ActorCacheTTL time.Duration
}

// KafkaConfig configures the outbox relay.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds the Config from environment variables with development defaults.
func FromEnv() Config {
	cfg := Config{
		Addr:               getenv("PACTUM_ADDR", ":8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSigningKey:      getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		AnalyzerURL:        getenv("ANALYZER_URL", "http://localhost:5000"),
		RuleEngineURL:      getenv("RULE_ENGINE_URL", "http://localhost:5001"),
		InternalAPIBaseURL: os.Getenv("INTERNAL_API_BASE_URL"),
		InternalAPIKey:     os.Getenv("INTERNAL_API_KEY"),
		UploadDir:          getenv("UPLOAD_DIR", "uploads"),
		Redis: RedisConfig{
			URL:           os.Getenv("REDIS_URL"),
			PoolSize:      10,
			MinIdleConns:  2,
			DialTimeout:   2 * time.Second,
			ReadTimeout:   500 * time.Millisecond,
			WriteTimeout:  500 * time.Millisecond,
			ActorCacheTTL: 30 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic: getenv("KAFKA_LIFECYCLE_TOPIC", "contract.lifecycle"),
		},
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
