package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"

	kstrings "kitties/pkg/platform/strings"
)

// Storage backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Event sinks. "outbox" requires the postgres backend.
const (
	EventsLog    = "log"
	EventsKafka  = "kafka"
	EventsOutbox = "outbox"
)

const devSigningKey = "dev-secret-key-change-in-production"

// Config is the process configuration, read from the environment.
type Config struct {
	Addr          string `env:"KITTIES_ADDR" envDefault:":8080"`
	Environment   string `env:"KITTIES_ENV" envDefault:"local"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	JWTSigningKey string `env:"JWT_SIGNING_KEY"`
	JWTIssuer     string `env:"JWT_ISSUER" envDefault:"kitties"`
	JWTAudience   string `env:"JWT_AUDIENCE" envDefault:"kitties-api"`

	Store     string `env:"KITTIES_STORE" envDefault:"memory"`
	Events    string `env:"KITTIES_EVENTS" envDefault:"log"`
	DNAHasher string `env:"KITTIES_DNA_HASHER" envDefault:"sha2-256"`

	Chain    ChainConfig    `envPrefix:"KITTIES_CHAIN_"`
	Database DatabaseConfig `envPrefix:"DATABASE_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Kafka    KafkaConfig    `envPrefix:"KAFKA_"`
	Outbox   OutboxConfig   `envPrefix:"OUTBOX_"`
}

// ChainConfig drives the block height counter.
type ChainConfig struct {
	Genesis   time.Time     `env:"GENESIS" envDefault:"2025-01-01T00:00:00Z"`
	BlockTime time.Duration `env:"BLOCK_TIME" envDefault:"6s"`
}

// DatabaseConfig configures the PostgreSQL connection pool.
type DatabaseConfig struct {
	URL             string        `env:"URL"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
}

// RedisConfig configures the Redis client.
type RedisConfig struct {
	URL          string        `env:"URL"`
	KeyPrefix    string        `env:"KEY_PREFIX" envDefault:"kitty:dna:"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig configures the event producer.
type KafkaConfig struct {
	Brokers  []string `env:"BROKERS" envSeparator:","`
	Topic    string   `env:"TOPIC" envDefault:"kitties.events"`
	ClientID string   `env:"CLIENT_ID" envDefault:"kitties"`
	// Partitions and ReplicationFactor apply when the topic is created at
	// startup; -1 takes the broker default.
	Partitions        int32 `env:"PARTITIONS" envDefault:"3"`
	ReplicationFactor int16 `env:"REPLICATION_FACTOR" envDefault:"-1"`
}

// OutboxConfig configures the outbox relay.
type OutboxConfig struct {
	Interval  time.Duration `env:"INTERVAL" envDefault:"1s"`
	BatchSize int           `env:"BATCH_SIZE" envDefault:"100"`
	Buffer    int           `env:"ASYNC_BUFFER" envDefault:"1024"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints and fills the development key.
func (c *Config) Validate() error {
	if c.JWTSigningKey == "" {
		if c.Environment != "local" {
			return fmt.Errorf("JWT_SIGNING_KEY is required outside local")
		}
		c.JWTSigningKey = devSigningKey
	}
	if !slices.Contains([]string{StoreMemory, StorePostgres, StoreRedis}, c.Store) {
		return fmt.Errorf("unknown KITTIES_STORE %q", c.Store)
	}
	if !slices.Contains([]string{EventsLog, EventsKafka, EventsOutbox}, c.Events) {
		return fmt.Errorf("unknown KITTIES_EVENTS %q", c.Events)
	}
	if c.Store == StorePostgres && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required for the postgres store")
	}
	if c.Store == StoreRedis && c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required for the redis store")
	}
	if c.Events == EventsOutbox && c.Store != StorePostgres {
		return fmt.Errorf("KITTIES_EVENTS=outbox requires KITTIES_STORE=postgres")
	}
	c.Kafka.Brokers = kstrings.DedupeAndTrim(c.Kafka.Brokers)
	if (c.Events == EventsKafka || c.Events == EventsOutbox) && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required for %s events", c.Events)
	}
	if c.Chain.BlockTime <= 0 {
		return fmt.Errorf("KITTIES_CHAIN_BLOCK_TIME must be positive")
	}
	return nil
}

// IsLocal reports whether the process runs in local development.
func (c *Config) IsLocal() bool {
	return c.Environment == "local"
}
