//go:build integration

// Package containers starts shared testcontainers for integration suites.
// Each container is started once per test binary and reused; Ryuk removes
// them when the process exits.
package containers

import (
	"sync"
	"testing"
)

// Manager hands out lazily started, shared containers.
type Manager struct {
	postgresOnce sync.Once
	postgres     *PostgresContainer

	redisOnce sync.Once
	redis     *RedisContainer

	kafkaOnce sync.Once
	kafka     *KafkaContainer
}

var (
	manager     *Manager
	managerOnce sync.Once
)

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	managerOnce.Do(func() {
		manager = &Manager{}
	})
	return manager
}

// GetPostgres returns the shared PostgreSQL container with the schema applied.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	m.postgresOnce.Do(func() {
		m.postgres = NewPostgresContainer(t)
	})
	if m.postgres == nil {
		t.Fatal("postgres container failed to start earlier in this run")
	}
	return m.postgres
}

// GetRedis returns the shared Redis container.
func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	t.Helper()
	m.redisOnce.Do(func() {
		m.redis = NewRedisContainer(t)
	})
	if m.redis == nil {
		t.Fatal("redis container failed to start earlier in this run")
	}
	return m.redis
}

// GetKafka returns the shared Kafka-compatible (Redpanda) container.
func (m *Manager) GetKafka(t *testing.T) *KafkaContainer {
	t.Helper()
	m.kafkaOnce.Do(func() {
		m.kafka = NewKafkaContainer(t)
	})
	if m.kafka == nil {
		t.Fatal("kafka container failed to start earlier in this run")
	}
	return m.kafka
}
