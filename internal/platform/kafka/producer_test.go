package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitties/internal/platform/config"
)

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(config.KafkaConfig{})
	assert.Error(t, err)
}

func TestNewProducer_LazyConnect(t *testing.T) {
	p, err := NewProducer(config.KafkaConfig{Brokers: []string{"127.0.0.1:1"}, Topic: "kitties.events", ClientID: "test"})
	require.NoError(t, err)
	assert.NotNil(t, p.Client())
	p.Close()
}
