package kafka

import (
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// DefaultFlushTimeout bounds the flush performed by Close.
const DefaultFlushTimeout = 15 * time.Second

// Event Hubs accepts SASL PLAIN with this fixed username and a namespace
// connection string as the password.
const (
	EventHubsUsername         = "$ConnectionString"
	EventHubsSecurityProtocol = "SASL_SSL"
	EventHubsMechanism        = "PLAIN"
)

// SASLConfig holds SASL authentication settings. It is applied only when
// Mechanism is set.
type SASLConfig struct {
	Username         string
	Password         string
	Mechanism        string
	SecurityProtocol string
}

// Enabled reports whether SASL settings should be applied.
func (s SASLConfig) Enabled() bool {
	return s.Mechanism != ""
}

// ApplyToConfigMap copies the SASL settings into cfg.
func (s SASLConfig) ApplyToConfigMap(cfg *kafka.ConfigMap) {
	if !s.Enabled() {
		return
	}
	protocol := s.SecurityProtocol
	if protocol == "" {
		protocol = EventHubsSecurityProtocol
	}
	_ = cfg.SetKey("security.protocol", protocol)
	_ = cfg.SetKey("sasl.mechanisms", s.Mechanism)
	_ = cfg.SetKey("sasl.username", s.Username)
	_ = cfg.SetKey("sasl.password", s.Password)
}

// ProducerConfig describes a producer client.
type ProducerConfig struct {
	BootstrapServers string
	ClientID         string
	EnableLogs       bool
	// MessageTimeout bounds how long librdkafka retries one record; 0 keeps the
	// client default.
	MessageTimeout time.Duration
	SASL           SASLConfig
}

// ConfigMap builds the librdkafka configuration for the producer.
func (c ProducerConfig) ConfigMap() *kafka.ConfigMap {
	cfg := &kafka.ConfigMap{
		"bootstrap.servers": c.BootstrapServers,
		"client.id":         c.ClientID,

		// Wait for all in-sync replicas so a delivery report means the record is durable.
		"acks": "all",

		// Records are produced one at a time by an operator, no batching needed.
		"linger.ms": 0,

		"go.logs.channel.enable": c.EnableLogs,
	}
	if c.MessageTimeout > 0 {
		_ = cfg.SetKey("message.timeout.ms", int(c.MessageTimeout.Milliseconds()))
	}
	c.SASL.ApplyToConfigMap(cfg)
	return cfg
}

// EventHubsProducerConfig returns the producer settings for the Kafka endpoint
// of an Event Hubs namespace.
func EventHubsProducerConfig(host string, port int, connectionString, clientID string) ProducerConfig {
	return ProducerConfig{
		BootstrapServers: fmt.Sprintf("%s:%d", host, port),
		ClientID:         clientID,
		SASL: SASLConfig{
			Username:         EventHubsUsername,
			Password:         connectionString,
			Mechanism:        EventHubsMechanism,
			SecurityProtocol: EventHubsSecurityProtocol,
		},
	}
}
