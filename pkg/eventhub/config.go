package eventhub

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Transport names accepted by Config.Transport.
const (
	TransportAMQP  = "amqp"
	TransportKafka = "kafka"
)

// Default values applied by WithDefaults.
const (
	DefaultConnectTimeout    = 30 * time.Second
	DefaultSendTimeout       = 60 * time.Second
	DefaultKafkaPort         = 9093
	DefaultKafkaFlushTimeout = 15 * time.Second
	DefaultContainerID       = "eventhubsender"
)

// Config holds the connection settings that are not part of the Descriptor.
type Config struct {
	Domain             string        `env:"EVENTHUB_DOMAIN"              envDefault:"servicebus.windows.net"` // Service domain appended to the namespace
	Transport          string        `env:"EVENTHUB_TRANSPORT"           envDefault:"amqp"`                   // "amqp" or "kafka"
	ConnectTimeout     time.Duration `env:"EVENTHUB_CONNECT_TIMEOUT"     envDefault:"30s"`                    // Deadline for dial, session and link setup; 0 disables
	SendTimeout        time.Duration `env:"EVENTHUB_SEND_TIMEOUT"        envDefault:"60s"`                    // Deadline for a single send; 0 disables
	IdleTimeout        time.Duration `env:"EVENTHUB_IDLE_TIMEOUT"        envDefault:"0s"`                     // AMQP idle timeout; 0 keeps the client default
	ContainerID        string        `env:"EVENTHUB_CONTAINER_ID"        envDefault:"eventhubsender"`         // AMQP container id
	DisableAnnotations bool          `env:"EVENTHUB_DISABLE_ANNOTATIONS" envDefault:"false"`                  // Refuse to send the x-opt-partition-key annotation
	Endpoint           string        `env:"EVENTHUB_ENDPOINT"`                                                // host[:port] override, for emulators
	Insecure           bool          `env:"EVENTHUB_INSECURE"            envDefault:"false"`                  // Plain amqp:// without TLS, emulators only
	KafkaPort          int           `env:"EVENTHUB_KAFKA_PORT"          envDefault:"9093"`                   // Kafka endpoint port
	KafkaEnableLogs    bool          `env:"EVENTHUB_KAFKA_ENABLE_LOGS"   envDefault:"false"`                  // Forward librdkafka logs
	KafkaFlushTimeout  time.Duration `env:"EVENTHUB_KAFKA_FLUSH_TIMEOUT" envDefault:"15s"`                    // Flush timeout on close
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, &ConfigurationError{Field: "environment", Err: err}
	}
	return cfg, nil
}

// WithDefaults returns a copy of the config with zero-valued fields filled in.
// Timeouts are left alone since zero disables them. This method does not mutate
// the original config.
func (c Config) WithDefaults() Config {
	if c.Domain == "" {
		c.Domain = DefaultDomain
	}
	if c.Transport == "" {
		c.Transport = TransportAMQP
	}
	if c.ContainerID == "" {
		c.ContainerID = DefaultContainerID
	}
	if c.KafkaPort == 0 {
		c.KafkaPort = DefaultKafkaPort
	}
	if c.KafkaFlushTimeout == 0 {
		c.KafkaFlushTimeout = DefaultKafkaFlushTimeout
	}
	return c
}

// Validate checks values that env parsing cannot.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportAMQP, TransportKafka:
	default:
		return &ConfigurationError{Field: "transport", Err: fmt.Errorf("unknown transport %q", c.Transport)}
	}
	if c.ConnectTimeout < 0 {
		return &ConfigurationError{Field: "connect timeout", Err: fmt.Errorf("must not be negative, got %s", c.ConnectTimeout)}
	}
	if c.SendTimeout < 0 {
		return &ConfigurationError{Field: "send timeout", Err: fmt.Errorf("must not be negative, got %s", c.SendTimeout)}
	}
	if c.KafkaPort <= 0 || c.KafkaPort > 65535 {
		return &ConfigurationError{Field: "kafka port", Err: fmt.Errorf("must be between 1 and 65535, got %d", c.KafkaPort)}
	}
	return nil
}
