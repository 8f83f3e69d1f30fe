package eventhub

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_WithDefaults_EmptyConfig(t *testing.T) {
	t.Parallel()

	cfg := Config{}.WithDefaults()

	assert.Equal(t, DefaultDomain, cfg.Domain)
	assert.Equal(t, TransportAMQP, cfg.Transport)
	assert.Equal(t, DefaultContainerID, cfg.ContainerID)
	assert.Equal(t, DefaultKafkaPort, cfg.KafkaPort)
	assert.Equal(t, DefaultKafkaFlushTimeout, cfg.KafkaFlushTimeout)
	// Zero timeouts mean "no deadline" and are kept
	assert.Zero(t, cfg.ConnectTimeout)
	assert.Zero(t, cfg.SendTimeout)
	assert.False(t, cfg.DisableAnnotations)
}

func TestConfig_WithDefaults_KeepsValues(t *testing.T) {
	t.Parallel()

	orig := Config{
		Domain:      "servicebus.usgovcloudapi.net",
		Transport:   TransportKafka,
		ContainerID: "custom",
		KafkaPort:   19093,
	}
	cfg := orig.WithDefaults()

	assert.Equal(t, orig.Domain, cfg.Domain)
	assert.Equal(t, TransportKafka, cfg.Transport)
	assert.Equal(t, "custom", cfg.ContainerID)
	assert.Equal(t, 19093, cfg.KafkaPort)
	// The receiver is a copy
	assert.Zero(t, orig.KafkaFlushTimeout)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cfg       Config
		wantField string
	}{
		{name: "defaults", cfg: Config{}.WithDefaults()},
		{name: "kafka", cfg: Config{Transport: TransportKafka}.WithDefaults()},
		{name: "unknown transport", cfg: Config{Transport: "mqtt"}.WithDefaults(), wantField: "transport"},
		{name: "negative connect timeout", cfg: Config{ConnectTimeout: -time.Second}.WithDefaults(), wantField: "connect timeout"},
		{name: "negative send timeout", cfg: Config{SendTimeout: -time.Second}.WithDefaults(), wantField: "send timeout"},
		{name: "kafka port too large", cfg: Config{KafkaPort: 70000}.WithDefaults(), wantField: "kafka port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "servicebus.windows.net", cfg.Domain)
	assert.Equal(t, TransportAMQP, cfg.Transport)
	assert.Equal(t, DefaultConnectTimeout, cfg.ConnectTimeout)
	assert.Equal(t, DefaultSendTimeout, cfg.SendTimeout)
	assert.Equal(t, DefaultKafkaPort, cfg.KafkaPort)
	assert.Equal(t, DefaultKafkaFlushTimeout, cfg.KafkaFlushTimeout)
	assert.Empty(t, cfg.Endpoint)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("EVENTHUB_TRANSPORT", "kafka")
	t.Setenv("EVENTHUB_SEND_TIMEOUT", "5s")
	t.Setenv("EVENTHUB_DISABLE_ANNOTATIONS", "true")
	t.Setenv("EVENTHUB_ENDPOINT", "localhost:5672")
	t.Setenv("EVENTHUB_INSECURE", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, TransportKafka, cfg.Transport)
	assert.Equal(t, 5*time.Second, cfg.SendTimeout)
	assert.True(t, cfg.DisableAnnotations)
	assert.Equal(t, "localhost:5672", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
}

func TestLoadConfig_BadValue(t *testing.T) {
	t.Setenv("EVENTHUB_CONNECT_TIMEOUT", "soon")

	_, err := LoadConfig()

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "environment", cfgErr.Field)
}
