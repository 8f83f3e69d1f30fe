package eventhub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ava-labs/eventhub-sender/pkg/kafka"
)

const messageIDHeader = "message-id"

// KafkaDialer sends through the Kafka endpoint of the namespace. The channel
// path names the topic, and a partition path pins the partition.
type KafkaDialer struct{}

// Dial creates a producer for the namespace and looks up the hub's partitions
// within the connect timeout, so an unreachable namespace, rejected
// credentials or an unknown hub fail here rather than on the first send.
func (KafkaDialer) Dial(ctx context.Context, desc Descriptor, cfg Config, log *zap.SugaredLogger) (Transport, error) {
	path, err := ParseChannelPath(desc.ChannelPath)
	if err != nil {
		return nil, err
	}

	host := desc.Host()
	port := cfg.KafkaPort
	pcfg := kafka.EventHubsProducerConfig(host, port, desc.ConnectionString(), cfg.ContainerID)
	if cfg.Endpoint != "" {
		pcfg.BootstrapServers = cfg.Endpoint
	}
	if cfg.Insecure {
		pcfg.SASL = kafka.SASLConfig{}
	}
	pcfg.EnableLogs = cfg.KafkaEnableLogs
	pcfg.MessageTimeout = cfg.SendTimeout

	log.Infow("creating kafka producer",
		"bootstrapServers", pcfg.BootstrapServers,
		"topic", path.Hub,
		"partition", path.Partition,
	)

	// The producer outlives Dial, so its goroutines must not follow the dial context.
	producer, err := kafka.NewProducer(context.WithoutCancel(ctx), pcfg.ConfigMap(), log)
	if err != nil {
		return nil, &ConnectionError{Op: "create kafka producer", Err: err}
	}

	dialCtx, cancel := withTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := checkHub(dialCtx, producer, path, log); err != nil {
		producer.Close(0)
		return nil, err
	}

	return &kafkaTransport{
		producer:     producer,
		path:         path,
		sendTimeout:  cfg.SendTimeout,
		flushTimeout: cfg.WithDefaults().KafkaFlushTimeout,
		log:          log,
	}, nil
}

type kafkaProducer interface {
	Produce(ctx context.Context, msg kafka.Msg) (kafka.Delivery, error)
	TopicPartitions(ctx context.Context, topic string) (int, error)
	Close(timeout time.Duration)
	Errors() <-chan error
}

// checkHub confirms the hub exists and that a pinned partition is in range.
func checkHub(ctx context.Context, producer kafkaProducer, path ChannelPath, log *zap.SugaredLogger) error {
	partitions, err := producer.TopicPartitions(ctx, path.Hub)
	if err != nil {
		if errors.Is(err, kafka.ErrTopicNotFound) {
			return &ConfigurationError{Field: "channel path", Err: err}
		}
		return &ConnectionError{Op: "look up hub " + path.Hub, Err: err}
	}
	if path.Pinned() && int(path.Partition) >= partitions {
		return &ConfigurationError{
			Field: "channel path",
			Err:   fmt.Errorf("%w: partition %d of a hub with %d partitions", ErrInvalidPath, path.Partition, partitions),
		}
	}
	log.Debugw("hub found", "topic", path.Hub, "partitions", partitions)
	return nil
}

type kafkaTransport struct {
	producer     kafkaProducer
	path         ChannelPath
	sendTimeout  time.Duration
	flushTimeout time.Duration
	log          *zap.SugaredLogger
}

func (t *kafkaTransport) Capabilities() Capabilities {
	return Capabilities{PartitionKey: true}
}

func (t *kafkaTransport) Send(ctx context.Context, msg *Message) error {
	ctx, cancel := withTimeout(ctx, t.sendTimeout)
	defer cancel()

	select {
	case err, ok := <-t.producer.Errors():
		if ok && err != nil {
			return fmt.Errorf("producer failed: %w", err)
		}
	default:
	}

	d, err := t.producer.Produce(ctx, toKafka(msg, t.path))
	if err != nil {
		return err
	}
	t.log.Debugw("record delivered",
		"messageID", msg.ID,
		"topic", d.Topic,
		"partition", d.Partition,
		"offset", d.Offset,
	)
	return nil
}

func (t *kafkaTransport) Close(context.Context) error {
	t.producer.Close(t.flushTimeout)
	return nil
}

// toKafka maps the message onto a record. The partition key becomes the record
// key and the id and properties travel as headers.
func toKafka(m *Message, path ChannelPath) kafka.Msg {
	headers := make(map[string]string, len(m.Properties)+1)
	for k, v := range m.Properties {
		headers[k] = v
	}
	headers[messageIDHeader] = m.ID

	rec := kafka.Msg{
		Topic:     path.Hub,
		Partition: kafka.PartitionAny,
		Value:     m.Body,
		Headers:   headers,
	}
	if path.Pinned() {
		rec.Partition = path.Partition
	}
	if m.PartitionKey != "" {
		rec.Key = []byte(m.PartitionKey)
	}
	return rec
}
