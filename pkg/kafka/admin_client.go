package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

const (
	// metadataTimeout bounds a metadata lookup when the caller sets no deadline.
	metadataTimeout = 10 * time.Second
)

// ErrTopicNotFound is returned when the broker does not know the topic.
var ErrTopicNotFound = errors.New("topic not found")

// MetadataClient is satisfied by both *kafka.Producer and *kafka.AdminClient.
type MetadataClient interface {
	GetMetadata(topic *string, allTopics bool, timeoutMs int) (*kafka.Metadata, error)
}

// TopicConfig holds Kafka topic configuration options for creation.
type TopicConfig struct {
	Name              string // Required: topic name
	NumPartitions     int    // Required: number of partitions (must be > 0)
	ReplicationFactor int    // Required: replication factor (must be > 0)
}

// Validate checks if the TopicConfig is valid for topic creation.
func (tc TopicConfig) Validate() error {
	if tc.Name == "" {
		return errors.New("topic name cannot be empty")
	}
	if tc.NumPartitions <= 0 {
		return fmt.Errorf("number of partitions must be > 0, got %d", tc.NumPartitions)
	}
	if tc.ReplicationFactor <= 0 {
		return fmt.Errorf("replication factor must be > 0, got %d", tc.ReplicationFactor)
	}
	return nil
}

// TopicPartitions returns the partition count of topic. An Event Hubs
// namespace answers this for every hub the credentials can reach, so a
// successful lookup also proves the connection and authentication work.
func TopicPartitions(client MetadataClient, topic string, timeout time.Duration) (int, error) {
	if timeout <= 0 {
		timeout = metadataTimeout
	}
	metadata, err := client.GetMetadata(&topic, false, int(timeout.Milliseconds()))
	if err != nil {
		return 0, fmt.Errorf("failed to get metadata for topic %q: %w", topic, err)
	}

	topicMetadata, exists := metadata.Topics[topic]
	if !exists || topicMetadata.Error.Code() == kafka.ErrUnknownTopicOrPart {
		return 0, fmt.Errorf("%w: %q", ErrTopicNotFound, topic)
	}
	if topicMetadata.Error.Code() != kafka.ErrNoError {
		return 0, fmt.Errorf("topic %q has error: %w", topic, topicMetadata.Error)
	}
	return len(topicMetadata.Partitions), nil
}

// TopicPartitions looks up the partition count of topic over the producer's
// own connection, bounded by the deadline of ctx.
func (q *Producer) TopicPartitions(ctx context.Context, topic string) (int, error) {
	timeout := metadataTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return 0, context.DeadlineExceeded
		}
	}
	return TopicPartitions(q.producer, topic, timeout)
}

// CreateTopic creates a new Kafka topic with the given configuration. A topic
// that already exists is logged and not treated as an error.
func CreateTopic(
	ctx context.Context,
	admin *kafka.AdminClient,
	config TopicConfig,
	log *zap.SugaredLogger,
) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid topic config: %w", err)
	}

	spec := kafka.TopicSpecification{
		Topic:             config.Name,
		NumPartitions:     config.NumPartitions,
		ReplicationFactor: config.ReplicationFactor,
	}

	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{spec})
	if err != nil {
		return fmt.Errorf("failed to create topic %q: %w", config.Name, err)
	}

	for _, result := range results {
		switch result.Error.Code() {
		case kafka.ErrNoError:
			log.Infow("created topic",
				"topic", result.Topic,
				"partitions", config.NumPartitions,
				"replicationFactor", config.ReplicationFactor)
		case kafka.ErrTopicAlreadyExists:
			log.Infow("topic already exists", "topic", result.Topic)
		default:
			return fmt.Errorf("failed to create topic %q: %w", result.Topic, result.Error)
		}
	}
	return nil
}
