package kafka

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

// PartitionAny lets the broker pick the partition, hashing Key when present.
const PartitionAny = kafka.PartitionAny

// ErrProducerClosed is returned by Produce after Close.
var ErrProducerClosed = errors.New("producer is closed")

// Msg is one record to produce.
type Msg struct {
	Topic     string
	Partition int32
	Value     []byte
	Key       []byte
	Headers   map[string]string
}

// Delivery describes where a record landed.
type Delivery struct {
	Topic     string
	Partition int32
	Offset    int64
}

// Producer produces records synchronously.
//
// Produce blocks until a delivery report is received from the broker.
// Background goroutines drain producer events and, when enabled, client logs.
//
// Close MUST be called to stop background goroutines and flush in-flight
// records.
type Producer struct {
	producer   *kafka.Producer
	log        *zap.SugaredLogger
	errCh      chan error
	eventsDone chan struct{}
	logsDone   chan struct{}
	closedCh   chan struct{}
	once       sync.Once
}

const queueFullRetryDelay = time.Second

// NewProducer creates a Producer from conf.
//
// The provided context controls the lifetime of background goroutines.
func NewProducer(ctx context.Context, conf *kafka.ConfigMap, log *zap.SugaredLogger) (*Producer, error) {
	logsChEnabled, err := conf.Get("go.logs.channel.enable", false)
	if err != nil {
		return nil, fmt.Errorf("failed to get go.logs.channel.enable: %w", err)
	}

	p, err := kafka.NewProducer(conf)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	q := &Producer{
		producer:   p,
		log:        log,
		eventsDone: make(chan struct{}),
		logsDone:   make(chan struct{}),
		errCh:      make(chan error, 1),
		closedCh:   make(chan struct{}),
	}

	if enabled, _ := logsChEnabled.(bool); enabled {
		go q.forwardLogs(ctx)
	} else {
		close(q.logsDone)
	}

	go q.monitorEvents(ctx)

	return q, nil
}

// Produce sends one record and waits for its delivery report.
//
// If the local queue is full the record is retried after a short delay. If ctx
// is done before the report arrives, Produce returns ctx.Err() and the record
// may still be delivered later.
func (q *Producer) Produce(ctx context.Context, msg Msg) (Delivery, error) {
	select {
	case <-q.closedCh:
		return Delivery{}, ErrProducerClosed
	default:
	}

	deliveryCh := make(chan kafka.Event, 1)

	kMsg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &msg.Topic,
			Partition: msg.Partition,
		},
		Value:   msg.Value,
		Key:     msg.Key,
		Headers: toHeaders(msg.Headers),
	}

	if err := q.produceWithRetry(ctx, kMsg, deliveryCh); err != nil {
		return Delivery{}, err
	}

	select {
	case <-ctx.Done():
		return Delivery{}, ctx.Err()
	case e := <-deliveryCh:
		return handleDeliveryEvent(q.log, e)
	}
}

// Close stops background goroutines, flushes pending records and closes the
// client. Records still queued when timeout expires are lost.
//
// Calling Close more than once does nothing.
func (q *Producer) Close(timeout time.Duration) {
	q.once.Do(func() {
		q.log.Debug("closing kafka producer")
		defer close(q.errCh)

		close(q.closedCh)
		<-q.eventsDone
		<-q.logsDone

		if pending := q.producer.Flush(int(timeout.Milliseconds())); pending > 0 {
			q.log.Warnw("flush incomplete, records will be lost", "pending", pending)
		}

		q.producer.Close()
		q.log.Debug("kafka producer closed")
	})
}

// Errors returns a channel that receives at most one fatal error. It is closed
// when the producer shuts down. Non-fatal client errors are only logged.
func (q *Producer) Errors() <-chan error {
	return q.errCh
}

func (q *Producer) forwardLogs(ctx context.Context) {
	defer close(q.logsDone)
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closedCh:
			return
		case entry, ok := <-q.producer.Logs():
			if !ok {
				return
			}
			q.log.Debugw("librdkafka", "level", entry.Level, "tag", entry.Tag, "message", entry.Message)
		}
	}
}

func (q *Producer) produceWithRetry(ctx context.Context, msg *kafka.Message, deliveryCh chan kafka.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := q.producer.Produce(msg, deliveryCh)
		if err == nil {
			return nil
		}

		var kafkaErr kafka.Error
		if !errors.As(err, &kafkaErr) {
			return fmt.Errorf("failed to produce: %w", err)
		}

		switch kafkaErr.Code() {
		case kafka.ErrQueueFull:
			q.log.Warnw("producer queue full, retrying", "delay", queueFullRetryDelay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(queueFullRetryDelay):
			}
		case kafka.ErrBrokerNotAvailable:
			return fmt.Errorf("broker not available: %w", err)
		case kafka.ErrInvalidMsgSize, kafka.ErrMsgSizeTooLarge:
			return fmt.Errorf("invalid message size: %w", err)
		case kafka.ErrUnknownTopicOrPart, kafka.ErrUnknownPartition:
			return fmt.Errorf("unknown topic or partition: %w", err)
		case kafka.ErrAuthentication:
			return fmt.Errorf("authentication error: %w", err)
		default:
			return fmt.Errorf("failed to produce: %w", err)
		}
	}
}

func (q *Producer) monitorEvents(ctx context.Context) {
	defer close(q.eventsDone)
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closedCh:
			return
		case ev, ok := <-q.producer.Events():
			if !ok {
				q.reportFatal(errors.New("kafka producer event channel closed"))
				return
			}

			switch e := ev.(type) {
			case *kafka.Message:
				// Delivery reports go to the per-record channel; anything here is stray.
				q.log.Warnw("unexpected delivery report", "topicPartition", e.TopicPartition.String())
			case kafka.Error:
				if e.IsFatal() || e.Code() == kafka.ErrAllBrokersDown {
					q.reportFatal(fmt.Errorf("fatal kafka error %#x: %w", e.Code(), e))
					return
				}
				q.log.Warnw("ignoring kafka error", "code", e.Code().String(), "error", e)
			default:
				q.log.Debugw("kafka event", "event", e.String())
			}
		}
	}
}

func (q *Producer) reportFatal(err error) {
	select {
	case q.errCh <- err:
	default:
		q.log.Warnw("error channel is full", "error", err)
	}
}

func handleDeliveryEvent(log *zap.SugaredLogger, ev kafka.Event) (Delivery, error) {
	e, ok := ev.(*kafka.Message)
	if !ok {
		return Delivery{}, fmt.Errorf("unexpected delivery event: %T", ev)
	}
	if err := e.TopicPartition.Error; err != nil {
		return Delivery{}, fmt.Errorf("delivery failed: %w", err)
	}

	d := Delivery{
		Partition: e.TopicPartition.Partition,
		Offset:    int64(e.TopicPartition.Offset),
	}
	if e.TopicPartition.Topic != nil {
		d.Topic = *e.TopicPartition.Topic
	}
	log.Debugw("delivered", "topic", d.Topic, "partition", d.Partition, "offset", d.Offset)
	return d, nil
}

func toHeaders(m map[string]string) []kafka.Header {
	if len(m) == 0 {
		return nil
	}
	headers := make([]kafka.Header, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(m[k])})
	}
	return headers
}
