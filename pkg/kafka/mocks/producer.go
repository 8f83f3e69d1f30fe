package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ava-labs/eventhub-sender/pkg/kafka"
)

// MockProducer is a mock of the synchronous producer for testing
type MockProducer struct {
	mock.Mock
	ErrCh chan error
}

// NewMockProducer returns a MockProducer with an open, empty error channel.
func NewMockProducer() *MockProducer {
	return &MockProducer{ErrCh: make(chan error, 1)}
}

func (m *MockProducer) Produce(ctx context.Context, msg kafka.Msg) (kafka.Delivery, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).(kafka.Delivery), args.Error(1)
}

func (m *MockProducer) TopicPartitions(ctx context.Context, topic string) (int, error) {
	args := m.Called(ctx, topic)
	return args.Int(0), args.Error(1)
}

func (m *MockProducer) Close(timeout time.Duration) {
	m.Called(timeout)
}

func (m *MockProducer) Errors() <-chan error {
	return m.ErrCh
}
