package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/ava-labs/eventhub-sender/pkg/eventhub"
)

// MockTransport is a mock implementation of eventhub.Transport for testing
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Send(ctx context.Context, msg *eventhub.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockTransport) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTransport) Capabilities() eventhub.Capabilities {
	args := m.Called()
	return args.Get(0).(eventhub.Capabilities)
}

// MockDialer is a mock implementation of eventhub.Dialer for testing
type MockDialer struct {
	mock.Mock
}

func (m *MockDialer) Dial(ctx context.Context, desc eventhub.Descriptor, cfg eventhub.Config, log *zap.SugaredLogger) (eventhub.Transport, error) {
	args := m.Called(ctx, desc, cfg, log)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(eventhub.Transport), args.Error(1)
}
