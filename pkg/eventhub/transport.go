package eventhub

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Capabilities describes what a transport can carry besides the message itself.
type Capabilities struct {
	// PartitionKey is true when a per-message partition key reaches the broker.
	PartitionKey bool
}

// Transport is one established connection, session and producer bound to a
// single destination.
type Transport interface {
	// Send blocks until the broker reports the outcome of the delivery.
	Send(ctx context.Context, msg *Message) error
	// Close releases the connection. It is called at most once by Session.
	Close(ctx context.Context) error
	Capabilities() Capabilities
}

// Dialer resolves a Descriptor into a live Transport.
type Dialer interface {
	Dial(ctx context.Context, desc Descriptor, cfg Config, log *zap.SugaredLogger) (Transport, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, desc Descriptor, cfg Config, log *zap.SugaredLogger) (Transport, error)

func (f DialerFunc) Dial(ctx context.Context, desc Descriptor, cfg Config, log *zap.SugaredLogger) (Transport, error) {
	return f(ctx, desc, cfg, log)
}

// NewDialer returns the dialer for the configured transport.
func NewDialer(transport string) (Dialer, error) {
	switch transport {
	case TransportAMQP, "":
		return AMQPDialer{}, nil
	case TransportKafka:
		return KafkaDialer{}, nil
	default:
		return nil, &ConfigurationError{Field: "transport", Err: fmt.Errorf("unknown transport %q", transport)}
	}
}

// withTimeout derives a context bounded by d. A zero d leaves ctx unbounded.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
