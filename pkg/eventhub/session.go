package eventhub

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ava-labs/eventhub-sender/pkg/metrics"
)

type sessionState int

const (
	stateUnopened sessionState = iota
	stateOpen
	stateClosed
)

// Session owns one transport bound to one destination. The zero value is an
// unopened session on which Send fails.
type Session struct {
	mu        sync.Mutex
	state     sessionState
	transport Transport
	log       *zap.SugaredLogger
	metrics   *metrics.Metrics
}

// Open dials the destination described by desc. log and m may be nil.
func Open(
	ctx context.Context,
	dialer Dialer,
	desc Descriptor,
	cfg Config,
	log *zap.SugaredLogger,
	m *metrics.Metrics,
) (*Session, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = zap.NewNop().Sugar()
	}
	log = log.With("endpoint", desc.String())
	transport, err := dialer.Dial(ctx, desc, cfg, log)
	m.RecordConnection(err)
	if err != nil {
		var connErr *ConnectionError
		var cfgErr *ConfigurationError
		if !errors.As(err, &connErr) && !errors.As(err, &cfgErr) {
			err = &ConnectionError{Op: "connect", Err: err}
		}
		log.Errorw("failed to open session", "error", err)
		return nil, err
	}

	m.SetSessionOpen(true)
	log.Infow("session open", "partitionKeys", transport.Capabilities().PartitionKey)
	return &Session{
		state:     stateOpen,
		transport: transport,
		log:       log,
		metrics:   m,
	}, nil
}

// Send builds the message for sequence and sends it, attaching partitionKey
// when non-empty. It returns once the broker has accepted the message.
func (s *Session) Send(ctx context.Context, sequence uint64, partitionKey string) error {
	msg := NewMessage(sequence, partitionKey)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateOpen {
		return &SendError{MessageID: msg.ID, Err: ErrSessionClosed}
	}
	if partitionKey != "" && !s.transport.Capabilities().PartitionKey {
		return &SendError{MessageID: msg.ID, Err: ErrPartitionKeyUnsupported}
	}

	start := time.Now()
	err := s.transport.Send(ctx, msg)
	s.metrics.RecordSend(partitionKey != "", err, time.Since(start).Seconds())
	if err != nil {
		s.log.Errorw("send failed", "messageID", msg.ID, "error", err)
		return &SendError{MessageID: msg.ID, Err: err}
	}

	s.log.Debugw("message sent",
		"messageID", msg.ID,
		"partitionKey", partitionKey,
		"duration", time.Since(start),
	)
	return nil
}

// IsOpen reports whether the session can send.
func (s *Session) IsOpen() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateOpen
}

// Close releases the connection. Closing a closed or unopened session does
// nothing and returns nil.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateOpen {
		s.state = stateClosed
		return nil
	}
	s.state = stateClosed
	s.metrics.SetSessionOpen(false)

	if err := s.transport.Close(ctx); err != nil {
		s.log.Warnw("session closed with errors", "error", err)
		return &ConnectionError{Op: "close connection", Err: err}
	}
	s.log.Info("session closed")
	return nil
}
