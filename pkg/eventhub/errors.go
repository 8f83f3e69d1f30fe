package eventhub

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionClosed is returned by Send when the session was never opened or has been closed.
	ErrSessionClosed = errors.New("session is closed")
	// ErrPartitionKeyUnsupported is returned by Send when a partition key is given
	// but the transport cannot carry it.
	ErrPartitionKeyUnsupported = errors.New("partition key not supported by transport")

	ErrEmptyField    = errors.New("must not be empty")
	ErrInvalidUTF8   = errors.New("must be valid UTF-8")
	ErrInvalidIssuer = errors.New("must not contain ':', '@' or '/'")
	ErrInvalidPath   = errors.New("invalid partition path")
)

// ConfigurationError reports malformed or unencodable operator input.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ConnectionError reports a failure to establish the connection, session or link.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// SendError reports a message that was not accepted.
type SendError struct {
	MessageID string
	Err       error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("failed to send message %s: %v", e.MessageID, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}
