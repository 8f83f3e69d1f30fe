package eventhub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Azure/go-amqp"
	"go.uber.org/zap"

	"github.com/ava-labs/eventhub-sender/pkg/metrics"
)

// DefaultReceiverCredit is the link credit granted to the broker.
const DefaultReceiverCredit = 10

// ErrReceiverClosed is returned by Receive and Accept after Close.
var ErrReceiverClosed = errors.New("receiver is closed")

type amqpReceiverLink interface {
	Receive(ctx context.Context, opts *amqp.ReceiveOptions) (*amqp.Message, error)
	AcceptMessage(ctx context.Context, msg *amqp.Message) error
	Close(ctx context.Context) error
}

// ReceivedMessage is an inbound message. The broker keeps it locked until it
// is accepted.
type ReceivedMessage struct {
	MessageID             any
	CorrelationID         any
	ContentType           string
	Subject               string
	ReplyTo               string
	GroupID               string
	UserID                []byte
	TTL                   time.Duration
	Body                  []byte
	ApplicationProperties map[string]any
	PartitionKey          string

	raw *amqp.Message
}

// Receiver reads from a queue or subscription with explicit settlement.
type Receiver struct {
	mu      sync.Mutex
	closed  bool
	conn    amqpConn
	session amqpSession
	link    amqpReceiverLink
	log     *zap.SugaredLogger
	metrics *metrics.Metrics
}

// OpenReceiver attaches a receiver link to the entity named by the channel
// path, a queue or "topic/Subscriptions/name". log and m may be nil.
func OpenReceiver(ctx context.Context, desc Descriptor, cfg Config, log *zap.SugaredLogger, m *metrics.Metrics) (*Receiver, error) {
	cfg = cfg.WithDefaults()
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	log = log.With("endpoint", desc.String())

	dialCtx, cancel := withTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	conn, session, err := dialSession(dialCtx, desc, cfg, log)
	m.RecordConnection(err)
	if err != nil {
		return nil, err
	}

	mode := amqp.ReceiverSettleModeFirst
	link, err := session.NewReceiver(dialCtx, desc.ChannelPath, &amqp.ReceiverOptions{
		Credit:         DefaultReceiverCredit,
		SettlementMode: &mode,
	})
	if err != nil {
		closeQuietly(log, "session", session.Close(context.Background()))
		closeQuietly(log, "connection", conn.Close())
		return nil, &ConnectionError{Op: "create receiver for " + desc.ChannelPath, Err: err}
	}

	m.SetSessionOpen(true)
	log.Info("receiver open")
	return &Receiver{
		conn:    conn,
		session: session,
		link:    link,
		log:     log,
		metrics: m,
	}, nil
}

// Receive blocks until a message arrives or ctx is done.
func (r *Receiver) Receive(ctx context.Context) (*ReceivedMessage, error) {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrReceiverClosed
	}

	msg, err := r.link.Receive(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to receive: %w", err)
	}
	return fromAMQP(msg), nil
}

// Accept settles the message as accepted so the broker removes it.
func (r *Receiver) Accept(ctx context.Context, msg *ReceivedMessage) error {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return ErrReceiverClosed
	}

	if err := r.link.AcceptMessage(ctx, msg.raw); err != nil {
		return fmt.Errorf("failed to accept message %v: %w", msg.MessageID, err)
	}
	r.metrics.IncMessagesReceived()
	return nil
}

// Close detaches the link and closes the connection. Calling it again does nothing.
func (r *Receiver) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.metrics.SetSessionOpen(false)

	var errs []error
	if err := r.link.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to close receiver: %w", err))
	}
	if err := r.session.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to close session: %w", err))
	}
	if err := r.conn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return &ConnectionError{Op: "close connection", Err: err}
	}
	r.log.Info("receiver closed")
	return nil
}

func fromAMQP(msg *amqp.Message) *ReceivedMessage {
	rm := &ReceivedMessage{
		Body:                  msg.GetData(),
		ApplicationProperties: msg.ApplicationProperties,
		raw:                   msg,
	}
	if p := msg.Properties; p != nil {
		rm.MessageID = p.MessageID
		rm.CorrelationID = p.CorrelationID
		rm.ContentType = deref(p.ContentType)
		rm.Subject = deref(p.Subject)
		rm.ReplyTo = deref(p.ReplyTo)
		rm.GroupID = deref(p.GroupID)
		rm.UserID = p.UserID
	}
	if msg.Header != nil {
		rm.TTL = msg.Header.TTL
	}
	if key, ok := msg.Annotations[PartitionKeyAnnotation].(string); ok {
		rm.PartitionKey = key
	}
	return rm
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
