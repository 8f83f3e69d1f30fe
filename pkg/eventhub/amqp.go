package eventhub

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/Azure/go-amqp"
	"go.uber.org/zap"
)

const (
	amqpsPort = "5671"
	amqpPort  = "5672"
)

// amqpLink is the part of *amqp.Sender used by the transport.
type amqpLink interface {
	Send(ctx context.Context, msg *amqp.Message, opts *amqp.SendOptions) error
	Close(ctx context.Context) error
}

type amqpSession interface {
	Close(ctx context.Context) error
}

type amqpConn interface {
	Close() error
}

// AMQPDialer connects over AMQP 1.0 with SASL PLAIN.
type AMQPDialer struct{}

// Dial opens the connection, a session and a sender link whose target is the
// channel path. Everything created before a failure is closed again.
func (AMQPDialer) Dial(ctx context.Context, desc Descriptor, cfg Config, log *zap.SugaredLogger) (Transport, error) {
	ctx, cancel := withTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	conn, session, err := dialSession(ctx, desc, cfg, log)
	if err != nil {
		return nil, err
	}

	sender, err := session.NewSender(ctx, desc.ChannelPath, nil)
	if err != nil {
		closeQuietly(log, "session", session.Close(context.Background()))
		closeQuietly(log, "connection", conn.Close())
		return nil, &ConnectionError{Op: "create sender for " + desc.ChannelPath, Err: err}
	}

	return newAMQPTransport(conn, session, sender, cfg, log), nil
}

// dialSession connects and begins a session. On error nothing is left open.
func dialSession(ctx context.Context, desc Descriptor, cfg Config, log *zap.SugaredLogger) (*amqp.Conn, *amqp.Session, error) {
	addr, opts := amqpConnOptions(desc, cfg)

	log.Infow("dialing amqp endpoint", "tls", !cfg.Insecure)
	conn, err := amqp.Dial(ctx, addr, opts)
	if err != nil {
		return nil, nil, &ConnectionError{Op: "dial " + desc.Host(), Err: err}
	}

	session, err := conn.NewSession(ctx, nil)
	if err != nil {
		closeQuietly(log, "connection", conn.Close())
		return nil, nil, &ConnectionError{Op: "create session", Err: err}
	}
	return conn, session, nil
}

// amqpConnOptions builds the dial address and options. Credentials go to SASL
// directly and are never embedded in the address.
func amqpConnOptions(desc Descriptor, cfg Config) (string, *amqp.ConnOptions) {
	scheme, port := amqpsScheme, amqpsPort
	if cfg.Insecure {
		scheme, port = "amqp", amqpPort
	}

	hostport := cfg.Endpoint
	if hostport == "" {
		hostport = desc.Host()
	}
	if _, _, err := net.SplitHostPort(hostport); err != nil {
		hostport = net.JoinHostPort(hostport, port)
	}

	opts := &amqp.ConnOptions{
		ContainerID: cfg.ContainerID,
		HostName:    desc.Host(),
		IdleTimeout: cfg.IdleTimeout,
		SASLType:    amqp.SASLTypePlain(desc.Issuer, desc.Key),
	}
	if !cfg.Insecure {
		opts.TLSConfig = &tls.Config{
			ServerName: desc.Host(),
			MinVersion: tls.VersionTLS12,
		}
	}
	return scheme + "://" + hostport, opts
}

type amqpTransport struct {
	conn        amqpConn
	session     amqpSession
	sender      amqpLink
	sendTimeout time.Duration
	caps        Capabilities
	log         *zap.SugaredLogger
}

func newAMQPTransport(conn amqpConn, session amqpSession, sender amqpLink, cfg Config, log *zap.SugaredLogger) *amqpTransport {
	return &amqpTransport{
		conn:        conn,
		session:     session,
		sender:      sender,
		sendTimeout: cfg.SendTimeout,
		caps:        Capabilities{PartitionKey: !cfg.DisableAnnotations},
		log:         log,
	}
}

func (t *amqpTransport) Capabilities() Capabilities {
	return t.caps
}

// Send transfers the message unsettled and waits for the broker's disposition.
func (t *amqpTransport) Send(ctx context.Context, msg *Message) error {
	ctx, cancel := withTimeout(ctx, t.sendTimeout)
	defer cancel()

	err := t.sender.Send(ctx, msg.toAMQP(), nil)
	if err == nil {
		return nil
	}

	var amqpErr *amqp.Error
	if errors.As(err, &amqpErr) {
		t.log.Warnw("message not accepted",
			"messageID", msg.ID,
			"condition", amqpErr.Condition,
			"description", amqpErr.Description,
		)
		return fmt.Errorf("broker refused delivery (%s): %w", amqpErr.Condition, err)
	}
	return err
}

// Close detaches the link, ends the session and closes the connection. The
// connection is closed even when the link or session fail to close cleanly.
func (t *amqpTransport) Close(ctx context.Context) error {
	var errs []error
	if err := t.sender.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to close sender: %w", err))
	}
	if err := t.session.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to close session: %w", err))
	}
	if err := t.conn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
	}
	return errors.Join(errs...)
}

func closeQuietly(log *zap.SugaredLogger, what string, err error) {
	if err != nil {
		log.Warnw("cleanup failed", "resource", what, "error", err)
	}
}
