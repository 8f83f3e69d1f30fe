package eventhub

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/Azure/go-amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeLink struct {
	sent     []*amqp.Message
	sendErr  error
	closeErr error
	closed   int
	deadline bool
}

func (f *fakeLink) Send(ctx context.Context, msg *amqp.Message, _ *amqp.SendOptions) error {
	_, f.deadline = ctx.Deadline()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeLink) Close(context.Context) error {
	f.closed++
	return f.closeErr
}

type fakeSession struct {
	closeErr error
	closed   int
}

func (f *fakeSession) Close(context.Context) error {
	f.closed++
	return f.closeErr
}

type fakeConn struct {
	closeErr error
	closed   int
}

func (f *fakeConn) Close() error {
	f.closed++
	return f.closeErr
}

func testDescriptor(t *testing.T) Descriptor {
	t.Helper()
	d, err := NewDescriptor("ns", "hub", "issuer", "k/+=", "")
	require.NoError(t, err)
	return d
}

func TestAMQPConnOptions(t *testing.T) {
	t.Parallel()

	desc := testDescriptor(t)

	tests := []struct {
		name     string
		cfg      Config
		wantAddr string
		wantTLS  bool
	}{
		{
			name:     "default endpoint",
			cfg:      Config{ContainerID: "c1"},
			wantAddr: "amqps://ns.servicebus.windows.net:5671",
			wantTLS:  true,
		},
		{
			name:     "endpoint override keeps port",
			cfg:      Config{Endpoint: "127.0.0.1:15671"},
			wantAddr: "amqps://127.0.0.1:15671",
			wantTLS:  true,
		},
		{
			name:     "insecure emulator",
			cfg:      Config{Endpoint: "localhost", Insecure: true},
			wantAddr: "amqp://localhost:5672",
			wantTLS:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			addr, opts := amqpConnOptions(desc, tt.cfg)

			assert.Equal(t, tt.wantAddr, addr)
			assert.NotContains(t, addr, "issuer", "credentials must not be embedded in the address")
			assert.Equal(t, "ns.servicebus.windows.net", opts.HostName)
			assert.Equal(t, tt.cfg.ContainerID, opts.ContainerID)
			assert.NotNil(t, opts.SASLType)
			if tt.wantTLS {
				require.NotNil(t, opts.TLSConfig)
				assert.Equal(t, "ns.servicebus.windows.net", opts.TLSConfig.ServerName)
			} else {
				assert.Nil(t, opts.TLSConfig)
			}
		})
	}
}

func TestAMQPDialer_DialRefused(t *testing.T) {
	t.Parallel()

	// Reserve a port and release it so nothing is listening.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	cfg := Config{Endpoint: addr, Insecure: true, ConnectTimeout: 2 * time.Second}.WithDefaults()
	tr, err := AMQPDialer{}.Dial(t.Context(), testDescriptor(t), cfg, zaptest.NewLogger(t).Sugar())
	require.Nil(t, tr)

	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, "dial ns.servicebus.windows.net", connErr.Op)
}

func TestAMQPTransport_Send(t *testing.T) {
	t.Parallel()

	link := &fakeLink{}
	tr := newAMQPTransport(&fakeConn{}, &fakeSession{}, link, Config{SendTimeout: time.Second}, zaptest.NewLogger(t).Sugar())

	require.NoError(t, tr.Send(t.Context(), NewMessage(1, "key")))
	require.Len(t, link.sent, 1)
	assert.True(t, link.deadline, "send timeout should bound the send")
	assert.Equal(t, "ID:sample1", link.sent[0].Properties.MessageID)
	assert.Equal(t, "key", link.sent[0].Annotations[PartitionKeyAnnotation])
}

func TestAMQPTransport_Send_NoTimeout(t *testing.T) {
	t.Parallel()

	link := &fakeLink{}
	tr := newAMQPTransport(&fakeConn{}, &fakeSession{}, link, Config{}, zaptest.NewLogger(t).Sugar())

	require.NoError(t, tr.Send(context.Background(), NewMessage(1, "")))
	assert.False(t, link.deadline)
}

func TestAMQPTransport_Send_Rejected(t *testing.T) {
	t.Parallel()

	rejected := &amqp.Error{Condition: amqp.ErrCondUnauthorizedAccess, Description: "no send claim"}
	link := &fakeLink{sendErr: rejected}
	tr := newAMQPTransport(&fakeConn{}, &fakeSession{}, link, Config{}, zaptest.NewLogger(t).Sugar())

	err := tr.Send(t.Context(), NewMessage(1, ""))
	require.Error(t, err)
	assert.ErrorIs(t, err, rejected)
	assert.Contains(t, err.Error(), string(amqp.ErrCondUnauthorizedAccess))
}

func TestAMQPTransport_Send_TransportFault(t *testing.T) {
	t.Parallel()

	fault := errors.New("connection reset")
	tr := newAMQPTransport(&fakeConn{}, &fakeSession{}, &fakeLink{sendErr: fault}, Config{}, zaptest.NewLogger(t).Sugar())

	assert.ErrorIs(t, tr.Send(t.Context(), NewMessage(1, "")), fault)
}

func TestAMQPTransport_Capabilities(t *testing.T) {
	t.Parallel()

	log := zaptest.NewLogger(t).Sugar()
	on := newAMQPTransport(&fakeConn{}, &fakeSession{}, &fakeLink{}, Config{}, log)
	off := newAMQPTransport(&fakeConn{}, &fakeSession{}, &fakeLink{}, Config{DisableAnnotations: true}, log)

	assert.True(t, on.Capabilities().PartitionKey)
	assert.False(t, off.Capabilities().PartitionKey)
}

func TestAMQPTransport_Close(t *testing.T) {
	t.Parallel()

	conn, session, link := &fakeConn{}, &fakeSession{}, &fakeLink{}
	tr := newAMQPTransport(conn, session, link, Config{}, zaptest.NewLogger(t).Sugar())

	require.NoError(t, tr.Close(t.Context()))
	assert.Equal(t, 1, link.closed)
	assert.Equal(t, 1, session.closed)
	assert.Equal(t, 1, conn.closed)
}

func TestAMQPTransport_Close_ClosesConnectionOnLinkError(t *testing.T) {
	t.Parallel()

	linkErr := errors.New("detach failed")
	conn, session, link := &fakeConn{}, &fakeSession{}, &fakeLink{closeErr: linkErr}
	tr := newAMQPTransport(conn, session, link, Config{}, zaptest.NewLogger(t).Sugar())

	err := tr.Close(t.Context())
	assert.ErrorIs(t, err, linkErr)
	assert.Equal(t, 1, session.closed)
	assert.Equal(t, 1, conn.closed)
}

func TestAMQPConnOptions_DialsWithoutURI(t *testing.T) {
	t.Parallel()

	desc, err := NewDescriptor("ns", "hub", "issuer", "a b+c/=", "")
	require.NoError(t, err)

	addr, opts := amqpConnOptions(desc, Config{})

	// The URI carries the form-encoded key; the dial address carries none.
	assert.NotEqual(t, desc.URI(), addr)
	assert.NotContains(t, addr, "@")
	assert.NotContains(t, addr, desc.EncodedKey())
	assert.Equal(t, "amqps://ns.servicebus.windows.net:5671", addr)
	assert.NotNil(t, opts.SASLType)
}
