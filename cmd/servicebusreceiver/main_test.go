package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ava-labs/eventhub-sender/pkg/eventhub"
)

type fakeSource struct {
	msgs     []*eventhub.ReceivedMessage
	accepted []any
	recvErr  error
	acceptFn func(*eventhub.ReceivedMessage) error
}

func (f *fakeSource) Receive(ctx context.Context) (*eventhub.ReceivedMessage, error) {
	if len(f.msgs) > 0 {
		msg := f.msgs[0]
		f.msgs = f.msgs[1:]
		return msg, nil
	}
	if f.recvErr != nil {
		return nil, f.recvErr
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeSource) Accept(_ context.Context, msg *eventhub.ReceivedMessage) error {
	if f.acceptFn != nil {
		if err := f.acceptFn(msg); err != nil {
			return err
		}
	}
	f.accepted = append(f.accepted, msg.MessageID)
	return nil
}

func TestRun_WrongArgumentCountPrintsUsage(t *testing.T) {
	out := &bytes.Buffer{}
	err := newApp(out).RunContext(t.Context(), []string{"servicebusreceiver", "contoso", "orders"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "topicname/Subscriptions/subscriptionname")
}

func TestPrintMessage(t *testing.T) {
	out := &bytes.Buffer{}
	printMessage(out, 3, &eventhub.ReceivedMessage{
		MessageID:    "ID:sample3",
		ContentType:  "application/octet-stream",
		UserID:       []byte{0xca, 0xfe},
		TTL:          time.Minute,
		Body:         []byte{1, 2, 3, 4, 5},
		PartitionKey: "abc",
		ApplicationProperties: map[string]any{
			"b": int64(2),
			"a": "one",
		},
	})

	want := "Message 3\n" +
		"  id:              ID:sample3\n" +
		"  content type:    application/octet-stream\n" +
		"  user id:         ca fe\n" +
		"  ttl:             1m0s\n" +
		"  partition key:   abc\n" +
		"  body:            01 02 03 04 05\n" +
		"  property a = one\n" +
		"  property b = 2\n"
	assert.Equal(t, want, out.String())
}

func TestPrintMessage_TextBody(t *testing.T) {
	out := &bytes.Buffer{}
	printMessage(out, 0, &eventhub.ReceivedMessage{Body: []byte("hello")})
	assert.Contains(t, out.String(), "body:            hello\n")
	assert.NotContains(t, out.String(), "id:")
}

func TestReceiveLoop_StopsWhenIdle(t *testing.T) {
	src := &fakeSource{msgs: []*eventhub.ReceivedMessage{
		{MessageID: "ID:sample0", Body: []byte{1}},
		{MessageID: "ID:sample1", Body: []byte{2}},
	}}
	out := &bytes.Buffer{}

	n, err := receiveLoop(t.Context(), src, out, 20*time.Millisecond, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
	assert.Equal(t, []any{"ID:sample0", "ID:sample1"}, src.accepted)
	assert.Contains(t, out.String(), "Message 1\n")
}

func TestReceiveLoop_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	n, err := receiveLoop(ctx, &fakeSource{}, &bytes.Buffer{}, time.Minute, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReceiveLoop_ReceiveError(t *testing.T) {
	linkErr := errors.New("link detached")
	_, err := receiveLoop(t.Context(), &fakeSource{recvErr: linkErr}, &bytes.Buffer{}, time.Minute, zaptest.NewLogger(t).Sugar())
	require.ErrorIs(t, err, linkErr)
}

func TestReceiveLoop_AcceptError(t *testing.T) {
	acceptErr := errors.New("lock lost")
	src := &fakeSource{
		msgs:     []*eventhub.ReceivedMessage{{MessageID: "ID:sample0"}},
		acceptFn: func(*eventhub.ReceivedMessage) error { return acceptErr },
	}

	n, err := receiveLoop(t.Context(), src, &bytes.Buffer{}, time.Minute, zaptest.NewLogger(t).Sugar())
	require.ErrorIs(t, err, acceptErr)
	assert.Zero(t, n)
}
