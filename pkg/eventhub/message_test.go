package eventhub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ID:sample0", MessageID(0))
	assert.Equal(t, "ID:sample42", MessageID(42))
	assert.Equal(t, "ID:sample18446744073709551615", MessageID(^uint64(0)))
}

func TestNewMessage(t *testing.T) {
	t.Parallel()

	m := NewMessage(7, "")
	assert.Equal(t, "ID:sample7", m.ID)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05}, m.Body)
	assert.Equal(t, map[string]string{"SampleProperty": "SampleValue"}, m.Properties)
	assert.Empty(t, m.PartitionKey)
}

func TestSampleBody_NotShared(t *testing.T) {
	t.Parallel()

	b := SampleBody()
	b[0] = 0xff
	assert.Equal(t, byte(0x01), SampleBody()[0])
}

func TestMessage_toAMQP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		key             string
		wantAnnotations bool
	}{
		{name: "no partition key", key: "", wantAnnotations: false},
		{name: "partition key", key: "abc", wantAnnotations: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg := NewMessage(3, tt.key).toAMQP()

			require.NotNil(t, msg.Properties)
			assert.Equal(t, "ID:sample3", msg.Properties.MessageID)
			assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05}, msg.GetData())
			assert.Equal(t, map[string]any{"SampleProperty": "SampleValue"}, msg.ApplicationProperties)

			if !tt.wantAnnotations {
				assert.Nil(t, msg.Annotations)
				return
			}
			require.Len(t, msg.Annotations, 1)
			assert.Equal(t, tt.key, msg.Annotations[PartitionKeyAnnotation])
		})
	}
}
