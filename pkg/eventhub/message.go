package eventhub

import (
	"strconv"

	"github.com/Azure/go-amqp"
)

const (
	// PartitionKeyAnnotation is the message annotation Event Hubs hashes to pick a partition.
	PartitionKeyAnnotation = "x-opt-partition-key"

	messageIDPrefix     = "ID:sample"
	samplePropertyName  = "SampleProperty"
	samplePropertyValue = "SampleValue"
)

// Message is the transport neutral form of one outbound message.
type Message struct {
	ID           string
	Body         []byte
	Properties   map[string]string
	PartitionKey string
}

// MessageID returns "ID:sample" followed by the decimal sequence number.
func MessageID(sequence uint64) string {
	return messageIDPrefix + strconv.FormatUint(sequence, 10)
}

// SampleBody returns the fixed five byte payload carried by every message.
func SampleBody() []byte {
	return []byte{0x1, 0x2, 0x3, 0x4, 0x5}
}

// NewMessage builds the message for the given sequence number.
// An empty partition key leaves the message unkeyed.
func NewMessage(sequence uint64, partitionKey string) *Message {
	return &Message{
		ID:   MessageID(sequence),
		Body: SampleBody(),
		Properties: map[string]string{
			samplePropertyName: samplePropertyValue,
		},
		PartitionKey: partitionKey,
	}
}

// toAMQP converts the message to its AMQP 1.0 form. The partition key, if any,
// travels as the x-opt-partition-key message annotation.
func (m *Message) toAMQP() *amqp.Message {
	msg := amqp.NewMessage(m.Body)
	msg.Properties = &amqp.MessageProperties{
		MessageID: m.ID,
	}
	if len(m.Properties) > 0 {
		msg.ApplicationProperties = make(map[string]any, len(m.Properties))
		for k, v := range m.Properties {
			msg.ApplicationProperties[k] = v
		}
	}
	if m.PartitionKey != "" {
		msg.Annotations = amqp.Annotations{
			PartitionKeyAnnotation: m.PartitionKey,
		}
	}
	return msg
}
