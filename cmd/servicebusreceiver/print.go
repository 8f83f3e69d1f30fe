package main

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/ava-labs/eventhub-sender/pkg/eventhub"
	"github.com/ava-labs/eventhub-sender/pkg/utils"
)

const usageText = `Arguments: namespace entity issuer-name issuer-key
The entity is either a queue name or a subscription path:
  queue argument        = your queue name
  subscription argument = topicname/Subscriptions/subscriptionname
`

func printUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// printMessage writes one received message. Empty optional fields are skipped.
func printMessage(w io.Writer, n uint64, msg *eventhub.ReceivedMessage) {
	fmt.Fprintf(w, "Message %d\n", n)
	field := func(name string, value any) {
		if value == nil || value == "" {
			return
		}
		fmt.Fprintf(w, "  %-16s %v\n", name+":", value)
	}
	field("id", msg.MessageID)
	field("correlation id", msg.CorrelationID)
	field("content type", msg.ContentType)
	field("subject", msg.Subject)
	field("reply to", msg.ReplyTo)
	field("group id", msg.GroupID)
	field("user id", utils.HexBytes(msg.UserID))
	if msg.TTL > 0 {
		field("ttl", msg.TTL)
	}
	field("partition key", msg.PartitionKey)
	field("body", utils.PrintableOrHex(msg.Body))
	for _, k := range slices.Sorted(maps.Keys(msg.ApplicationProperties)) {
		fmt.Fprintf(w, "  property %s = %v\n", k, msg.ApplicationProperties[k])
	}
}
