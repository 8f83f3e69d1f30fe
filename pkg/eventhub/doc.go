// Package eventhub sends messages to an Azure Event Hubs or Service Bus
// namespace.
//
// A Descriptor names the namespace, the channel path and the shared access
// credentials. Open resolves it through a Dialer into a Session that owns one
// connection, one session and one producer bound to the channel path:
//
//	desc, err := eventhub.NewDescriptor("contoso", "telemetry", "RootManageSharedAccessKey", key, "")
//	if err != nil {
//		return err
//	}
//	s, err := eventhub.Open(ctx, eventhub.AMQPDialer{}, desc, cfg, log, nil)
//	if err != nil {
//		return err
//	}
//	defer s.Close(ctx)
//	err = s.Send(ctx, 0, "device-17")
//
// Every message carries the id "ID:sample<n>", the body 01 02 03 04 05 and the
// application property SampleProperty=SampleValue. A non-empty partition key is
// attached as the x-opt-partition-key message annotation over AMQP, or as the
// record key over the Kafka endpoint. A channel path of the form
// "hub/Partitions/<id>" pins every message to one partition instead.
//
// Failures are reported as *ConfigurationError, *ConnectionError or *SendError
// and can be matched with errors.As.
package eventhub
