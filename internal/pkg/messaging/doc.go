// Package messaging publishes and consumes domain events over a broker.
//
// Drivers: Kafka (segmentio/kafka-go), NATS core subjects with queue groups,
// and an in-process bus for local runs and tests. Handlers see the same
// Message interface whichever driver delivers it.
package messaging
