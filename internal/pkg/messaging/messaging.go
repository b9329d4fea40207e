package messaging

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrTopicRequired is returned when the topic or subject is empty.
	ErrTopicRequired = errors.New("messaging: topic is required")
	// ErrHandlerRequired is returned when Consume is called with a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
	// ErrGroupRequired is returned when a driver needs a consumer group and none was given.
	ErrGroupRequired = errors.New("messaging: consumer group is required")
	// ErrClosed is returned when the client has been closed.
	ErrClosed = errors.New("messaging: client closed")
)

// Messaging is a broker client able to publish and consume.
type Messaging interface {
	io.Closer
	Publisher
	Consumer
}

// Publisher sends messages to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg OutgoingMessage) error
}

// Consumer receives messages from a topic. Consume blocks until ctx is
// canceled or the subscription fails.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message. With auto-ack enabled a nil error
// acknowledges the message.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a message to publish.
type OutgoingMessage struct {
	// Key selects the Kafka partition; other drivers ignore it.
	Key []byte
	// Body is the payload.
	Body []byte
	// Headers travel with the message.
	Headers map[string]string
}

// Message is a received message.
type Message interface {
	Topic() string
	Key() []byte
	Body() []byte
	// Header returns the first value of header key, or "".
	Header(key string) string
	// Ack marks the message as processed.
	Ack(ctx context.Context) error
}
