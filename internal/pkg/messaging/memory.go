package messaging

import (
	"context"
	"log/slog"
	"maps"
	"sync"
)

// Memory is an in-process bus. Every consumer group subscribed to a topic
// receives each message once; within a group, one member handles it.
type Memory struct {
	mu     sync.RWMutex
	groups map[string]map[string]chan memoryMessage
	closed bool
}

// NewMemory returns an empty bus.
func NewMemory() *Memory {
	return &Memory{groups: map[string]map[string]chan memoryMessage{}}
}

// Publish delivers msg to every group subscribed to topic, waiting for room
// in each group's queue.
func (m *Memory) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if topic == "" {
		return ErrTopicRequired
	}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	queues := make([]chan memoryMessage, 0, len(m.groups[topic]))
	for _, q := range m.groups[topic] {
		queues = append(queues, q)
	}
	m.mu.RUnlock()

	delivered := memoryMessage{topic: topic, key: msg.Key, body: msg.Body, headers: maps.Clone(msg.Headers)}
	for _, q := range queues {
		select {
		case q <- delivered:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Consume joins group (default: the topic name) and handles messages until
// ctx is canceled.
func (m *Memory) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)
	group := co.group
	if group == "" {
		group = topic
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.groups[topic] == nil {
		m.groups[topic] = map[string]chan memoryMessage{}
	}
	queue, ok := m.groups[topic][group]
	if !ok {
		queue = make(chan memoryMessage, 64)
		m.groups[topic][group] = queue
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case msg := <-queue:
					if err := dispatch(ctx, DriverMemory, handler, msg, co.autoAck); err != nil {
						slog.ErrorContext(ctx, "failed to handle message", "driver", DriverMemory, "topic", topic, "error", err)
					}
				}
			}
		})
	}
	wg.Wait()

	return ctx.Err()
}

// Close rejects further publishes and subscriptions.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

type memoryMessage struct {
	topic   string
	key     []byte
	body    []byte
	headers map[string]string
}

func (m memoryMessage) Topic() string             { return m.topic }
func (m memoryMessage) Key() []byte               { return m.key }
func (m memoryMessage) Body() []byte              { return m.body }
func (m memoryMessage) Header(key string) string  { return m.headers[key] }
func (m memoryMessage) Ack(context.Context) error { return nil }
