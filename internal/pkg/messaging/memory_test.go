package messaging

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitSubscribed(t *testing.T, m *Memory, topic string, groups int) {
	t.Helper()
	require.Eventually(t, func() bool {
		m.mu.RLock()
		defer m.mu.RUnlock()
		return len(m.groups[topic]) == groups
	}, time.Second, 5*time.Millisecond)
}

func TestMemory_PublishConsume(t *testing.T) {
	t.Parallel()

	// Arrange
	bus := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- bus.Consume(ctx, "auth.account.created", func(_ context.Context, msg Message) error {
			got <- msg
			return nil
		}, WithGroup("notification"), WithAutoAck(true))
	}()
	waitSubscribed(t, bus, "auth.account.created", 1)

	// Act
	err := bus.Publish(ctx, "auth.account.created", OutgoingMessage{
		Key:     []byte("uid-1"),
		Body:    []byte(`{"uid":"uid-1"}`),
		Headers: map[string]string{"cID": "corr-1"},
	})

	// Assert
	require.NoError(t, err)
	select {
	case msg := <-got:
		assert.Equal(t, "auth.account.created", msg.Topic())
		assert.Equal(t, []byte("uid-1"), msg.Key())
		assert.JSONEq(t, `{"uid":"uid-1"}`, string(msg.Body()))
		assert.Equal(t, "corr-1", msg.Header("cID"))
		assert.Empty(t, msg.Header("missing"))
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestMemory_EachGroupOnce(t *testing.T) {
	t.Parallel()

	bus := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var a, b atomic.Int32
	for _, g := range []struct {
		name  string
		count *atomic.Int32
	}{{"a", &a}, {"b", &b}} {
		go func() {
			_ = bus.Consume(ctx, "t", func(context.Context, Message) error {
				g.count.Add(1)
				return nil
			}, WithGroup(g.name), WithConcurrency(2))
		}()
	}
	waitSubscribed(t, bus, "t", 2)

	for range 3 {
		require.NoError(t, bus.Publish(ctx, "t", OutgoingMessage{Body: []byte("x")}))
	}

	assert.Eventually(t, func() bool { return a.Load() == 3 && b.Load() == 3 }, time.Second, 5*time.Millisecond)
}

func TestMemory_HandlerPanicIsContained(t *testing.T) {
	t.Parallel()

	bus := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	go func() {
		_ = bus.Consume(ctx, "t", func(context.Context, Message) error {
			if calls.Add(1) == 1 {
				panic("boom")
			}
			return nil
		})
	}()
	waitSubscribed(t, bus, "t", 1)

	require.NoError(t, bus.Publish(ctx, "t", OutgoingMessage{}))
	require.NoError(t, bus.Publish(ctx, "t", OutgoingMessage{}))

	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestMemory_Validation(t *testing.T) {
	t.Parallel()

	bus := NewMemory()
	ctx := context.Background()

	assert.ErrorIs(t, bus.Publish(ctx, "", OutgoingMessage{}), ErrTopicRequired)
	assert.ErrorIs(t, bus.Consume(ctx, "t", nil), ErrHandlerRequired)

	require.NoError(t, bus.Close())
	assert.ErrorIs(t, bus.Publish(ctx, "t", OutgoingMessage{}), ErrClosed)
}

func TestNewFromDriver(t *testing.T) {
	t.Parallel()

	m, err := NewFromDriver("memory", FactoryOptions{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, m)

	_, err = NewFromDriver("kafka", FactoryOptions{})
	assert.ErrorIs(t, err, ErrKafkaBrokersRequired)

	_, err = NewFromDriver("nats", FactoryOptions{})
	assert.ErrorIs(t, err, ErrNATSURLRequired)

	_, err = NewFromDriver("rabbit", FactoryOptions{})
	assert.True(t, errors.Is(err, ErrUnknownDriver))
}
