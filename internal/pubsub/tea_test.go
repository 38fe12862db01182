package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenCmd_ReturnsEvent(t *testing.T) {
	b := NewBroker[string]()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := b.Subscribe(ctx)
	cmd := ListenCmd(ctx, ch)

	b.Publish(UpdatedEvent, "hello")

	msg := cmd()
	event, ok := msg.(Event[string])
	require.True(t, ok)
	assert.Equal(t, "hello", event.Payload)
}

func TestListenCmd_NilOnCancel(t *testing.T) {
	b := NewBroker[string]()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Subscribe(ctx)
	cmd := ListenCmd(ctx, ch)
	cancel()

	done := make(chan struct{})
	var msg any
	go func() {
		msg = cmd()
		close(done)
	}()

	select {
	case <-done:
		assert.Nil(t, msg)
	case <-time.After(time.Second):
		t.Fatal("command did not return after cancellation")
	}
}

func TestContinuousListener_ReceivesSequence(t *testing.T) {
	b := NewBroker[int]()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewContinuousListener(ctx, b)

	b.Publish(CreatedEvent, 1)
	b.Publish(CreatedEvent, 2)

	first := l.Listen()()
	second := l.Listen()()

	assert.Equal(t, 1, first.(Event[int]).Payload)
	assert.Equal(t, 2, second.(Event[int]).Payload)
}
