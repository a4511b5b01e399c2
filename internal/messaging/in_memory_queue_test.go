package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQueue(t *testing.T) {
	queue := NewInMemoryQueue()

	payload := MailTaskPayload{To: "alice@example.com", Subject: "Password Reset Request", Body: "link"}
	require.NoError(t, queue.PublishMailTask(context.Background(), payload))

	select {
	case task := <-queue.Tasks():
		assert.Equal(t, MailQueue, task.Type())

		var got MailTaskPayload
		require.NoError(t, json.Unmarshal(task.Payload(), &got))
		assert.Equal(t, payload, got)
		assert.NoError(t, task.Ack())
	case <-time.After(time.Second):
		t.Fatal("task was not delivered")
	}

	queue.Close()
	queue.Close()

	assert.Error(t, queue.PublishMailTask(context.Background(), payload))

	_, open := <-queue.Tasks()
	assert.False(t, open)
}

func TestInMemoryQueueRespectsContext(t *testing.T) {
	queue := &InMemoryQueue{tasks: make(chan Task)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, queue.PublishMailTask(ctx, MailTaskPayload{To: "a@example.com"}), context.Canceled)
}
