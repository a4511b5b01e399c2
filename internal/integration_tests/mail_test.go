package integrationtests

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"resale-backend/internal/mailer"
	"resale-backend/internal/messaging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRabbitMQMailTasks(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	url := setupRabbitMQContainer(t, ctx)

	publisher, err := messaging.NewRabbitMQPublisher(url)
	require.NoError(t, err)
	defer publisher.Close()

	receiver, err := messaging.NewRabbitMQReceiver(url)
	require.NoError(t, err)

	t.Run("PublishAndReceive", func(t *testing.T) {
		payload := mailer.PasswordResetMail("driver@example.com", "http://resale.test/reset_password/abc")
		require.NoError(t, publisher.PublishMailTask(ctx, payload))

		select {
		case task := <-receiver.Tasks():
			assert.Equal(t, messaging.MailQueue, task.Type())

			var received messaging.MailTaskPayload
			require.NoError(t, json.Unmarshal(task.Payload(), &received))
			assert.Equal(t, payload, received)

			require.NoError(t, task.Ack())
		case <-time.After(10 * time.Second):
			t.Fatal("Timed out waiting for task")
		}
	})

	t.Run("WorkerDelivers", func(t *testing.T) {
		sender := &recordingSender{}
		worker := mailer.NewWorker(receiver, sender)
		worker.Start()
		defer func() {
			worker.Stop()
			worker.Wait()
		}()

		payload := mailer.PasswordResetMail("other@example.com", "http://resale.test/reset_password/xyz")
		require.NoError(t, publisher.PublishMailTask(ctx, payload))

		assert.Equal(t, payload, sender.waitForMail(t))
	})
}
