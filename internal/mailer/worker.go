package mailer

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"resale-backend/internal/messaging"
)

const sendTimeout = 30 * time.Second

// Worker drains the mail queue and hands each message to a Sender.
type Worker struct {
	receiver messaging.Receiver
	sender   Sender

	wg sync.WaitGroup
}

func NewWorker(receiver messaging.Receiver, sender Sender) *Worker {
	return &Worker{receiver: receiver, sender: sender}
}

// Start consumes tasks in the background until the receiver is closed.
func (w *Worker) Start() {
	slog.Info("starting mail worker")

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		for task := range w.receiver.Tasks() {
			w.ProcessTask(task)
		}
	}()
}

func (w *Worker) Stop() {
	slog.Info("stopping mail worker")
	w.receiver.Close()
}

// Wait blocks until Start has returned.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) ProcessTask(task messaging.Task) {
	var err error
	switch task.Type() {
	case messaging.MailQueue:
		var payload messaging.MailTaskPayload
		if err = json.Unmarshal(task.Payload(), &payload); err != nil || payload.To == "" {
			slog.Error("error unmarshalling mail task", "error", err)
			if err := task.Reject(); err != nil {
				slog.Error("error rejecting message from queue", "error", err)
			}
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		err = w.sender.Send(ctx, payload)
		cancel()

	default:
		slog.Error("received unknown task type", "queue", task.Type())
		if err := task.Reject(); err != nil {
			slog.Error("error rejecting message from queue", "error", err)
		}
		return
	}

	if err != nil {
		slog.Error("error processing task", "queue", task.Type(), "error", err)
		if err := task.Nack(); err != nil {
			slog.Error("error reporting processing failure on message from queue", "error", err)
		}
	} else {
		slog.Info("successfully processed task", "queue", task.Type())
		if err := task.Ack(); err != nil {
			slog.Error("error acknowledging message from queue", "error", err)
		}
	}
}
