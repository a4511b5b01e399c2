package messaging

import (
	"context"
	"time"
)

const (
	MailQueue       = "mail_queue"
	RetryDelay      = 5 * time.Second
	MaxConnectRetry = 5
)

type Task interface {
	Type() string

	Payload() []byte

	Ack() error

	Nack() error

	Reject() error
}

// MailTaskPayload is a plain-text mail waiting to be delivered.
type MailTaskPayload struct {
	To      string
	Subject string
	Body    string
}

type Publisher interface {
	PublishMailTask(ctx context.Context, payload MailTaskPayload) error

	Close()
}

type Receiver interface {
	Tasks() <-chan Task

	Close()
}
