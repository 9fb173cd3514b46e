package notification

import (
	"context"
	"log"

	"github.com/fjellogfjord/booking-service/pkg/rabbitmq"
)

// Notifier is the outbound email side-channel. Sends are best-effort: the
// booking and promotion flows log failures and move on, they never roll
// back on a failed send.
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// NoopNotifier is used in tests and in deployments without a broker.
type NoopNotifier struct{}

func (NoopNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	return nil
}

// EmailMessage is the payload the mail worker consumes.
type EmailMessage struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}

// QueueNotifier hands messages to RabbitMQ for the mail worker. Delivery
// is fire-and-forget from the caller's point of view.
type QueueNotifier struct {
	publisher *rabbitmq.Publisher
}

func NewQueueNotifier(publisher *rabbitmq.Publisher) *QueueNotifier {
	return &QueueNotifier{publisher: publisher}
}

func (n *QueueNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	return n.publisher.Publish("email.send", EmailMessage{
		To:       to,
		Subject:  subject,
		HTMLBody: htmlBody,
	})
}

// BestEffort wraps a send so the caller can fire it inline without error
// plumbing. All notification call sites go through here.
func BestEffort(ctx context.Context, n Notifier, to, subject, htmlBody string) {
	if n == nil || to == "" {
		return
	}
	if err := n.Send(ctx, to, subject, htmlBody); err != nil {
		log.Printf("[Notify] send to %s failed: %v", to, err)
	}
}
