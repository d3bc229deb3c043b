package alerts

import (
	"context"
	"errors"
	"fmt"

	"github.com/mamadbah2/telurku/pkg/clients/whatsapp"
)

// WhatsAppNotifier texts the alert message to a fixed list of recipients.
type WhatsAppNotifier struct {
	client     whatsapp.Client
	recipients []string
}

// NewWhatsAppNotifier sends through client to recipients.
func NewWhatsAppNotifier(client whatsapp.Client, recipients []string) *WhatsAppNotifier {
	return &WhatsAppNotifier{client: client, recipients: recipients}
}

func (w *WhatsAppNotifier) Name() string { return "whatsapp" }

func (w *WhatsAppNotifier) Notify(ctx context.Context, n Notification) error {
	body := fmt.Sprintf("%s\n%s", n.Title, n.Message)
	var errs []error
	for _, to := range w.recipients {
		if _, err := w.client.SendText(ctx, to, body); err != nil {
			errs = append(errs, fmt.Errorf("send to %s: %w", to, err))
		}
	}
	return errors.Join(errs...)
}

// Publisher is the queue side of QueueNotifier.
type Publisher interface {
	Publish(ctx context.Context, v any) error
}

// QueueNotifier publishes each notification as a JSON event.
type QueueNotifier struct {
	publisher Publisher
}

// NewQueueNotifier publishes through p.
func NewQueueNotifier(p Publisher) *QueueNotifier {
	return &QueueNotifier{publisher: p}
}

func (q *QueueNotifier) Name() string { return "rabbitmq" }

func (q *QueueNotifier) Notify(ctx context.Context, n Notification) error {
	return q.publisher.Publish(ctx, n)
}
