package notifier

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rsud-anugerah/shift-swap/backend/internal/domain"
)

// AMQPNotifier hands notifications to the delivery worker through a durable
// queue. Publishing succeeds or fails fast; actually reaching the party is
// the worker's problem, which is what makes delivery best-effort for the
// workflow.
type AMQPNotifier struct {
	channel        *amqp.Channel
	queue          string
	publishTimeout time.Duration
}

func NewAMQPNotifier(channel *amqp.Channel, queue string, publishTimeout time.Duration) *AMQPNotifier {
	return &AMQPNotifier{
		channel:        channel,
		queue:          queue,
		publishTimeout: publishTimeout,
	}
}

func (n *AMQPNotifier) Deliver(ctx context.Context, recipient *domain.User, notification domain.Notification) error {
	notification.To = domain.Recipient{
		FullName:       recipient.FullName,
		Email:          recipient.Email,
		TelegramChatID: recipient.TelegramChatID,
	}

	body, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, n.publishTimeout)
	defer cancel()

	return n.channel.PublishWithContext(
		ctx,
		"",
		n.queue,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
