// Package notifier публикует события платформы в очереди брокера.
// Тонкая обертка над каналом AMQP, удовлетворяющая интерфейсам сервисов.
package notifier

import (
	"github.com/streadway/amqp"

	"github.com/flexbit-dev/flexbit-api/internal/lib/rabbitmq"
)

// Notifier публикует почтовые события в обменник уведомлений.
type Notifier struct {
	ch *amqp.Channel
}

// New создает новый экземпляр Notifier.
func New(ch *amqp.Channel) *Notifier {
	return &Notifier{ch: ch}
}

// PublishReceipt публикует событие для письма-квитанции об оплате.
func (n *Notifier) PublishReceipt(msg rabbitmq.ReceiptMessage) error {
	return rabbitmq.PublishMessage(n.ch, rabbitmq.Exchange, rabbitmq.KeyReceipt, msg)
}

// PublishPasswordReset публикует событие для письма со ссылкой сброса пароля.
func (n *Notifier) PublishPasswordReset(msg rabbitmq.PasswordResetMessage) error {
	return rabbitmq.PublishMessage(n.ch, rabbitmq.Exchange, rabbitmq.KeyPasswordReset, msg)
}
