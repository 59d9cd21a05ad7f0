package common

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Exchange string

type Queue string

type BindingKey string

type MessageProducer interface {
	Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error
}

type MessageConsumer interface {
	Consume(key BindingKey, exchange Exchange, queue Queue) (<-chan amqp.Delivery, error)
}

const (
	MailExchange Exchange = "mail_exchange"

	UserCreatedQueue     Queue = "user_created_queue"
	PasswordResetQueue   Queue = "password_reset_queue"
	EmailChangeQueue     Queue = "email_change_queue"
	UserSuspendedQueue   Queue = "user_suspended_queue"
	UserUnsuspendedQueue Queue = "user_unsuspended_queue"

	UserCreatedKey     BindingKey = "user.created"
	PasswordResetKey   BindingKey = "user.password_reset"
	EmailChangeKey     BindingKey = "user.email_change"
	UserSuspendedKey   BindingKey = "user.suspended"
	UserUnsuspendedKey BindingKey = "user.unsuspended"
)

type MessageBroker struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewMessageBroker(URI string) (*MessageBroker, error) {
	conn, ch, err := connectAMQP(URI)
	if err != nil {
		return nil, err
	}

	return &MessageBroker{
		conn: conn,
		ch:   ch,
	}, nil
}

func connectAMQP(URI string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(URI)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("could not open channel: %w", err)
	}

	return conn, ch, nil
}

// Close closes the connection and channel of the message broker.
func (mb *MessageBroker) Close() error {
	err := mb.ch.Close()
	if err != nil {
		return err
	}

	err = mb.conn.Close()
	if err != nil {
		return err
	}

	return nil
}

// SetupMailExchange declares the mail exchange and binds one queue per mail
// event. All mail delivery is best-effort: producers publish and move on.
func SetupMailExchange(mb *MessageBroker) error {
	err := mb.ch.ExchangeDeclare(string(MailExchange), "direct", true, false, false, false, nil)
	if err != nil {
		return err
	}

	bindings := []struct {
		queue Queue
		key   BindingKey
	}{
		{UserCreatedQueue, UserCreatedKey},
		{PasswordResetQueue, PasswordResetKey},
		{EmailChangeQueue, EmailChangeKey},
		{UserSuspendedQueue, UserSuspendedKey},
		{UserUnsuspendedQueue, UserUnsuspendedKey},
	}

	for _, b := range bindings {
		_, err = mb.ch.QueueDeclare(string(b.queue), true, false, false, false, nil)
		if err != nil {
			return err
		}

		err = mb.ch.QueueBind(string(b.queue), string(b.key), string(MailExchange), false, nil)
		if err != nil {
			return err
		}
	}

	return nil
}

func (mb *MessageBroker) Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error {
	err := mb.ch.PublishWithContext(ctx, string(exchange), string(key), false, false, amqp.Publishing{
		ContentType: "text/plain",
		Body:        msg,
	})
	if err != nil {
		return fmt.Errorf("could not publish message: %w", err)
	}

	return nil
}

func (mb *MessageBroker) Consume(key BindingKey, exchange Exchange, queue Queue) (<-chan amqp.Delivery, error) {
	msgs, err := mb.ch.Consume(string(queue), string(key), false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("could not consume message: %w", err)
	}

	return msgs, nil
}
