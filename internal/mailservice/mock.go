package mailservice

import (
	"bytes"

	"github.com/go-mail/mail/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/mock"

	"github.com/MDA04systack/devlog/internal/common"
)

type MockTemplate struct {
	mock.Mock
}

func (m *MockTemplate) ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error) {
	args := m.Called(name, data)

	var subject, plainBody, htmlBody *bytes.Buffer
	if args.Get(0) != nil {
		subject = args.Get(0).(*bytes.Buffer)
	}
	if args.Get(1) != nil {
		plainBody = args.Get(1).(*bytes.Buffer)
	}
	if args.Get(2) != nil {
		htmlBody = args.Get(2).(*bytes.Buffer)
	}

	return subject, plainBody, htmlBody, args.Error(3)
}

type MockDialer struct {
	mock.Mock
}

func (m *MockDialer) DialAndSend(msg ...*mail.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) send(recipient string, data any, templateFile string) error {
	args := m.Called(recipient, data, templateFile)
	return args.Error(0)
}

type MockMessageConsumer struct {
	mock.Mock
}

func (m *MockMessageConsumer) Consume(key common.BindingKey, exchange common.Exchange, queue common.Queue) (<-chan amqp.Delivery, error) {
	args := m.Called(key, exchange, queue)

	var msgs <-chan amqp.Delivery
	if args.Get(0) != nil {
		msgs = args.Get(0).(<-chan amqp.Delivery)
	}

	return msgs, args.Error(1)
}
