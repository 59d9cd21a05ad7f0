package mailservice

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/mock"

	"github.com/MDA04systack/devlog/internal/common"
)

func testService(mb common.MessageConsumer, m Mailer) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:     mb,
		m:      m,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		ctx:    ctx,
		cancel: cancel,
	}
}

func deliveryChannel(bodies ...string) <-chan amqp.Delivery {
	msgs := make(chan amqp.Delivery, len(bodies))
	for _, body := range bodies {
		msgs <- amqp.Delivery{Body: []byte(body)}
	}
	return msgs
}

func TestSendActivationEmails(t *testing.T) {
	mockMC := new(MockMessageConsumer)
	mockMailer := new(MockMailer)

	msgs := deliveryChannel(`{"Email":"test@example.com","Token":"ABCDEFGHIJKLMNOPQRSTUVWXYZ"}`)
	mockMC.On("Consume", common.UserCreatedKey, common.MailExchange, common.UserCreatedQueue).Return(msgs, nil)

	payload := struct {
		ActivationToken string
	}{
		ActivationToken: "ABCDEFGHIJKLMNOPQRSTUVWXYZ",
	}
	mockMailer.On("send", "test@example.com", payload, "activation_email.html").Return(nil)

	s := testService(mockMC, mockMailer)
	defer s.Close()

	s.SendActivationEmails()

	time.Sleep(500 * time.Millisecond)

	mockMC.AssertExpectations(t)
	mockMailer.AssertExpectations(t)
}

func TestSendEmailChangeEmails(t *testing.T) {
	mockMC := new(MockMessageConsumer)
	mockMailer := new(MockMailer)

	// the confirmation goes to the requested new address
	msgs := deliveryChannel(`{"Email":"new@example.com","Token":"ABCDEFGHIJKLMNOPQRSTUVWXYZ"}`)
	mockMC.On("Consume", common.EmailChangeKey, common.MailExchange, common.EmailChangeQueue).Return(msgs, nil)

	payload := struct {
		ConfirmationToken string
	}{
		ConfirmationToken: "ABCDEFGHIJKLMNOPQRSTUVWXYZ",
	}
	mockMailer.On("send", "new@example.com", payload, "email_change_email.html").Return(nil)

	s := testService(mockMC, mockMailer)
	defer s.Close()

	s.SendEmailChangeEmails()

	time.Sleep(500 * time.Millisecond)

	mockMC.AssertExpectations(t)
	mockMailer.AssertExpectations(t)
}

func TestSendSuspensionNotices(t *testing.T) {
	mockMC := new(MockMessageConsumer)
	mockMailer := new(MockMailer)

	msgs := deliveryChannel(`{"Email":"test@example.com","Days":7,"Until":"2026-09-07T00:00:00Z"}`)
	mockMC.On("Consume", common.UserSuspendedKey, common.MailExchange, common.UserSuspendedQueue).Return(msgs, nil)

	payload := struct {
		Days  int
		Until string
	}{
		Days:  7,
		Until: "2026-09-07",
	}
	mockMailer.On("send", "test@example.com", payload, "suspension_notice.html").Return(nil)

	s := testService(mockMC, mockMailer)
	defer s.Close()

	s.SendSuspensionNotices()

	time.Sleep(500 * time.Millisecond)

	mockMC.AssertExpectations(t)
	mockMailer.AssertExpectations(t)
}

func TestMalformedEventIsDropped(t *testing.T) {
	mockMC := new(MockMessageConsumer)
	mockMailer := new(MockMailer)

	msgs := deliveryChannel(`not json`)
	mockMC.On("Consume", common.UserUnsuspendedKey, common.MailExchange, common.UserUnsuspendedQueue).Return(msgs, nil)

	s := testService(mockMC, mockMailer)
	defer s.Close()

	s.SendUnsuspensionNotices()

	time.Sleep(500 * time.Millisecond)

	mockMC.AssertExpectations(t)
	mockMailer.AssertNotCalled(t, "send", mock.Anything, mock.Anything, mock.Anything)
}
