package mailservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/exp/rand"

	"github.com/MDA04systack/devlog/internal/common"
)

func NewMailService(mb common.MessageConsumer, host, username, password, sender string, port int, logger *slog.Logger) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:     mb,
		m:      NewMailer(host, port, username, password, sender, NewTemplate()),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// decodeFunc turns a raw event body into the recipient address and the
// template payload.
type decodeFunc func(body []byte) (recipient string, payload any, err error)

// consume drains one queue and sends one email per event. Delivery is
// best-effort with exponential backoff and jitter; an event whose email
// cannot be sent after the last retry is acked and dropped, never
// redelivered to the producer.
func (s *MailService) consume(key common.BindingKey, queue common.Queue, templateFile string, decode decodeFunc) {
	msgs, err := s.mb.Consume(key, common.MailExchange, queue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("queue", string(queue)), slog.String("error", err.Error()))
		return
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				s.deliver(msg, templateFile, decode)

			case <-s.ctx.Done():
				s.logger.Info("stopping mail consumer", slog.String("queue", string(queue)))
				return
			}
		}
	}()
}

func (s *MailService) deliver(msg amqp.Delivery, templateFile string, decode decodeFunc) {
	recipient, payload, err := decode(msg.Body)
	if err != nil {
		s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
		msg.Ack(false)
		return
	}

	// exponential backoff with jitter
	const maxRetries = 5
	const baseDelay = 500 * time.Millisecond

	var attempt int
	for attempt = 0; attempt < maxRetries; attempt++ {
		err = s.m.send(recipient, payload, templateFile)
		if err == nil {
			s.logger.Info("email sent", slog.String("email", recipient), slog.String("template", templateFile))
			msg.Ack(false)
			return
		}

		delay := time.Duration(rand.Int63n(int64(baseDelay) << uint(attempt)))
		s.logger.Info("delaying email", slog.String("email", recipient), slog.Int("attempt", attempt), slog.Duration("delay", delay))
		time.Sleep(delay)
	}

	s.logger.Error("could not send email", slog.String("email", recipient), slog.String("template", templateFile))
	msg.Ack(false)
}

// SendActivationEmails consumes user.created events.
func (s *MailService) SendActivationEmails() {
	s.consume(common.UserCreatedKey, common.UserCreatedQueue, "activation_email.html", func(body []byte) (string, any, error) {
		var data struct {
			Email string
			Token string
		}
		if err := json.Unmarshal(body, &data); err != nil {
			return "", nil, err
		}

		payload := struct {
			ActivationToken string
		}{
			ActivationToken: data.Token,
		}

		return data.Email, payload, nil
	})
}

// SendPasswordResetEmails consumes user.password_reset events.
func (s *MailService) SendPasswordResetEmails() {
	s.consume(common.PasswordResetKey, common.PasswordResetQueue, "password_reset_email.html", func(body []byte) (string, any, error) {
		var data struct {
			Email string
			Token string
		}
		if err := json.Unmarshal(body, &data); err != nil {
			return "", nil, err
		}

		payload := struct {
			ResetToken string
		}{
			ResetToken: data.Token,
		}

		return data.Email, payload, nil
	})
}

// SendEmailChangeEmails consumes user.email_change events. The confirmation
// goes to the new address, not the current account email.
func (s *MailService) SendEmailChangeEmails() {
	s.consume(common.EmailChangeKey, common.EmailChangeQueue, "email_change_email.html", func(body []byte) (string, any, error) {
		var data struct {
			Email string
			Token string
		}
		if err := json.Unmarshal(body, &data); err != nil {
			return "", nil, err
		}

		payload := struct {
			ConfirmationToken string
		}{
			ConfirmationToken: data.Token,
		}

		return data.Email, payload, nil
	})
}

// SendSuspensionNotices consumes user.suspended events.
func (s *MailService) SendSuspensionNotices() {
	s.consume(common.UserSuspendedKey, common.UserSuspendedQueue, "suspension_notice.html", func(body []byte) (string, any, error) {
		var data struct {
			Email string
			Days  int
			Until time.Time
		}
		if err := json.Unmarshal(body, &data); err != nil {
			return "", nil, err
		}

		payload := struct {
			Days  int
			Until string
		}{
			Days:  data.Days,
			Until: data.Until.Format("2006-01-02"),
		}

		return data.Email, payload, nil
	})
}

// SendUnsuspensionNotices consumes user.unsuspended events.
func (s *MailService) SendUnsuspensionNotices() {
	s.consume(common.UserUnsuspendedKey, common.UserUnsuspendedQueue, "unsuspension_notice.html", func(body []byte) (string, any, error) {
		var data struct {
			Email string
		}
		if err := json.Unmarshal(body, &data); err != nil {
			return "", nil, err
		}

		return data.Email, struct{}{}, nil
	})
}

func (s *MailService) Close() {
	s.cancel()
}
