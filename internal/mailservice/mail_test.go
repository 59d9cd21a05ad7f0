package mailservice

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSend(t *testing.T) {
	mockDialer := new(MockDialer)
	mockTemplate := new(MockTemplate)

	subject := bytes.NewBufferString("Subject line")
	plainBody := bytes.NewBufferString("Plain body")
	htmlBody := bytes.NewBufferString("<p>HTML body</p>")

	mockTemplate.On("ParseTemplate", "activation_email.html", mock.Anything).Return(subject, plainBody, htmlBody, nil)
	mockDialer.On("DialAndSend", mock.Anything).Return(nil)

	m := &Mail{
		dialer: mockDialer,
		parser: mockTemplate,
		sender: "devlog <no-reply@devlog.example.com>",
	}

	err := m.send("test@example.com", nil, "activation_email.html")
	assert.NoError(t, err)

	mockTemplate.AssertExpectations(t)
	mockDialer.AssertExpectations(t)
}

func TestSendParseFailure(t *testing.T) {
	mockDialer := new(MockDialer)
	mockTemplate := new(MockTemplate)

	mockTemplate.On("ParseTemplate", "broken.html", mock.Anything).Return(nil, nil, nil, errors.New("could not parse template"))

	m := &Mail{
		dialer: mockDialer,
		parser: mockTemplate,
		sender: "devlog <no-reply@devlog.example.com>",
	}

	err := m.send("test@example.com", nil, "broken.html")
	assert.Error(t, err)

	mockDialer.AssertNotCalled(t, "DialAndSend", mock.Anything)
}
