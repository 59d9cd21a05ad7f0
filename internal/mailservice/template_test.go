package mailservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTemplate(t *testing.T) {
	template := NewTemplate()

	testCases := []struct {
		name         string
		templateName string
		data         any
		expectedErr  bool
	}{
		{
			name:         "activation email",
			templateName: "activation_email.html",
			data: struct {
				ActivationToken string
			}{
				ActivationToken: "ABCDEFGHIJKLMNOPQRSTUVWXYZ",
			},
			expectedErr: false,
		},
		{
			name:         "password reset email",
			templateName: "password_reset_email.html",
			data: struct {
				ResetToken string
			}{
				ResetToken: "ABCDEFGHIJKLMNOPQRSTUVWXYZ",
			},
			expectedErr: false,
		},
		{
			name:         "email change email",
			templateName: "email_change_email.html",
			data: struct {
				ConfirmationToken string
			}{
				ConfirmationToken: "ABCDEFGHIJKLMNOPQRSTUVWXYZ",
			},
			expectedErr: false,
		},
		{
			name:         "suspension notice",
			templateName: "suspension_notice.html",
			data: struct {
				Days  int
				Until string
			}{
				Days:  7,
				Until: "2026-09-07",
			},
			expectedErr: false,
		},
		{
			name:         "unsuspension notice",
			templateName: "unsuspension_notice.html",
			data:         struct{}{},
			expectedErr:  false,
		},
		{
			name:         "unknown template",
			templateName: "missing_template.html",
			data:         nil,
			expectedErr:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			subject, plainBody, htmlBody, err := template.ParseTemplate(tc.templateName, tc.data)

			if tc.expectedErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, subject.String())
			assert.NotEmpty(t, plainBody.String())
			assert.NotEmpty(t, htmlBody.String())
		})
	}
}
