package mailer

import (
	"fmt"

	"resale-backend/internal/messaging"
)

const PasswordResetSubject = "Password Reset Request"

func PasswordResetMail(to, resetURL string) messaging.MailTaskPayload {
	return messaging.MailTaskPayload{
		To:      to,
		Subject: PasswordResetSubject,
		Body: fmt.Sprintf(`To reset your password, visit the following link:
%s

If you did not make this request, simply ignore this email.`, resetURL),
	}
}
