package account

import (
	"context"
	"time"

	"github.com/serroba/shortlinks/internal/messaging"
	"go.uber.org/zap"
)

// TopicMail carries outgoing account emails.
const TopicMail = "account.mail"

// MailKind identifies the email template.
type MailKind string

const (
	MailConfirmation  MailKind = "confirmation"
	MailPasswordReset MailKind = "password_reset"
)

// MailEvent asks the mail worker to send an email.
type MailEvent struct {
	Kind      MailKind  `json:"kind"`
	To        string    `json:"to"`
	Link      string    `json:"link"`
	CreatedAt time.Time `json:"createdAt"`
}

// LogMailHandler returns a consumer handler that logs mail events instead of
// delivering them. It stands in for an SMTP relay.
func LogMailHandler(logger *zap.Logger) messaging.Handler[MailEvent] {
	return func(_ context.Context, event *MailEvent) error {
		logger.Info("mail requested",
			zap.String("kind", string(event.Kind)),
			zap.String("to", event.To),
			zap.String("link", event.Link),
			zap.Time("createdAt", event.CreatedAt),
		)

		return nil
	}
}
