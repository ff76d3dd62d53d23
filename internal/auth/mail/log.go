package mail

import (
	"context"

	"github.com/onevision/baselogin/pkg/slogx"
)

// LogSender writes emails to the log instead of delivering them. Used in dev
// where no SMTP relay is configured, so links can be copied from the output.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	slogx.FromContext(ctx).Info("email (not sent, log sender active)",
		"to", to,
		"subject", subject,
		"body", htmlBody,
	)
	return nil
}
