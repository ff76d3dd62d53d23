// Package mail renders and delivers the transactional emails the auth flows
// depend on: account confirmation, magic links, team invites and password
// resets.
package mail

import "context"

// Sender delivers a rendered email. Implementations must be safe for
// concurrent use since flows send from request goroutines.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
