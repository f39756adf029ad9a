package mail

import "context"

// Mailer delivers transactional mail. Callers trigger delivery and never
// wait for it; a failed send must not fail the request that caused it.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
