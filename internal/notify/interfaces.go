package notify

import "context"

// EmailSender delivers a single email. Implementations live in the
// transactional email layer outside this core.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers a single SMS.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}
