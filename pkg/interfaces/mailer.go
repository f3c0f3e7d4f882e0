package interfaces

import "context"

// MailMessage is the rendered notification the email trigger hands off.
type MailMessage struct {
	To      []string
	Subject string
	HTML    string
}

// Mailer delivers trigger notifications. Transport (SMTP, API, queue) is a
// host concern; the engine only renders and hands off.
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}
