package authcore

import "context"

// MailKind selects the outbound template. Rendering and delivery live in the
// platform's mail service; this module only dispatches.
type MailKind string

const (
	MailVerification  MailKind = "verification"
	MailWelcome       MailKind = "welcome"
	MailLoginOTP      MailKind = "login_otp"
	MailPasswordReset MailKind = "password_reset"
)

// Mail is one outbound message request.
type Mail struct {
	To     string
	Kind   MailKind
	Params map[string]string
}

// Mailer is the outbound-mail contract. Sends are best-effort: the Service
// logs failures and never propagates them to the caller's success path.
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}

// NoOpMailer discards all mail.
type NoOpMailer struct{}

func (NoOpMailer) Send(context.Context, Mail) error { return nil }

// ChannelMailer forwards mail to a buffered channel, mainly for tests.
type ChannelMailer struct {
	mails chan Mail
}

func NewChannelMailer(buffer int) *ChannelMailer {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelMailer{
		mails: make(chan Mail, buffer),
	}
}

func (m *ChannelMailer) Send(ctx context.Context, mail Mail) error {
	select {
	case m.mails <- mail:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *ChannelMailer) Mails() <-chan Mail {
	return m.mails
}
