// Package mail sends transactional mail: invitation links and email one-time codes.
package mail

import (
	"context"
	"html"

	"github.com/rs/zerolog"
)

const subjectVerify = "Verify your account"

// Message is one outgoing mail.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers a Message.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// InvitationMessage builds the invitation mail carrying link.
func InvitationMessage(to, name, link string) Message {
	if name == "" {
		name = "employee"
	}
	return Message{
		To:      to,
		Subject: subjectVerify,
		HTML: `<p>Hello ` + html.EscapeString(name) + `,</p>
<p>Please click the link below to verify your account and set your password:</p>
<a href="` + html.EscapeString(link) + `">Verify link: ` + html.EscapeString(link) + `</a>`,
	}
}

// CodeMessage builds the mail carrying a one-time code.
func CodeMessage(to, code string) Message {
	return Message{
		To:      to,
		Subject: subjectVerify,
		HTML: `<p>Hello,</p>
<p>Your OTP is</p>
<h1 style="font-size:52px;font-weight:700">` + html.EscapeString(code) + `</h1>`,
	}
}

// LogMailer logs mail instead of sending it. Used when no mail provider is configured.
type LogMailer struct {
	log zerolog.Logger
}

// NewLogMailer returns a LogMailer.
func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log.With().Str("component", "mail").Logger()}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("mail (log only; set RESEND_API_KEY to deliver)")
	return nil
}
