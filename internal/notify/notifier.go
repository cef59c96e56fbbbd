// Package notify delivers one-time codes and invitation links over SMS and email.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	identitydomain "staffhub/backend/internal/identity/domain"
	"staffhub/backend/internal/notify/mail"
	"staffhub/backend/internal/notify/sms"
)

// InvitationEnqueuer schedules invitation mail for asynchronous delivery.
type InvitationEnqueuer interface {
	EnqueueInvitation(ctx context.Context, email, name, link string) error
}

// Notifier routes codes to the right channel and invitations to mail.
type Notifier struct {
	sms      sms.Sender
	mailer   mail.Mailer
	enqueuer InvitationEnqueuer
	log      zerolog.Logger
}

// New returns a Notifier. enqueuer may be nil, in which case invitations are mailed inline.
func New(smsSender sms.Sender, mailer mail.Mailer, enqueuer InvitationEnqueuer, log zerolog.Logger) *Notifier {
	return &Notifier{sms: smsSender, mailer: mailer, enqueuer: enqueuer, log: log.With().Str("component", "notify").Logger()}
}

// SendCode delivers code to value: SMS for phone, mail for email.
func (n *Notifier) SendCode(ctx context.Context, channel identitydomain.Channel, value, code string) error {
	switch channel {
	case identitydomain.ChannelPhone:
		if err := n.sms.Send(ctx, value, sms.CodeBody(code)); err != nil {
			n.log.Warn().Err(err).Msg("sms code delivery failed")
			return err
		}
	case identitydomain.ChannelEmail:
		if err := n.mailer.Send(ctx, mail.CodeMessage(value, code)); err != nil {
			n.log.Warn().Err(err).Msg("email code delivery failed")
			return err
		}
	default:
		return fmt.Errorf("notify: unsupported channel %q", channel)
	}
	return nil
}

// SendInvitation delivers the invitation link to email.
func (n *Notifier) SendInvitation(ctx context.Context, email, name, link string) error {
	if n.enqueuer != nil {
		return n.enqueuer.EnqueueInvitation(ctx, email, name, link)
	}
	return n.mailer.Send(ctx, mail.InvitationMessage(email, name, link))
}
