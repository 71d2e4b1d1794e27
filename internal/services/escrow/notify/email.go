package notify

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

// MailSender sends composed messages.
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPConfig configures the operations alert mailer.
type SMTPConfig struct {
	Host     string `env:"GIGMATE_SMTP_HOST"`
	Port     int    `env:"GIGMATE_SMTP_PORT" envDefault:"587"`
	Username string `env:"GIGMATE_SMTP_USERNAME"`
	Password string `env:"GIGMATE_SMTP_PASSWORD"`
	From     string `env:"GIGMATE_SMTP_FROM" envDefault:"escrow@gigmate.app"`
	OpsInbox string `env:"GIGMATE_OPS_INBOX" envDefault:"ops@gigmate.app"`
}

// Enabled reports whether an SMTP host is configured.
func (c SMTPConfig) Enabled() bool {
	return strings.TrimSpace(c.Host) != ""
}

// Mailer emails the operations inbox when a booking needs a human: a
// below-threshold rating pair or an opened dispute. Other events are ignored.
type Mailer struct {
	sender MailSender
	from   string
	to     string
}

// NewMailer builds a mailer over sender.
func NewMailer(sender MailSender, from, to string) *Mailer {
	return &Mailer{sender: sender, from: strings.TrimSpace(from), to: strings.TrimSpace(to)}
}

// NewSMTPMailer builds a mailer that dials cfg.Host per message.
func NewSMTPMailer(cfg SMTPConfig) *Mailer {
	return NewMailer(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg.From, cfg.OpsInbox)
}

// Notify implements Notifier.
func (m *Mailer) Notify(ctx context.Context, event Event) error {
	if event.Type != EventMediationRequired && event.Type != EventBookingDisputed {
		return nil
	}
	if m == nil || m.sender == nil {
		return fmt.Errorf("mailer is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.to)
	msg.SetHeader("Subject", alertSubject(event))
	msg.SetBody("text/plain", alertBody(event))

	// DialAndSend takes no context; a stalled SMTP server must not hold the
	// caller past ctx. The send goroutine finishes on its own.
	sent := make(chan error, 1)
	go func() {
		sent <- m.sender.DialAndSend(msg)
	}()
	select {
	case err := <-sent:
		if err != nil {
			return fmt.Errorf("send %s alert for booking %s: %w", event.Type, event.BookingID, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send %s alert for booking %s: %w", event.Type, event.BookingID, ctx.Err())
	}
}

func alertSubject(event Event) string {
	if event.Type == EventBookingDisputed {
		return fmt.Sprintf("[Gigmate] Dispute opened on booking %s", event.BookingID)
	}
	return fmt.Sprintf("[Gigmate] Mediation required for booking %s", event.BookingID)
}

func alertBody(event Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Booking: %s\n", event.BookingID)
	fmt.Fprintf(&b, "Venue: %s\n", event.VenueID)
	fmt.Fprintf(&b, "Musician: %s\n", event.MusicianID)
	fmt.Fprintf(&b, "Status: %s\n", event.Status)
	fmt.Fprintf(&b, "Agreed rate: %s %s\n", event.AgreedRate, event.Currency)
	fmt.Fprintf(&b, "Gigmate fee: %s\n", event.GigmateFee)
	fmt.Fprintf(&b, "Mediation fee: %s\n", event.MediationFee)
	fmt.Fprintf(&b, "Total held: %s\n", event.TotalAmount)
	if event.Party != "" {
		fmt.Fprintf(&b, "Raised by: %s\n", event.Party)
	}
	if event.Reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", event.Reason)
	}
	fmt.Fprintf(&b, "At: %s\n", event.OccurredAt.UTC().Format("2006-01-02 15:04 MST"))
	return b.String()
}
