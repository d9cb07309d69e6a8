package mailer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message adalah email keluar sederhana (plain + html).
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

/* ================= SendGrid ================= */

type SendGridMailer struct {
	client   *sendgrid.Client
	fromName string
	from     string
}

func NewSendGrid(apiKey, from string) *SendGridMailer {
	return &SendGridMailer{
		client:   sendgrid.NewSendClient(apiKey),
		fromName: "Kursusku",
		from:     from,
	}
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	html := msg.HTML
	if html == "" {
		html = "<p>" + msg.Text + "</p>"
	}
	email := mail.NewSingleEmail(
		mail.NewEmail(m.fromName, m.from),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.ToEmail),
		msg.Text,
		html,
	)
	resp, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

/* ================= Noop ================= */

// NoopMailer dipakai saat SENDGRID_API_KEY kosong.
type NoopMailer struct{}

func (NoopMailer) Send(_ context.Context, msg Message) error {
	log.Debug().Str("to", msg.ToEmail).Str("subject", msg.Subject).Msg("[MAIL] noop")
	return nil
}

// New memilih SendGrid bila api key ada.
func New(apiKey, from string) Mailer {
	if apiKey == "" {
		return NoopMailer{}
	}
	return NewSendGrid(apiKey, from)
}

// SendAsync mengirim email best-effort; kegagalan hanya di-log.
func SendAsync(m Mailer, msg Message) {
	if m == nil || msg.ToEmail == "" {
		return
	}
	go func() {
		if err := m.Send(context.Background(), msg); err != nil {
			log.Warn().Err(err).Str("to", msg.ToEmail).Str("subject", msg.Subject).Msg("[MAIL] gagal kirim")
		}
	}()
}
