package smtp

import (
	"fmt"
	"mime"
	"strings"
)

// Mailer формирует и отправляет текстовые письма через Dialer.
type Mailer struct {
	dialer Dialer
}

// NewMailer создаёт Mailer.
func NewMailer(d Dialer) *Mailer {
	return &Mailer{dialer: d}
}

// Send отправляет одно письмо на адрес to.
func (m *Mailer) Send(to, subject, body string) error {
	const op = "smtp.Send"
	client, err := m.dialer.Connect()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = client.Close() }()

	from := m.dialer.From()
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("%s: mail from: %w", op, err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("%s: rcpt %s: %w", op, to, err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("%s: data: %w", op, err)
	}
	if _, err := wc.Write([]byte(Compose(from, to, subject, body))); err != nil {
		_ = wc.Close()
		return fmt.Errorf("%s: write: %w", op, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("%s: close data: %w", op, err)
	}
	if err := client.Quit(); err != nil {
		return fmt.Errorf("%s: quit: %w", op, err)
	}
	return nil
}

// Compose собирает RFC 5322 сообщение с текстовым телом в UTF-8.
func Compose(from, to, subject, body string) string {
	return strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")
}
