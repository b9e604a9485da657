package smtp

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"

	"github.com/magabrotheeeer/subbers/internal/config"
)

// ErrNoSTARTTLS возвращается, если сервер не поддерживает STARTTLS.
var ErrNoSTARTTLS = errors.New("smtp server does not support STARTTLS")

// Transport устанавливает соединение с SMTP-сервером из config.SMTP.
type Transport struct {
	cfg config.SMTP
}

type clientWrapper struct {
	*smtp.Client
}

// NewTransport создает новый экземпляр Transport.
func NewTransport(cfg config.SMTP) *Transport {
	return &Transport{cfg: cfg}
}

// Connect подключается к серверу, включает STARTTLS и проходит PLAIN-аутентификацию.
func (t *Transport) Connect() (Client, error) {
	const op = "smtp.Connect"
	conn, err := net.Dial("tcp", net.JoinHostPort(t.cfg.Host, t.cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("%s: dial: %w", op, err)
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if ok, _ := client.Extension("STARTTLS"); !ok {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, ErrNoSTARTTLS)
	}
	tlsConfig := &tls.Config{
		ServerName: t.cfg.Host,
		MinVersion: tls.VersionTLS12,
	}
	if err = client.StartTLS(tlsConfig); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: start tls: %w", op, err)
	}

	if t.cfg.User != "" {
		auth := smtp.PlainAuth("", t.cfg.User, t.cfg.Pass, t.cfg.Host)
		if err = client.Auth(auth); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("%s: auth: %w", op, err)
		}
	}

	return clientWrapper{client}, nil
}

// From возвращает адрес отправителя.
func (t *Transport) From() string {
	return t.cfg.User
}
