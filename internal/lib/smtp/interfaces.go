// Package smtp отправляет письма-напоминания через SMTP с STARTTLS.
package smtp

import "io"

// Client интерфейс для SMTP клиента.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Dialer устанавливает авторизованное SMTP-соединение.
type Dialer interface {
	Connect() (Client, error)
	From() string
}
