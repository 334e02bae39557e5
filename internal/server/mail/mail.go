// Package mail dispatches outbound notifications over SMTP.
package mail

import "gopkg.in/gomail.v2"

// Sender dispatches a single message or fails. Retries are the caller's
// concern.
type Sender interface {
	Send(subject, to, body string) error
}

type GomailSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewGomailSender(host string, port int, user, password, from string) *GomailSender {
	return &GomailSender{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

func (s *GomailSender) Send(subject, to, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	return s.dialer.DialAndSend(m)
}
