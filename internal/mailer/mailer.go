package mailer

import "gopkg.in/gomail.v2"

// Sender delivers listing notifications; satisfied by Mailer and mocked in
// tests.
type Sender interface {
	SendListingPublishedEmail(toEmail, listingTitle string) error
}

type Mailer struct {
	host     string
	port     int
	from     string
	password string
}

func New(host string, port int, from, password string) *Mailer {
	return &Mailer{host: host, port: port, from: from, password: password}
}

// Configured reports whether SMTP credentials were provided; when false the
// service skips notification mail entirely.
func (m *Mailer) Configured() bool {
	return m.host != "" && m.from != ""
}

func (m *Mailer) SendListingPublishedEmail(toEmail, listingTitle string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", "Your listing is live")
	msg.SetBody("text/plain", "Your listing '"+listingTitle+"' has been published successfully.")

	d := gomail.NewDialer(m.host, m.port, m.from, m.password)
	return d.DialAndSend(msg)
}
