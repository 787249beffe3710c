package services

import (
	"context"
	"fmt"
	"html"

	"github.com/signalpage/signalpage/internal/models"
	gomail "gopkg.in/gomail.v2"
)

// mailSender is satisfied by *gomail.Dialer.
type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailChannel sends notifications over SMTP.
type EmailChannel struct {
	sender mailSender
	from   string
}

func NewEmailChannel(host string, port int, username, password, from string) *EmailChannel {
	if port == 0 {
		port = 587
	}
	return &EmailChannel{
		sender: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (e *EmailChannel) Name() string { return "email" }

func (e *EmailChannel) Accepts(d Delivery, st *models.Settings) bool {
	return d.Email != "" && st != nil && st.EmailNotifications
}

func (e *EmailChannel) Deliver(ctx context.Context, d Delivery) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", d.Email)
	m.SetHeader("Subject", "SignalPage: "+d.Title)

	text := d.Body
	htmlBody := "<p>" + html.EscapeString(d.Body) + "</p>"
	if d.Link != "" {
		text += "\n\n" + d.Link
		htmlBody += fmt.Sprintf(`<p><a href="%s">Open in SignalPage</a></p>`, html.EscapeString(d.Link))
	}
	m.SetBody("text/plain", text)
	m.AddAlternative("text/html", htmlBody)

	if err := e.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
