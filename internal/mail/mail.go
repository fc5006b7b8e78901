// Package mail delivers account notifications such as temporary passwords.
package mail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sender delivers a plain-text message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Message is a rendered outgoing e-mail.
type Message struct {
	ID      string    `json:"id"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Date    time.Time `json:"date"`
}

func newMessage(from, to, subject, body string, now time.Time) Message {
	return Message{
		ID:      uuid.NewString(),
		From:    from,
		To:      strings.TrimSpace(to),
		Subject: subject,
		Body:    body,
		Date:    now.UTC(),
	}
}

// RFC5322 renders the message with minimal headers.
func (m Message) RFC5322() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Message-ID: <%s>\r\n", m.ID)
	fmt.Fprintf(&b, "Date: %s\r\n", m.Date.Format(time.RFC1123Z))
	if m.From != "" {
		fmt.Fprintf(&b, "From: %s\r\n", m.From)
	}
	fmt.Fprintf(&b, "To: %s\r\n", m.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", m.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	return []byte(b.String())
}
