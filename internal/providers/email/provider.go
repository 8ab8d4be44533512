package email

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("email_not_configured")

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Message struct {
	To          []string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

type Provider interface {
	Send(ctx context.Context, msg Message) error
}

// Unconfigured rejects every message. It stands in when no SMTP host is set.
type Unconfigured struct{}

func (Unconfigured) Send(ctx context.Context, msg Message) error {
	return ErrNotConfigured
}
