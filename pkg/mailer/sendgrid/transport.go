// Package sendgrid implements mailer.Transport using the SendGrid v3 mail API.
package sendgrid

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/sendgrid/rest"
	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/dmitrymomot/templatemailer/pkg/mailer"
)

// Config holds SendGrid configuration.
type Config struct {
	APIKey string `yaml:"apiKey"`
}

// client is the part of the SendGrid client the transport uses.
type client interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Transport sends emails via the SendGrid API.
type Transport struct {
	client client
}

// New creates a SendGrid transport.
func New(cfg Config) *Transport {
	return &Transport{client: sg.NewSendClient(cfg.APIKey)}
}

// Send implements mailer.Transport.
func (t *Transport) Send(ctx context.Context, msg *mailer.Message) (mailer.Receipt, error) {
	if err := msg.Validate(); err != nil {
		return mailer.Receipt{}, err
	}

	resp, err := t.client.SendWithContext(ctx, buildMail(msg))
	if err != nil {
		return mailer.Receipt{}, fmt.Errorf("%w: sendgrid: %w", mailer.ErrSendFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return mailer.Receipt{}, fmt.Errorf("%w: sendgrid: status %d: %s", mailer.ErrSendFailed, resp.StatusCode, resp.Body)
	}

	var providerID string
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		providerID = ids[0]
	}
	return mailer.DeliveredAll(msg, providerID), nil
}

func buildMail(msg *mailer.Message) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(msg.From.Name, msg.From.Address))
	m.Subject = msg.Subject

	p := mail.NewPersonalization()
	for _, addr := range msg.To {
		p.AddTos(mail.NewEmail("", addr))
	}
	for _, addr := range msg.CC {
		p.AddCCs(mail.NewEmail("", addr))
	}
	for _, addr := range msg.BCC {
		p.AddBCCs(mail.NewEmail("", addr))
	}
	m.AddPersonalizations(p)

	// text/plain must come before text/html.
	if msg.Text != "" {
		m.AddContent(mail.NewContent("text/plain", msg.Text))
	}
	if msg.HTML != "" {
		m.AddContent(mail.NewContent("text/html", msg.HTML))
	}

	for k, v := range msg.Headers {
		m.SetHeader(k, v)
	}
	if msg.ID != "" {
		m.SetHeader("Message-ID", "<"+msg.ID+">")
	}

	for _, a := range msg.Attachments {
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		att := mail.NewAttachment()
		att.SetContent(base64.StdEncoding.EncodeToString(a.Content))
		att.SetType(contentType)
		att.SetFilename(a.Filename)
		if a.ContentID != "" {
			att.SetDisposition("inline")
			att.SetContentID(a.ContentID)
		} else {
			att.SetDisposition("attachment")
		}
		m.AddAttachment(att)
	}

	// SendGrid categories are names only.
	if len(msg.Tags) > 0 {
		names := make([]string, 0, len(msg.Tags))
		for name := range msg.Tags {
			names = append(names, name)
		}
		sort.Strings(names)
		m.AddCategories(names...)
	}

	return m
}

var _ mailer.Transport = (*Transport)(nil)
