// Package resend implements mailer.Transport using the Resend API.
package resend

import (
	"context"
	"fmt"
	"strconv"

	"github.com/resend/resend-go/v3"

	"github.com/dmitrymomot/templatemailer/pkg/mailer"
)

// emailAPI is the part of the Resend client the transport uses.
type emailAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Transport implements mailer.Transport using the Resend API.
type Transport struct {
	emails emailAPI
}

// New creates a new Resend transport.
func New(cfg Config) *Transport {
	return &Transport{emails: resend.NewClient(cfg.APIKey).Emails}
}

// Send implements mailer.Transport.
// Resend accepts or rejects the whole message, so a successful call reports
// every recipient as delivered.
func (t *Transport) Send(ctx context.Context, msg *mailer.Message) (mailer.Receipt, error) {
	if err := msg.Validate(); err != nil {
		return mailer.Receipt{}, err
	}

	headers := make(map[string]string, len(msg.Headers)+1)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	if msg.ID != "" {
		headers["Message-ID"] = "<" + msg.ID + ">"
	}

	req := &resend.SendEmailRequest{
		From:    msg.From.String(),
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		Cc:      msg.CC,
		Bcc:     msg.BCC,
		Headers: headers,
	}

	if len(msg.Attachments) > 0 {
		req.Attachments = convertAttachments(msg.Attachments)
	}

	if len(msg.Tags) > 0 {
		req.Tags = convertTags(msg.Tags)
	}

	resp, err := t.emails.SendWithContext(ctx, req)
	if err != nil {
		return mailer.Receipt{}, fmt.Errorf("%w: resend: %w", mailer.ErrSendFailed, err)
	}

	var providerID string
	if resp != nil {
		providerID = resp.Id
	}
	return mailer.DeliveredAll(msg, providerID), nil
}

func convertAttachments(attachments []mailer.Attachment) []*resend.Attachment {
	result := make([]*resend.Attachment, len(attachments))
	for i, a := range attachments {
		result[i] = &resend.Attachment{
			Filename:    a.Filename,
			Content:     a.Content,
			ContentType: a.ContentType,
			ContentId:   a.ContentID,
		}
	}
	return result
}

func convertTags(tags mailer.Tags) []resend.Tag {
	result := make([]resend.Tag, 0, len(tags))
	for name, value := range tags {
		result = append(result, resend.Tag{
			Name:  name,
			Value: tagValue(value),
		})
	}
	return result
}

// tagValue converts any value to a string for Resend's tag API.
// Presence-only tags (struct{}{}) become "true".
func tagValue(v any) string {
	switch val := v.(type) {
	case nil, struct{}:
		return "true"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

var _ mailer.Transport = (*Transport)(nil)
