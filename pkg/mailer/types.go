package mailer

import (
	"strings"

	"github.com/emersion/go-message/mail"
)

// Tags represents email tags/categories that can be either presence-only
// (using struct{}{}) or key-value pairs (using string values).
// This abstraction works across different email providers:
//   - SendGrid: uses only tag names (categories)
//   - Resend: uses name-value pairs (presence-only tags become name="true")
type Tags map[string]any

// SimpleTags creates presence-only tags from a list of tag names.
// These are converted to appropriate format by each transport.
func SimpleTags(names ...string) Tags {
	t := make(Tags, len(names))
	for _, n := range names {
		t[n] = struct{}{}
	}
	return t
}

// Address is a mailbox: an email address with an optional display name.
type Address struct {
	Address string
	Name    string
}

// String formats the address in RFC 5322 form.
// Returns "Name <email>" if name is provided, otherwise "<email>".
func (a Address) String() string {
	return (&mail.Address{Name: a.Name, Address: a.Address}).String()
}

// Domain returns the domain part of the address, or an empty string
// when the address has no "@".
func (a Address) Domain() string {
	i := strings.LastIndexByte(a.Address, '@')
	if i < 0 {
		return ""
	}
	return a.Address[i+1:]
}

// IsZero reports whether the address is empty.
func (a Address) IsZero() bool {
	return a.Address == "" && a.Name == ""
}

// Message represents a fully-prepared email message ready for a Transport.
type Message struct {
	Headers     map[string]string // Custom headers
	Tags        Tags              // Provider-specific tags/categories
	From        Address           // Sender identity
	ID          string            // Message-ID without angle brackets
	Subject     string            // Email subject
	Text        string            // Plain text body
	HTML        string            // HTML alternative part
	To          []string          // Recipients (at least one required overall)
	CC          []string          // Carbon copy recipients
	BCC         []string          // Blind carbon copy recipients
	Attachments []Attachment      // File attachments
}

// Recipients returns To, CC and BCC recipients in that order.
func (m *Message) Recipients() []string {
	all := make([]string, 0, len(m.To)+len(m.CC)+len(m.BCC))
	all = append(all, m.To...)
	all = append(all, m.CC...)
	all = append(all, m.BCC...)
	return all
}

// Validate checks the fields every transport relies on.
func (m *Message) Validate() error {
	if m.From.Address == "" {
		return ErrNoSender
	}
	if len(m.To)+len(m.CC)+len(m.BCC) == 0 {
		return ErrNoRecipient
	}
	if m.Subject == "" {
		return ErrNoSubject
	}
	if m.Text == "" && m.HTML == "" {
		return ErrNoContent
	}
	return nil
}

// Attachment represents an email attachment.
type Attachment struct {
	Filename    string // Display name for the attachment
	ContentType string // MIME type (e.g., "application/pdf")
	ContentID   string // Optional Content-ID for inline attachments
	Content     []byte // Raw file content
}

// Receipt describes what a Transport accomplished for a single message.
type Receipt struct {
	ProviderID       string   // Provider-assigned id, if any
	FailedRecipients []string // Recipients the transport rejected
	Delivered        int      // Number of recipients that accepted the message
}

// DeliveredAll returns a receipt reporting every recipient of m as delivered.
// All-or-nothing API providers use it on success.
func DeliveredAll(m *Message, providerID string) Receipt {
	return Receipt{
		Delivered:  len(m.To) + len(m.CC) + len(m.BCC),
		ProviderID: providerID,
	}
}
