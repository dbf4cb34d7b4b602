package mailer

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
)

// NewMessageID returns a unique Message-ID (without angle brackets)
// scoped to the given domain. An empty domain falls back to "localhost".
func NewMessageID(domain string) string {
	if domain == "" {
		domain = "localhost"
	}
	return uuid.NewString() + "@" + domain
}

// Encode writes m as an RFC 5322 MIME message.
// The text and HTML bodies become a multipart/alternative part, attachments
// follow in a multipart/mixed envelope. BCC recipients are never written.
func (m *Message) Encode(w io.Writer) error {
	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Name: m.From.Name, Address: m.From.Address}})
	if len(m.To) > 0 {
		h.SetAddressList("To", addressList(m.To))
	}
	if len(m.CC) > 0 {
		h.SetAddressList("Cc", addressList(m.CC))
	}
	h.SetSubject(m.Subject)
	if m.ID != "" {
		h.SetMessageID(m.ID)
	}
	for k, v := range m.Headers {
		h.Set(k, v)
	}

	mw, err := mail.CreateWriter(w, h)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}

	if err := m.writeBody(mw); err != nil {
		return fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}

	for _, a := range m.Attachments {
		if err := writeAttachment(mw, a); err != nil {
			return fmt.Errorf("%w: attachment %s: %v", ErrEncodeFailed, a.Filename, err)
		}
	}

	if err := mw.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	return nil
}

// Bytes returns the encoded MIME message.
func (m *Message) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m *Message) writeBody(mw *mail.Writer) error {
	iw, err := mw.CreateInline()
	if err != nil {
		return err
	}
	if m.Text != "" {
		if err := writeInlinePart(iw, "text/plain", m.Text); err != nil {
			return err
		}
	}
	if m.HTML != "" {
		if err := writeInlinePart(iw, "text/html", m.HTML); err != nil {
			return err
		}
	}
	return iw.Close()
}

func writeInlinePart(iw *mail.InlineWriter, contentType, body string) error {
	var h mail.InlineHeader
	h.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	pw, err := iw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(pw, body); err != nil {
		_ = pw.Close()
		return err
	}
	return pw.Close()
}

func writeAttachment(mw *mail.Writer, a Attachment) error {
	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var h mail.AttachmentHeader
	h.SetContentType(contentType, nil)
	h.SetFilename(a.Filename)
	h.Set("Content-Transfer-Encoding", "base64")
	if a.ContentID != "" {
		h.Set("Content-Id", "<"+a.ContentID+">")
	}

	aw, err := mw.CreateAttachment(h)
	if err != nil {
		return err
	}
	if _, err := aw.Write(a.Content); err != nil {
		_ = aw.Close()
		return err
	}
	return aw.Close()
}

// addressList parses recipients, keeping unparsable entries as bare addresses
// so the server gets to reject them.
func addressList(recipients []string) []*mail.Address {
	list := make([]*mail.Address, 0, len(recipients))
	for _, r := range recipients {
		addr, err := mail.ParseAddress(r)
		if err != nil {
			addr = &mail.Address{Address: r}
		}
		list = append(list, addr)
	}
	return list
}
