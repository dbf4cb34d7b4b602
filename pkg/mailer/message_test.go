package mailer

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/require"
)

func TestNewMessageID(t *testing.T) {
	t.Parallel()

	id := NewMessageID("example.com")
	require.True(t, strings.HasSuffix(id, "@example.com"))
	require.NotEqual(t, id, NewMessageID("example.com"))

	require.True(t, strings.HasSuffix(NewMessageID(""), "@localhost"))
}

func TestMessage_Encode(t *testing.T) {
	t.Parallel()

	msg := &Message{
		From:    Address{Address: "team@example.com", Name: "Team"},
		ID:      "abc-123@example.com",
		To:      []string{"alice@example.com"},
		CC:      []string{"Bob <bob@example.com>"},
		BCC:     []string{"hidden@example.com"},
		Subject: "Welcome",
		Text:    "Hello Alice",
		HTML:    "<p>Hello Alice</p>",
		Headers: map[string]string{"X-Template": "welcome"},
		Attachments: []Attachment{
			{Filename: "report.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.4")},
		},
	}

	raw, err := msg.Bytes()
	require.NoError(t, err)
	require.NotContains(t, string(raw), "hidden@example.com")

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)

	subject, err := mr.Header.Subject()
	require.NoError(t, err)
	require.Equal(t, "Welcome", subject)

	id, err := mr.Header.MessageID()
	require.NoError(t, err)
	require.Equal(t, "abc-123@example.com", id)

	from, err := mr.Header.AddressList("From")
	require.NoError(t, err)
	require.Len(t, from, 1)
	require.Equal(t, "team@example.com", from[0].Address)
	require.Equal(t, "Team", from[0].Name)

	cc, err := mr.Header.AddressList("Cc")
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", cc[0].Address)
	require.Equal(t, "welcome", mr.Header.Get("X-Template"))

	var texts []string
	var attachments []string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		body, err := io.ReadAll(p.Body)
		require.NoError(t, err)

		switch h := p.Header.(type) {
		case *mail.InlineHeader:
			texts = append(texts, string(body))
		case *mail.AttachmentHeader:
			name, err := h.Filename()
			require.NoError(t, err)
			attachments = append(attachments, name)
			require.Equal(t, "%PDF-1.4", string(body))
		}
	}

	require.Contains(t, texts, "Hello Alice")
	require.Contains(t, texts, "<p>Hello Alice</p>")
	require.Equal(t, []string{"report.pdf"}, attachments)
}

func TestTransportFunc(t *testing.T) {
	t.Parallel()

	var got *Message
	tr := TransportFunc(func(_ context.Context, msg *Message) (Receipt, error) {
		got = msg
		return DeliveredAll(msg, ""), nil
	})

	msg := &Message{To: []string{"a@example.com", "b@example.com"}}
	r, err := tr.Send(context.Background(), msg)
	require.NoError(t, err)
	require.Same(t, msg, got)
	require.Equal(t, 2, r.Delivered)
}
