package sendgrid

import (
	"context"
	"errors"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/templatemailer/pkg/mailer"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	args := m.Called(ctx, email)
	resp, _ := args.Get(0).(*rest.Response)
	return resp, args.Error(1)
}

func testMessage() *mailer.Message {
	return &mailer.Message{
		From:    mailer.Address{Address: "team@example.com", Name: "Team"},
		ID:      "abc@example.com",
		To:      []string{"alice@example.com"},
		BCC:     []string{"audit@example.com"},
		Subject: "Welcome",
		Text:    "Hello",
		HTML:    "<p>Hello</p>",
		Tags:    mailer.SimpleTags("welcome", "onboarding"),
		Attachments: []mailer.Attachment{
			{Filename: "a.txt", Content: []byte("a")},
		},
	}
}

func TestTransport_Send_Success(t *testing.T) {
	t.Parallel()

	c := &mockClient{}
	tr := &Transport{client: c}

	c.On("SendWithContext", mock.Anything, mock.MatchedBy(func(m *mail.SGMailV3) bool {
		return m.From.Address == "team@example.com" &&
			m.From.Name == "Team" &&
			len(m.Personalizations) == 1 &&
			len(m.Personalizations[0].BCC) == 1 &&
			len(m.Content) == 2 &&
			m.Content[0].Type == "text/plain" &&
			m.Headers["Message-ID"] == "<abc@example.com>" &&
			len(m.Attachments) == 1 &&
			m.Attachments[0].Type == "application/octet-stream" &&
			len(m.Categories) == 2 &&
			m.Categories[0] == "onboarding"
	})).Return(&rest.Response{
		StatusCode: 202,
		Headers:    map[string][]string{"X-Message-Id": {"sg-1"}},
	}, nil)

	receipt, err := tr.Send(context.Background(), testMessage())
	require.NoError(t, err)
	require.Equal(t, 2, receipt.Delivered)
	require.Equal(t, "sg-1", receipt.ProviderID)
	c.AssertExpectations(t)
}

func TestTransport_Send_BadStatus(t *testing.T) {
	t.Parallel()

	c := &mockClient{}
	tr := &Transport{client: c}
	c.On("SendWithContext", mock.Anything, mock.Anything).
		Return(&rest.Response{StatusCode: 401, Body: "unauthorized"}, nil)

	receipt, err := tr.Send(context.Background(), testMessage())
	require.ErrorIs(t, err, mailer.ErrSendFailed)
	require.Contains(t, err.Error(), "401")
	require.Zero(t, receipt.Delivered)
}

func TestTransport_Send_ClientError(t *testing.T) {
	t.Parallel()

	c := &mockClient{}
	tr := &Transport{client: c}
	netErr := errors.New("connection reset")
	c.On("SendWithContext", mock.Anything, mock.Anything).Return(nil, netErr)

	_, err := tr.Send(context.Background(), testMessage())
	require.ErrorIs(t, err, mailer.ErrSendFailed)
	require.ErrorIs(t, err, netErr)
}

func TestTransport_Send_InvalidMessage(t *testing.T) {
	t.Parallel()

	c := &mockClient{}
	tr := &Transport{client: c}

	msg := testMessage()
	msg.Subject = ""
	_, err := tr.Send(context.Background(), msg)
	require.ErrorIs(t, err, mailer.ErrNoSubject)
	c.AssertNotCalled(t, "SendWithContext")
}
