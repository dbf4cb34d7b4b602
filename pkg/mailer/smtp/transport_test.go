package smtp

import (
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	gosmtp "github.com/emersion/go-smtp"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/templatemailer/pkg/mailer"
)

// recorder collects what the in-process server received.
type recorder struct {
	from       string
	recipients []string
	data       string
	mu         sync.Mutex
}

type backend struct {
	rec    *recorder
	reject map[string]bool
}

func (b *backend) NewSession(_ *gosmtp.Conn) (gosmtp.Session, error) {
	return &session{backend: b}, nil
}

type session struct {
	backend *backend
}

func (s *session) Mail(from string, _ *gosmtp.MailOptions) error {
	s.backend.rec.mu.Lock()
	defer s.backend.rec.mu.Unlock()
	s.backend.rec.from = from
	return nil
}

func (s *session) Rcpt(to string, _ *gosmtp.RcptOptions) error {
	if s.backend.reject[to] {
		return &gosmtp.SMTPError{
			Code:         550,
			EnhancedCode: gosmtp.EnhancedCode{5, 1, 1},
			Message:      "mailbox unavailable",
		}
	}
	s.backend.rec.mu.Lock()
	defer s.backend.rec.mu.Unlock()
	s.backend.rec.recipients = append(s.backend.rec.recipients, to)
	return nil
}

func (s *session) Data(r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.backend.rec.mu.Lock()
	defer s.backend.rec.mu.Unlock()
	s.backend.rec.data = string(b)
	return nil
}

func (s *session) Reset()        {}
func (s *session) Logout() error { return nil }

func startServer(t *testing.T, reject ...string) (*recorder, Config) {
	t.Helper()

	rec := &recorder{}
	be := &backend{rec: rec, reject: make(map[string]bool)}
	for _, r := range reject {
		be.reject[r] = true
	}

	srv := gosmtp.NewServer(be)
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() { _ = srv.Serve(l) }()
	t.Cleanup(func() { _ = srv.Close() })

	host, portStr, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return rec, Config{Host: host, Port: port, Security: SecurityNone}
}

func testMessage() *mailer.Message {
	return &mailer.Message{
		From:    mailer.Address{Address: "team@example.com", Name: "Team"},
		ID:      "id-1@example.com",
		To:      []string{"alice@example.com"},
		CC:      []string{"bob@example.com"},
		BCC:     []string{"audit@example.com"},
		Subject: "Welcome",
		Text:    "Hello",
		HTML:    "<p>Hello</p>",
	}
}

func TestTransport_Send_AllAccepted(t *testing.T) {
	t.Parallel()

	rec, cfg := startServer(t)
	tr := New(cfg)

	receipt, err := tr.Send(context.Background(), testMessage())
	require.NoError(t, err)
	require.Equal(t, 3, receipt.Delivered)
	require.Empty(t, receipt.FailedRecipients)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Equal(t, "team@example.com", rec.from)
	require.Equal(t, []string{"alice@example.com", "bob@example.com", "audit@example.com"}, rec.recipients)
	require.Contains(t, rec.data, "Subject: Welcome")
	require.NotContains(t, rec.data, "audit@example.com")
}

func TestTransport_Send_PartialRejection(t *testing.T) {
	t.Parallel()

	rec, cfg := startServer(t, "bob@example.com")
	tr := New(cfg)

	receipt, err := tr.Send(context.Background(), testMessage())
	require.NoError(t, err)
	require.Equal(t, 2, receipt.Delivered)
	require.Equal(t, []string{"bob@example.com"}, receipt.FailedRecipients)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.True(t, strings.Contains(rec.data, "Welcome"))
}

func TestTransport_Send_AllRejected(t *testing.T) {
	t.Parallel()

	rec, cfg := startServer(t, "alice@example.com", "bob@example.com", "audit@example.com")
	tr := New(cfg)

	receipt, err := tr.Send(context.Background(), testMessage())
	require.NoError(t, err)
	require.Zero(t, receipt.Delivered)
	require.Len(t, receipt.FailedRecipients, 3)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Empty(t, rec.data)
}

func TestTransport_Send_ConnectionRefused(t *testing.T) {
	t.Parallel()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().(*net.TCPAddr)
	require.NoError(t, l.Close())

	tr := New(Config{Host: "127.0.0.1", Port: addr.Port, Security: SecurityNone})

	_, err = tr.Send(context.Background(), testMessage())
	require.ErrorIs(t, err, mailer.ErrSendFailed)
}

func TestTransport_Send_InvalidMessage(t *testing.T) {
	t.Parallel()

	tr := New(Config{Host: "127.0.0.1", Security: SecurityNone})

	_, err := tr.Send(context.Background(), &mailer.Message{From: mailer.Address{Address: "a@example.com"}})
	require.ErrorIs(t, err, mailer.ErrNoRecipient)
}

func TestTransport_Ping(t *testing.T) {
	t.Parallel()

	_, cfg := startServer(t)
	require.NoError(t, New(cfg).Ping(context.Background()))
}

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		security Security
		wantPort int
	}{
		{"", 587},
		{SecurityStartTLS, 587},
		{SecurityTLS, 465},
		{SecurityNone, 25},
	}

	for _, tt := range tests {
		cfg := Config{Security: tt.security}
		cfg.applyDefaults()
		require.Equal(t, tt.wantPort, cfg.Port)
		require.Equal(t, "localhost", cfg.LocalName)
		require.NotZero(t, cfg.Timeout)
	}
}
