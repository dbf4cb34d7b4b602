// Package smtp implements mailer.Transport over SMTP submission.
//
// Unlike the HTTP API providers, SMTP reports acceptance per recipient: every
// RCPT TO the server rejects with an SMTP reply is recorded in the receipt's
// FailedRecipients and the message is still submitted to the accepted ones.
package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"

	"github.com/dmitrymomot/templatemailer/pkg/mailer"
)

// Transport delivers messages through an SMTP server.
// A new connection is opened for every message.
type Transport struct {
	dial   func(ctx context.Context) (*gosmtp.Client, error)
	config Config
}

// New creates an SMTP transport.
func New(cfg Config) *Transport {
	cfg.applyDefaults()
	t := &Transport{config: cfg}
	t.dial = t.dialServer
	return t
}

// Send implements mailer.Transport.
func (t *Transport) Send(ctx context.Context, msg *mailer.Message) (mailer.Receipt, error) {
	if err := msg.Validate(); err != nil {
		return mailer.Receipt{}, err
	}

	c, err := t.dial(ctx)
	if err != nil {
		return mailer.Receipt{}, fmt.Errorf("%w: smtp: connect: %v", mailer.ErrSendFailed, err)
	}
	defer c.Close()

	if deadline, ok := ctx.Deadline(); ok {
		c.CommandTimeout = time.Until(deadline)
		c.SubmissionTimeout = time.Until(deadline)
	}

	if t.config.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", t.config.Username, t.config.Password)); err != nil {
			return mailer.Receipt{}, fmt.Errorf("%w: smtp: auth: %w", mailer.ErrSendFailed, err)
		}
	}

	if err := c.Mail(msg.From.Address, nil); err != nil {
		return mailer.Receipt{}, fmt.Errorf("%w: smtp: MAIL FROM: %w", mailer.ErrSendFailed, err)
	}

	var receipt mailer.Receipt
	for _, rcpt := range msg.Recipients() {
		if err := c.Rcpt(rcpt, nil); err != nil {
			var smtpErr *gosmtp.SMTPError
			if !errors.As(err, &smtpErr) {
				receipt.Delivered = 0
				return receipt, fmt.Errorf("%w: smtp: RCPT TO %s: %w", mailer.ErrSendFailed, rcpt, err)
			}
			receipt.FailedRecipients = append(receipt.FailedRecipients, rcpt)
			continue
		}
		receipt.Delivered++
	}

	if receipt.Delivered == 0 {
		_ = c.Reset()
		_ = c.Quit()
		return receipt, nil
	}

	w, err := c.Data()
	if err != nil {
		return mailer.Receipt{FailedRecipients: receipt.FailedRecipients},
			fmt.Errorf("%w: smtp: DATA: %w", mailer.ErrSendFailed, err)
	}
	if err := msg.Encode(w); err != nil {
		_ = w.Close()
		return mailer.Receipt{FailedRecipients: receipt.FailedRecipients}, err
	}
	if err := w.Close(); err != nil {
		return mailer.Receipt{FailedRecipients: receipt.FailedRecipients},
			fmt.Errorf("%w: smtp: message rejected: %w", mailer.ErrSendFailed, err)
	}

	_ = c.Quit()
	return receipt, nil
}

// Ping opens a connection, greets the server and quits.
func (t *Transport) Ping(ctx context.Context) error {
	c, err := t.dial(ctx)
	if err != nil {
		return fmt.Errorf("smtp: connect: %w", err)
	}
	defer c.Close()
	return c.Quit()
}

func (t *Transport) dialServer(ctx context.Context) (*gosmtp.Client, error) {
	addr := net.JoinHostPort(t.config.Host, strconv.Itoa(t.config.Port))
	tlsConfig := &tls.Config{
		ServerName:         t.config.Host,
		InsecureSkipVerify: t.config.InsecureSkipVerify, //nolint:gosec // opt-in for self-signed relays
	}

	dialer := &net.Dialer{Timeout: t.config.Timeout}

	switch t.config.Security {
	case SecurityTLS:
		conn, err := (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		return greet(gosmtp.NewClient(conn), t.config.LocalName)
	case SecurityNone:
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		return greet(gosmtp.NewClient(conn), t.config.LocalName)
	default:
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		// NewClientStartTLS greets the server itself.
		c, err := gosmtp.NewClientStartTLS(conn, tlsConfig)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		return c, nil
	}
}

func greet(c *gosmtp.Client, localName string) (*gosmtp.Client, error) {
	if err := c.Hello(localName); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

var _ mailer.Transport = (*Transport)(nil)
