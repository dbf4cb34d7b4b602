// Package stdout implements a mailer.Transport that prints encoded messages
// instead of delivering them. Useful in development and for the CLI.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrymomot/templatemailer/pkg/mailer"
)

const separator = "----------------------------------------\n"

// Transport writes every message as raw MIME to a writer.
type Transport struct {
	w  io.Writer
	mu sync.Mutex
}

// New creates a transport writing to os.Stdout.
func New() *Transport {
	return NewWithWriter(os.Stdout)
}

// NewWithWriter creates a transport writing to w.
func NewWithWriter(w io.Writer) *Transport {
	return &Transport{w: w}
}

// Send implements mailer.Transport. Every recipient counts as delivered.
func (t *Transport) Send(_ context.Context, msg *mailer.Message) (mailer.Receipt, error) {
	if err := msg.Validate(); err != nil {
		return mailer.Receipt{}, err
	}

	raw, err := msg.Bytes()
	if err != nil {
		return mailer.Receipt{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := fmt.Fprintf(t.w, "%sRecipients: %v\n\n%s\n%s", separator, msg.Recipients(), raw, separator); err != nil {
		return mailer.Receipt{}, fmt.Errorf("%w: stdout: %w", mailer.ErrSendFailed, err)
	}

	return mailer.DeliveredAll(msg, msg.ID), nil
}

var _ mailer.Transport = (*Transport)(nil)
