package mailer

import "context"

// Transport defines the minimal interface that email delivery backends implement.
// It accepts a fully-prepared Message and handles the actual delivery.
type Transport interface {
	// Send delivers a message and reports how many recipients accepted it.
	// A non-nil error means delivery could not be attempted or broke off;
	// the Receipt may still carry the recipients rejected so far.
	Send(ctx context.Context, msg *Message) (Receipt, error)
}

// TransportFunc adapts an ordinary function to the Transport interface.
type TransportFunc func(ctx context.Context, msg *Message) (Receipt, error)

// Send calls f(ctx, msg).
func (f TransportFunc) Send(ctx context.Context, msg *Message) (Receipt, error) {
	return f(ctx, msg)
}
