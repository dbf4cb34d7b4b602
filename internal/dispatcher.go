package internal

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dmitrymomot/templatemailer/pkg/mailer"
	"github.com/dmitrymomot/templatemailer/pkg/metrics"
)

// Outcome describes the result of one dispatch. It feeds logging and
// metrics; callers of Service only see the boolean.
type Outcome struct {
	Err              error
	MessageID        string
	ProviderID       string
	Recipients       []string
	FailedRecipients []string
	Attempted        int
	Delivered        int
	Success          bool
}

// MailDispatcher hands messages to the transport and applies the
// sendingErrors and sendingSuccess policies to the result.
type MailDispatcher struct {
	transport mailer.Transport
	metrics   *metrics.Metrics
	logger    *slog.Logger
	onError   Policy
	onSuccess Policy
}

// NewMailDispatcher creates a dispatcher. A success policy of throw
// behaves like none.
func NewMailDispatcher(transport mailer.Transport, logging LoggingConfig, m *metrics.Metrics, log *slog.Logger) *MailDispatcher {
	return &MailDispatcher{
		transport: transport,
		metrics:   m,
		logger:    log,
		onError:   logging.SendingErrors,
		onSuccess: logging.SendingSuccess,
	}
}

// Dispatch sends msg. The error is non-nil only for a transport failure
// under the throw policy.
func (d *MailDispatcher) Dispatch(ctx context.Context, template string, msg *mailer.Message) (Outcome, error) {
	recipients := msg.Recipients()
	out := Outcome{
		MessageID:  msg.ID,
		Recipients: recipients,
		Attempted:  len(recipients),
	}

	receipt, err := d.transport.Send(ctx, msg)
	out.ProviderID = receipt.ProviderID
	out.FailedRecipients = receipt.FailedRecipients

	if err != nil {
		out.Err = err
		// Nothing is delivered once the transport fails.
		out.FailedRecipients = slices.Clone(recipients)
		d.metrics.ObserveSend(template, metrics.ResultFailed, 0, len(out.FailedRecipients))

		switch d.onError {
		case PolicyThrow:
			return out, fmt.Errorf("%w: %w", ErrTransport, err)
		case PolicyLog:
			d.logger.ErrorContext(ctx, "mail transport failed",
				slog.String("message_id", msg.ID),
				slog.String("error", err.Error()),
			)
		}
	} else {
		out.Delivered = receipt.Delivered
	}

	if out.Delivered < out.Attempted {
		if out.Err == nil {
			result := metrics.ResultPartial
			if out.Delivered == 0 {
				result = metrics.ResultFailed
			}
			d.metrics.ObserveSend(template, result, out.Delivered, out.Attempted-out.Delivered)
		}
		if d.onError == PolicyLog || (d.onError == PolicyThrow && out.Err == nil) {
			d.logFailure(ctx, msg, out)
		}
		return out, nil
	}

	out.Success = true
	d.metrics.ObserveSend(template, metrics.ResultSuccess, out.Delivered, 0)
	if d.onSuccess == PolicyLog {
		d.logger.InfoContext(ctx, "email sent",
			slog.Any("recipients", out.Recipients),
			slog.String("subject", msg.Subject),
			slog.String("message_id", msg.ID),
			slog.String("provider_id", out.ProviderID),
		)
	}
	return out, nil
}

func (d *MailDispatcher) logFailure(ctx context.Context, msg *mailer.Message, out Outcome) {
	attrs := []slog.Attr{
		slog.Any("recipients", out.Recipients),
		slog.Any("failed_recipients", out.FailedRecipients),
		slog.String("subject", msg.Subject),
		slog.String("message_id", msg.ID),
		slog.Int("delivered", out.Delivered),
	}
	if out.Err != nil {
		attrs = append(attrs, slog.String("exception", out.Err.Error()))
	}
	d.logger.LogAttrs(ctx, slog.LevelError, fmt.Sprintf("could not send email %q", msg.Subject), attrs...)
}
