// Package mailer defines the message model and the transport contract used to
// deliver templated emails.
//
// The package separates message construction from delivery. A Message carries
// the sender identity, recipients, subject, a plain text body, an HTML
// alternative and attachments. A Transport delivers it and reports a Receipt
// with the number of recipients that accepted the message and the ones that
// were rejected.
//
// # Transports
//
// Implementations live in sub-packages:
//
//   - smtp: SMTP submission with per-recipient accounting
//   - ses: AWS SES v2
//   - sendgrid: SendGrid v3 API
//   - resend: Resend API
//   - stdout: writes MIME messages to an io.Writer (development)
//
// API providers are all-or-nothing: on success they report every recipient as
// delivered (see DeliveredAll). The SMTP transport reports the recipients the
// server accepted during RCPT TO.
//
// # Custom Transports
//
// Implement the Transport interface, or wrap a function with TransportFunc:
//
//	t := mailer.TransportFunc(func(ctx context.Context, msg *mailer.Message) (mailer.Receipt, error) {
//		// deliver msg
//		return mailer.DeliveredAll(msg, ""), nil
//	})
//
// # Encoding
//
// Message.Encode writes an RFC 5322 message: multipart/mixed containing a
// multipart/alternative text+HTML part followed by attachments. BCC recipients
// are part of the envelope only and never written to headers.
//
// # Errors
//
// The package defines several error variables for specific failure cases:
//
//   - ErrNoRecipient: No recipient specified
//   - ErrNoSender: No sender address
//   - ErrNoSubject: No subject provided
//   - ErrNoContent: Neither text nor HTML body
//   - ErrEncodeFailed: MIME encoding failed
//   - ErrSendFailed: Email sending failed
package mailer
