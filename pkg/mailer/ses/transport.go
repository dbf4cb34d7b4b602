// Package ses implements mailer.Transport using AWS SES v2.
package ses

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/dmitrymomot/templatemailer/pkg/mailer"
)

// Config holds the configuration for the SES transport.
// Empty credentials fall back to the default AWS credential chain.
type Config struct {
	Region           string `yaml:"region"`
	AccessKeyID      string `yaml:"accessKeyId"`
	SecretAccessKey  string `yaml:"secretAccessKey"`
	ConfigurationSet string `yaml:"configurationSet"`
}

// SendEmailAPI is the SES v2 operation the transport uses.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Transport sends emails via the AWS SES v2 API.
type Transport struct {
	client           SendEmailAPI
	configurationSet string
}

// New loads the AWS configuration and creates an SES transport.
func New(ctx context.Context, cfg Config) (*Transport, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ses: failed to load AWS config: %w", err)
	}

	return NewWithClient(sesv2.NewFromConfig(awsCfg), cfg.ConfigurationSet), nil
}

// NewWithClient creates a transport around an existing SES client.
func NewWithClient(client SendEmailAPI, configurationSet string) *Transport {
	return &Transport{client: client, configurationSet: configurationSet}
}

// Send implements mailer.Transport.
// The message is always submitted as raw MIME so the Message-ID, the
// text/HTML alternative and attachments survive unchanged.
func (t *Transport) Send(ctx context.Context, msg *mailer.Message) (mailer.Receipt, error) {
	if err := msg.Validate(); err != nil {
		return mailer.Receipt{}, err
	}

	raw, err := msg.Bytes()
	if err != nil {
		return mailer.Receipt{}, err
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From.String()),
		Destination: &types.Destination{
			ToAddresses:  msg.To,
			CcAddresses:  msg.CC,
			BccAddresses: msg.BCC,
		},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		},
		EmailTags: messageTags(msg.Tags),
	}
	if t.configurationSet != "" {
		input.ConfigurationSetName = aws.String(t.configurationSet)
	}

	out, err := t.client.SendEmail(ctx, input)
	if err != nil {
		return mailer.Receipt{}, fmt.Errorf("%w: ses: %w", mailer.ErrSendFailed, err)
	}

	return mailer.DeliveredAll(msg, aws.ToString(out.MessageId)), nil
}

// messageTags converts tags to SES message tags. Presence-only tags get "true".
func messageTags(tags mailer.Tags) []types.MessageTag {
	if len(tags) == 0 {
		return nil
	}
	result := make([]types.MessageTag, 0, len(tags))
	for name, value := range tags {
		v := "true"
		if s, ok := value.(string); ok && s != "" {
			v = s
		}
		result = append(result, types.MessageTag{Name: aws.String(name), Value: aws.String(v)})
	}
	return result
}

var _ mailer.Transport = (*Transport)(nil)
