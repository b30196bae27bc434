package mail

import (
	"context"
	"fmt"
	"log"
	"time"

	appconfig "github.com/authcore-io/authcore/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESDispatcher sends reset codes through Amazon SES.
type SESDispatcher struct {
	client *sesv2.Client
	from   string
}

// NewSESDispatcher creates and configures an SES client
func NewSESDispatcher(cfg *appconfig.Config) (*SESDispatcher, error) {
	log.Println("Initializing SES mail dispatcher...")

	opts := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(cfg.Mail.Region),
	}
	if cfg.Mail.AccessKey != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.Mail.AccessKey, cfg.Mail.SecretKey, ""),
		))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
		if cfg.Mail.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Mail.Endpoint)
		}
	})

	log.Printf("SES dispatcher initialized for region %s, from %s", cfg.Mail.Region, cfg.Mail.From)

	return &SESDispatcher{
		client: client,
		from:   cfg.Mail.From,
	}, nil
}

// SendResetCode emails the one-time code. The code itself is never logged
// here; only the destination on failure.
func (d *SESDispatcher) SendResetCode(ctx context.Context, to, code string, expiry time.Duration) error {
	subject := "Your password reset code"
	body := fmt.Sprintf(
		"Your password reset code is %s.\n\nIt expires in %d minutes. If you did not request a reset, you can ignore this email.",
		code, int(expiry.Minutes()),
	)

	_, err := d.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(d.from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send reset email to %s: %w", to, err)
	}
	return nil
}
