package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, textBody, htmlBody string) error
}

type SESMailer struct {
	client *ses.Client
	sender string
}

func NewSESMailer(ctx context.Context, region, accessKey, secretKey, sender string) (*SESMailer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load AWS SDK config: %w", err)
	}
	if sender == "" {
		return nil, fmt.Errorf("sender email address is not configured")
	}
	return &SESMailer{client: ses.NewFromConfig(awsCfg), sender: sender}, nil
}

func (m *SESMailer) Send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	if to == "" {
		return fmt.Errorf("recipient email address is empty")
	}
	input := &ses.SendEmailInput{
		Source:      aws.String(m.sender),
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(subject)},
			Body: &types.Body{
				Html: &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(htmlBody)},
				Text: &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(textBody)},
			},
		},
	}
	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
