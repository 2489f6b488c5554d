package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/sirupsen/logrus"
)

const emailSendTimeout = 15 * time.Second

// EmailService sends transactional mail through Amazon SES. When no
// from-address is configured the service is created disabled and every
// send becomes a logged no-op, so local setups need no AWS credentials.
type EmailService struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	enabled   bool
	log       *logrus.Logger
}

// NewEmailService creates a new email service. fromEmail may be empty.
func NewEmailService(awsRegion, fromEmail, fromName string, log *logrus.Logger) (*EmailService, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if fromEmail == "" {
		log.Info("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, log: log}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(), awsconfig.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.WithFields(logrus.Fields{"from": fromEmail, "region": awsRegion}).Info("email service enabled")
	return &EmailService{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
		log:       log,
	}, nil
}

// IsEnabled returns whether sends actually reach SES.
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendWelcomeEmail greets a newly registered player.
func (s *EmailService) SendWelcomeEmail(toEmail, toName string) error {
	subject := "Welcome to Reelplay!"
	textBody := fmt.Sprintf(`Hi %s,

Your Reelplay account is ready. Your puzzle stats and streaks now sync
across devices, and your times count toward the daily leaderboards for
Reel Pairs, Reel Mini and Reel Connections.

Good luck with today's puzzles!

---
This is an automated email from Reelplay. Please do not reply.
`, toName)
	htmlBody := fmt.Sprintf(`<html><body>
<p>Hi %s,</p>
<p>Your Reelplay account is ready. Your puzzle stats and streaks now sync
across devices, and your times count toward the daily leaderboards for
Reel Pairs, Reel Mini and Reel Connections.</p>
<p>Good luck with today's puzzles!</p>
<p style="font-size: 12px; color: #666;">This is an automated email from Reelplay. Please do not reply.</p>
</body></html>`, toName)

	return s.sendEmail(toEmail, subject, htmlBody, textBody)
}

// SendAccountDeletedEmail confirms an account deletion.
func (s *EmailService) SendAccountDeletedEmail(toEmail, toName string) error {
	subject := "Your Reelplay account has been deleted"
	textBody := fmt.Sprintf(`Hi %s,

Your Reelplay account and all statistics stored with it have been
deleted. Leaderboard entries tied to the account are gone as well.

If you didn't request this, contact support immediately.

---
This is an automated email from Reelplay. Please do not reply.
`, toName)
	htmlBody := fmt.Sprintf(`<html><body>
<p>Hi %s,</p>
<p>Your Reelplay account and all statistics stored with it have been
deleted. Leaderboard entries tied to the account are gone as well.</p>
<p>If you didn't request this, contact support immediately.</p>
<p style="font-size: 12px; color: #666;">This is an automated email from Reelplay. Please do not reply.</p>
</body></html>`, toName)

	return s.sendEmail(toEmail, subject, htmlBody, textBody)
}

func (s *EmailService) sendEmail(toEmail, subject, htmlBody, textBody string) error {
	if !s.enabled {
		s.log.WithFields(logrus.Fields{"to": toEmail, "subject": subject}).
			Debug("email service disabled, skipping send")
		return nil
	}

	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), emailSendTimeout)
	defer cancel()

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}
	s.log.WithFields(logrus.Fields{"to": toEmail, "subject": subject}).Info("email sent")
	return nil
}
