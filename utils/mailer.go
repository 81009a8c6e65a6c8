package utils

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

var (
	sesClient *ses.Client
	sesOnce   sync.Once
)

func client() *ses.Client {
	sesOnce.Do(func() {
		cfg, err := awsconfig.LoadDefaultConfig(context.TODO(), awsconfig.WithRegion(os.Getenv("AWS_REGION")))
		if err != nil {
			log.Fatalf("AWS config load failed: %v", err)
		}
		sesClient = ses.NewFromConfig(cfg)
	})
	return sesClient
}

// generic SES sender
func sendEmail(to string, subject string, body string) error {
	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(body),
				},
			},
		},
		Source: aws.String(os.Getenv("SES_EMAIL")),
	}

	_, err := client().SendEmail(context.TODO(), input)
	if err != nil {
		log.Printf("SES send error: %v", err)
		return fmt.Errorf("email send failed: %v", err)
	}
	return nil
}

// SendOTPEmail delivers the registration verification code.
func SendOTPEmail(to string, name string, otp string) error {
	subject := "Your Verification Code for Foodlens"
	body := fmt.Sprintf(
		"Hello %s,\n\nYour One-Time Password (OTP) is: %s. This code is valid for 10 minutes.\n\nIf you did not request this, you can safely ignore this email.",
		name, otp,
	)
	return sendEmail(to, subject, body)
}
