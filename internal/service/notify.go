package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type Mailer interface {
	SendEmail(ctx context.Context, toEmail, toName, subject, plainText, html string) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, toNumber, body string) error
}

type SendGridMailer struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

// NewSendGridMailer returns nil when the API key or sender address is missing, which disables
// email notifications.
func NewSendGridMailer(apiKey, fromEmail, fromName string) *SendGridMailer {
	if apiKey == "" || fromEmail == "" {
		log.Println("SENDGRID_API_KEY or SENDGRID_FROM_EMAIL not set; email notifications disabled")
		return nil
	}
	if fromName == "" {
		fromName = "SmartPark"
	}
	return &SendGridMailer{client: sendgrid.NewSendClient(apiKey), fromEmail: fromEmail, fromName: fromName}
}

func (m *SendGridMailer) SendEmail(ctx context.Context, toEmail, toName, subject, plainText, html string) error {
	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, html)

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %w", toEmail, err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	log.Printf("Email sent to %s (subject: %s), status %d", toEmail, subject, response.StatusCode)
	return nil
}

type TwilioSMS struct {
	client     *twilio.RestClient
	fromNumber string
}

// NewTwilioSMS returns nil when credentials are incomplete, which disables SMS notifications.
func NewTwilioSMS(accountSID, authToken, fromNumber string) *TwilioSMS {
	if accountSID == "" || authToken == "" || fromNumber == "" {
		log.Println("Twilio credentials not fully configured; SMS notifications disabled")
		return nil
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   accountSID,
		Password:   authToken,
		AccountSid: accountSID,
	})
	return &TwilioSMS{client: client, fromNumber: fromNumber}
}

func (t *TwilioSMS) SendSMS(_ context.Context, toNumber, body string) error {
	if !strings.HasPrefix(toNumber, "+") {
		log.Printf("Destination number %q is not E.164; the SMS may fail", toNumber)
	}
	params := &openapi.CreateMessageParams{}
	params.SetTo(toNumber)
	params.SetFrom(t.fromNumber)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send to %s: %w", toNumber, err)
	}
	if resp != nil && resp.Sid != nil {
		log.Printf("SMS sent to %s, sid %s", toNumber, *resp.Sid)
	}
	return nil
}
