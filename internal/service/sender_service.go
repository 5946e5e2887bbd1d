package service

import (
	"fmt"
	"log"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"slotbook/internal/db"
)

// SenderService delivers booking notifications by email and SMS. Delivery
// runs in the background and failures are logged, never surfaced: a failed
// notification must not fail the booking operation it rides on.
type SenderService struct{}

func NewSenderService() *SenderService {
	return &SenderService{}
}

func (s *SenderService) NotifyBooking(b *db.Booking, message string) {
	subject := fmt.Sprintf("Booking %s - %s on %s", shortID(b.ID), message, b.BookingDate)
	body := fmt.Sprintf(
		"Hello %s,\n\n%s.\n\n"+
			"Booking details:\n"+
			"Reference: %s\n"+
			"Date: %s\n"+
			"Time: %s - %s\n\n"+
			"Thank you for booking with us.",
		b.Customer.Name, message, shortID(b.ID), b.BookingDate, b.StartTime, b.EndTime,
	)
	sms := fmt.Sprintf("%s.\nBooking %s on %s at %s. Details in your email.",
		message, shortID(b.ID), b.BookingDate, b.StartTime)

	go func(toEmail, toPhone string) {
		if toEmail != "" {
			if err := sendEmail(toEmail, b.Customer.Name, subject, body); err != nil {
				log.Printf("Failed to send booking email for %s: %v", b.ID, err)
			}
		}
		if toPhone != "" {
			if err := sendSMS(toPhone, sms); err != nil {
				log.Printf("Failed to send booking SMS for %s: %v", b.ID, err)
			}
		}
	}(b.Customer.Email, b.Customer.Phone)
}

func sendEmail(to, toName, subject, body string) error {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("SENDGRID_API_KEY not set")
	}
	from := mail.NewEmail(
		os.Getenv("SENDGRID_FROM_NAME"),
		os.Getenv("SENDGRID_FROM_EMAIL"),
	)
	msg := mail.NewSingleEmail(from, subject, mail.NewEmail(toName, to), body, "")
	client := sendgrid.NewSendClient(apiKey)
	resp, err := client.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func sendSMS(to, message string) error {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_FROM_NUMBER")
	if accountSid == "" || authToken == "" || from == "" {
		return fmt.Errorf("twilio credentials not set")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(message)

	if _, err := client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
