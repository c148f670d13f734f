package service

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"smartpark/internal/clock"
	"smartpark/internal/entities"
	"smartpark/internal/queue"
)

//go:embed templates/reservation_email.html
var templateFS embed.FS

var reservationEmailTmpl = template.Must(template.ParseFS(templateFS, "templates/reservation_email.html"))

// SenderService turns reservation events into email and SMS messages. Either channel may be nil.
type SenderService struct {
	contacts ContactStore
	mailer   Mailer
	sms      SMSSender
	loc      *time.Location
	clock    clock.Clock
}

func NewSenderService(contacts ContactStore, mailer Mailer, sms SMSSender, loc *time.Location) *SenderService {
	if loc == nil {
		loc = time.UTC
	}
	return &SenderService{contacts: contacts, mailer: mailer, sms: sms, loc: loc, clock: clock.NewSystem()}
}

func statusWord(t queue.EventType) (string, bool) {
	switch t {
	case queue.EventReservationConfirmed:
		return "confirmed", true
	case queue.EventReservationCancelled:
		return "cancelled", true
	}
	return "", false
}

// HandleEvent notifies the reservation owner about confirmations and cancellations. Other event
// types are ignored.
func (s *SenderService) HandleEvent(ctx context.Context, ev queue.ReservationEvent) error {
	status, ok := statusWord(ev.Type)
	if !ok {
		return nil
	}
	if s.mailer == nil && s.sms == nil {
		return nil
	}

	contact, err := s.contacts.GetContact(ctx, ev.UserID)
	if err != nil {
		return fmt.Errorf("contact for user %s: %w", ev.UserID, err)
	}

	var errs []error
	if s.mailer != nil && contact.Email != "" {
		data := s.emailData(ev, contact.Name, status)
		subject, plain, html, err := buildReservationEmail(data)
		if err != nil {
			errs = append(errs, err)
		} else if err := s.mailer.SendEmail(ctx, contact.Email, contact.Name, subject, plain, html); err != nil {
			errs = append(errs, err)
		}
	}
	if s.sms != nil && contact.Phone != "" {
		if err := s.sms.SendSMS(ctx, contact.Phone, s.smsBody(ev, status)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *SenderService) emailData(ev queue.ReservationEvent, name, status string) entities.ReservationEmailData {
	return entities.ReservationEmailData{
		UserName:           name,
		ReservationCode:    ev.ConfirmationCode,
		VehiclePlate:       ev.VehiclePlate,
		Status:             status,
		StartTimeFormatted: ev.StartTime.In(s.loc).Format("02 Jan 2006 15:04 MST"),
		EndTimeFormatted:   ev.EndTime.In(s.loc).Format("02 Jan 2006 15:04 MST"),
		TotalAmount:        ev.TotalAmount,
		RefundAmount:       ev.RefundAmount,
		CurrentYear:        s.clock.Now().In(s.loc).Year(),
	}
}

func (s *SenderService) smsBody(ev queue.ReservationEvent, status string) string {
	msg := fmt.Sprintf("SmartPark: Reservation %s has been %s.\nCheck-in: %s.",
		ev.ConfirmationCode, status, ev.StartTime.In(s.loc).Format("02/01 15:04"))
	if ev.RefundAmount != "" {
		msg += fmt.Sprintf("\nRefund: %s.", ev.RefundAmount)
	}
	return msg
}

func buildReservationEmail(data entities.ReservationEmailData) (subject, plain, html string, err error) {
	subject = fmt.Sprintf("Your SmartPark reservation is %s - Code: %s", data.Status, data.ReservationCode)
	plain = fmt.Sprintf(
		"Hello %s,\n\nYour SmartPark reservation is %s.\n\n"+
			"Confirmation code: %s\n"+
			"Check-in: %s\n"+
			"Check-out: %s\n"+
			"Total: %s\n",
		data.UserName, data.Status, data.ReservationCode,
		data.StartTimeFormatted, data.EndTimeFormatted, data.TotalAmount,
	)
	if data.RefundAmount != "" {
		plain += fmt.Sprintf("Refund: %s\n", data.RefundAmount)
	}

	var buf bytes.Buffer
	if err := reservationEmailTmpl.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("render reservation email: %w", err)
	}
	return subject, plain, buf.String(), nil
}
