// Package notify dispatches booking confirmations and waitlist-fill notices
// over email and SMS.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"velora/internal/models"
)

// Dispatcher fans a notification out to every channel the contact has,
// throttled by a shared token-bucket limiter so bursts of cancellations
// don't flood the delivery providers.
type Dispatcher struct {
	email   EmailSender
	sms     SMSSender
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewDispatcher wires a dispatcher. perSecond and burst configure the shared
// rate limit across both channels.
func NewDispatcher(email EmailSender, sms SMSSender, perSecond float64, burst int, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		email:   email,
		sms:     sms,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		log:     log,
	}
}

// SendBookingConfirmation tells the client their booking is confirmed.
func (d *Dispatcher) SendBookingConfirmation(ctx context.Context, b *models.Booking, contact models.Contact) error {
	subject := "Your booking is confirmed"
	body := fmt.Sprintf("Your appointment on %s from %s to %s is confirmed.",
		b.StartTime.Format("Mon, 02 Jan 2006"),
		b.StartTime.Format("15:04"),
		b.EndTime.Format("15:04"),
	)
	return d.send(ctx, contact, subject, body)
}

// SendWaitlistFillNotice tells a waitlisted client an opening was booked for
// them.
func (d *Dispatcher) SendWaitlistFillNotice(ctx context.Context, b *models.Booking, contact models.Contact) error {
	subject := "A spot opened up for you"
	body := fmt.Sprintf("Good news: an opening on %s at %s was booked for you from the waitlist.",
		b.StartTime.Format("Mon, 02 Jan 2006"),
		b.StartTime.Format("15:04"),
	)
	return d.send(ctx, contact, subject, body)
}

func (d *Dispatcher) send(ctx context.Context, contact models.Contact, subject, body string) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var errs []error
	if contact.Email != "" && d.email != nil {
		if err := d.email.Send(ctx, contact.Email, subject, body); err != nil {
			d.log.Error().Err(err).Str("email", contact.Email).Msg("email send failed")
			errs = append(errs, fmt.Errorf("email: %w", err))
		}
	}
	if contact.Phone != "" && d.sms != nil {
		if err := d.sms.Send(ctx, contact.Phone, body); err != nil {
			d.log.Error().Err(err).Str("phone", contact.Phone).Msg("sms send failed")
			errs = append(errs, fmt.Errorf("sms: %w", err))
		}
	}
	return errors.Join(errs...)
}
