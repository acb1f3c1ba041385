package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/awesome-academy/booking-tour/config"
	"github.com/awesome-academy/booking-tour/internal/domain"
)

// Mailer sends a plain-text message. Implementations must be safe for
// concurrent use by the worker loops.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	s := &SMTPSender{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from: cfg.From,
	}
	if cfg.Username != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return s
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("empty recipient address")
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

var _ Mailer = (*SMTPSender)(nil)

const dateFormat = "2006-01-02"

// RenderPaymentSuccess builds the message the Redis worker sends once a
// payment settles.
func RenderPaymentSuccess(detail *domain.BookingDetail) (subject, body string) {
	b := detail.Booking
	subject = "Payment success - Booking " + b.Code

	var text strings.Builder
	text.WriteString("Your payment was successful.\n\n")
	fmt.Fprintf(&text, "Booking code: %s\n", b.Code)
	fmt.Fprintf(&text, "Tour: %s\n", detail.TourName)
	fmt.Fprintf(&text, "Departure date: %s\n", detail.DepartureDate.Format(dateFormat))
	fmt.Fprintf(&text, "Return date: %s\n", detail.ReturnDate.Format(dateFormat))
	fmt.Fprintf(&text, "Passengers: %d adults, %d children\n", b.NumAdults, b.NumChildren)
	fmt.Fprintf(&text, "Total: %s\n\n", FormatCents(b.FinalTotalCents))
	text.WriteString("Thank you for your booking.")
	return subject, text.String()
}

// FormatCents renders a cent amount as a dollar string, e.g. 22500 -> "$225.00".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
