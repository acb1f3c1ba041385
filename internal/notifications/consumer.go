package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/awesome-academy/booking-tour/internal/email"
	appkafka "github.com/awesome-academy/booking-tour/internal/kafka"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

type Republisher interface {
	PublishRaw(ctx context.Context, topic, key string, value []byte, headers ...kafka.Header) error
}

type DeadLetterer interface {
	Save(ctx context.Context, bookingCode, contactEmail string, payload []byte, cause error, retryCount int) error
}

// EmailConsumer delivers booking-confirmation emails off the notifications
// topic. Its retry envelope is the retry-count message header: a failed
// delivery is republished with the count incremented, and a message that
// exhausts maxAttempts goes to the dead letter queue. Errors are contained
// here; the consumer loop always sees a nil return.
type EmailConsumer struct {
	mailer      email.Mailer
	producer    Republisher
	dlq         DeadLetterer
	topic       string
	maxAttempts int
	logger      zerolog.Logger
}

func NewEmailConsumer(mailer email.Mailer, producer Republisher, dlq DeadLetterer, topic string, maxAttempts int, logger zerolog.Logger) *EmailConsumer {
	return &EmailConsumer{
		mailer:      mailer,
		producer:    producer,
		dlq:         dlq,
		topic:       topic,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

func (c *EmailConsumer) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var m appkafka.BookingEmailMessage
	if err := json.Unmarshal(msg.Value, &m); err != nil {
		c.logger.Error().Err(err).Msg("skip undecodable notification message")
		return nil
	}

	retryCount := readRetryCount(msg.Headers)
	if err := c.sendConfirmation(ctx, m); err != nil {
		c.fail(ctx, m, msg.Value, err, retryCount+1)
		return nil
	}

	c.logger.Info().Str("booking_code", m.BookingCode).Int("retry_count", retryCount).
		Msg("sent booking confirmation email")
	return nil
}

func (c *EmailConsumer) fail(ctx context.Context, m appkafka.BookingEmailMessage, payload []byte, cause error, retryCount int) {
	if retryCount >= c.maxAttempts {
		c.logger.Error().Err(cause).Str("booking_code", m.BookingCode).Int("retry_count", retryCount).
			Msg("confirmation email exhausted retries, dead-lettering")
		if err := c.dlq.Save(ctx, m.BookingCode, m.ContactEmail, payload, cause, retryCount); err != nil {
			c.logger.Error().Err(err).Str("booking_code", m.BookingCode).Msg("failed to dead-letter confirmation email")
		}
		return
	}

	c.logger.Error().Err(cause).Str("booking_code", m.BookingCode).Int("retry_count", retryCount).
		Msg("confirmation email failed, republishing")
	header := kafka.Header{Key: appkafka.RetryCountHeader, Value: []byte(strconv.Itoa(retryCount))}
	if err := c.producer.PublishRaw(ctx, c.topic, m.BookingCode, payload, header); err != nil {
		c.logger.Error().Err(err).Str("booking_code", m.BookingCode).Msg("failed to republish confirmation email")
	}
}

func (c *EmailConsumer) sendConfirmation(ctx context.Context, m appkafka.BookingEmailMessage) error {
	if m.ContactEmail == "" {
		c.logger.Warn().Str("booking_code", m.BookingCode).Msg("skip confirmation email: contact email is blank")
		return nil
	}
	subject, body := RenderBookingConfirmation(m)
	return c.mailer.Send(ctx, m.ContactEmail, subject, body)
}

func readRetryCount(headers []kafka.Header) int {
	for _, h := range headers {
		if h.Key != appkafka.RetryCountHeader {
			continue
		}
		n, err := strconv.Atoi(string(h.Value))
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// RenderBookingConfirmation builds the message sent when a booking is
// created, from the snapshot carried in the broker payload.
func RenderBookingConfirmation(m appkafka.BookingEmailMessage) (subject, body string) {
	subject = "Booking Confirmation - " + m.BookingCode

	var text strings.Builder
	fmt.Fprintf(&text, "Dear %s,\n\n", m.ContactName)
	text.WriteString("Thank you for your booking!\n\n")
	text.WriteString("Booking Details:\n--------------------------------\n")
	fmt.Fprintf(&text, "Booking Code: %s\n", m.BookingCode)
	fmt.Fprintf(&text, "Tour: %s\n", m.TourName)
	fmt.Fprintf(&text, "Departure Date: %s\n", m.DepartureDate.Format("2006-01-02"))
	fmt.Fprintf(&text, "Passengers: %d adults, %d children\n", m.NumAdults, m.NumChildren)
	fmt.Fprintf(&text, "Total Amount: %s\n", email.FormatCents(m.FinalTotalCents))
	fmt.Fprintf(&text, "Status: %s\n", m.Status)
	text.WriteString("--------------------------------\n\n")
	text.WriteString("Contact Information:\n")
	fmt.Fprintf(&text, "Name: %s\n", m.ContactName)
	fmt.Fprintf(&text, "Email: %s\n", m.ContactEmail)
	fmt.Fprintf(&text, "Phone: %s\n\n", m.ContactPhone)
	text.WriteString("We will contact you soon to confirm your booking.\n\n")
	text.WriteString("Best regards,\nBooking Tour Team")
	return subject, text.String()
}
