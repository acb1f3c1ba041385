package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	appkafka "github.com/awesome-academy/booking-tour/internal/kafka"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

type MockRepublisher struct {
	mock.Mock
}

func (m *MockRepublisher) PublishRaw(ctx context.Context, topic, key string, value []byte, headers ...kafka.Header) error {
	args := m.Called(ctx, topic, key, value, headers)
	return args.Error(0)
}

type MockDeadLetterer struct {
	mock.Mock
}

func (m *MockDeadLetterer) Save(ctx context.Context, bookingCode, contactEmail string, payload []byte, cause error, retryCount int) error {
	args := m.Called(ctx, bookingCode, contactEmail, payload, cause, retryCount)
	return args.Error(0)
}

const testTopic = "notifications"

type consumerFixture struct {
	mailer   *MockMailer
	producer *MockRepublisher
	dlq      *MockDeadLetterer
	consumer *EmailConsumer
}

func newConsumerFixture() *consumerFixture {
	f := &consumerFixture{
		mailer:   &MockMailer{},
		producer: &MockRepublisher{},
		dlq:      &MockDeadLetterer{},
	}
	f.consumer = NewEmailConsumer(f.mailer, f.producer, f.dlq, testTopic, 3, zerolog.Nop())
	return f
}

func confirmationMessage() appkafka.BookingEmailMessage {
	return appkafka.BookingEmailMessage{
		BookingCode:     "BK20260102150405123456",
		TourName:        "Ha Long Bay Cruise",
		DepartureDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		NumAdults:       2,
		NumChildren:     1,
		FinalTotalCents: 22500,
		ContactName:     "Jane Tran",
		ContactEmail:    "jane@example.com",
		ContactPhone:    "+84123456789",
		Status:          "PENDING",
	}
}

func messageWithRetry(t *testing.T, m appkafka.BookingEmailMessage, retryCount int) kafka.Message {
	t.Helper()
	value, err := json.Marshal(m)
	assert.NoError(t, err)
	msg := kafka.Message{Key: []byte(m.BookingCode), Value: value}
	if retryCount > 0 {
		msg.Headers = []kafka.Header{{Key: appkafka.RetryCountHeader, Value: []byte(strconv.Itoa(retryCount))}}
	}
	return msg
}

func TestEmailConsumer_SendsConfirmation(t *testing.T) {
	f := newConsumerFixture()
	ctx := context.Background()
	m := confirmationMessage()

	f.mailer.On("Send", ctx, "jane@example.com", "Booking Confirmation - "+m.BookingCode, mock.AnythingOfType("string")).
		Return(nil).Once()

	err := f.consumer.HandleMessage(ctx, messageWithRetry(t, m, 0))

	assert.NoError(t, err)
	f.mailer.AssertExpectations(t)
	f.producer.AssertNotCalled(t, "PublishRaw")
	f.dlq.AssertNotCalled(t, "Save")
}

func TestEmailConsumer_FailureRepublishedWithIncrementedCount(t *testing.T) {
	f := newConsumerFixture()
	ctx := context.Background()
	m := confirmationMessage()
	msg := messageWithRetry(t, m, 0)

	f.mailer.On("Send", ctx, "jane@example.com", mock.Anything, mock.Anything).
		Return(errors.New("smtp timeout")).Once()
	f.producer.On("PublishRaw", ctx, testTopic, m.BookingCode, msg.Value,
		[]kafka.Header{{Key: appkafka.RetryCountHeader, Value: []byte("1")}}).Return(nil).Once()

	err := f.consumer.HandleMessage(ctx, msg)

	assert.NoError(t, err)
	f.producer.AssertExpectations(t)
	f.dlq.AssertNotCalled(t, "Save")
}

func TestEmailConsumer_SecondFailureKeepsCounting(t *testing.T) {
	f := newConsumerFixture()
	ctx := context.Background()
	m := confirmationMessage()
	msg := messageWithRetry(t, m, 1)

	f.mailer.On("Send", ctx, "jane@example.com", mock.Anything, mock.Anything).
		Return(errors.New("smtp timeout")).Once()
	f.producer.On("PublishRaw", ctx, testTopic, m.BookingCode, msg.Value,
		[]kafka.Header{{Key: appkafka.RetryCountHeader, Value: []byte("2")}}).Return(nil).Once()

	err := f.consumer.HandleMessage(ctx, msg)

	assert.NoError(t, err)
	f.producer.AssertExpectations(t)
}

func TestEmailConsumer_ExhaustedMessageDeadLettered(t *testing.T) {
	f := newConsumerFixture()
	ctx := context.Background()
	m := confirmationMessage()
	msg := messageWithRetry(t, m, 2)
	sendErr := errors.New("smtp timeout")

	f.mailer.On("Send", ctx, "jane@example.com", mock.Anything, mock.Anything).Return(sendErr).Once()
	f.dlq.On("Save", ctx, m.BookingCode, m.ContactEmail, msg.Value, sendErr, 3).Return(nil).Once()

	err := f.consumer.HandleMessage(ctx, msg)

	assert.NoError(t, err)
	f.dlq.AssertExpectations(t)
	f.producer.AssertNotCalled(t, "PublishRaw")
}

func TestEmailConsumer_UndecodableMessageSkipped(t *testing.T) {
	f := newConsumerFixture()
	ctx := context.Background()

	err := f.consumer.HandleMessage(ctx, kafka.Message{Value: []byte("not json")})

	assert.NoError(t, err)
	f.mailer.AssertNotCalled(t, "Send")
	f.producer.AssertNotCalled(t, "PublishRaw")
	f.dlq.AssertNotCalled(t, "Save")
}

func TestEmailConsumer_BlankContactEmailSkipped(t *testing.T) {
	f := newConsumerFixture()
	ctx := context.Background()
	m := confirmationMessage()
	m.ContactEmail = ""

	err := f.consumer.HandleMessage(ctx, messageWithRetry(t, m, 0))

	assert.NoError(t, err)
	f.mailer.AssertNotCalled(t, "Send")
	f.producer.AssertNotCalled(t, "PublishRaw")
}

func TestEmailConsumer_RepublishErrorContained(t *testing.T) {
	f := newConsumerFixture()
	ctx := context.Background()
	m := confirmationMessage()
	msg := messageWithRetry(t, m, 0)

	f.mailer.On("Send", ctx, "jane@example.com", mock.Anything, mock.Anything).
		Return(errors.New("smtp timeout")).Once()
	f.producer.On("PublishRaw", ctx, testTopic, m.BookingCode, msg.Value, mock.Anything).
		Return(errors.New("kafka down")).Once()

	err := f.consumer.HandleMessage(ctx, msg)

	assert.NoError(t, err)
}

func TestReadRetryCount(t *testing.T) {
	assert.Equal(t, 0, readRetryCount(nil))
	assert.Equal(t, 2, readRetryCount([]kafka.Header{{Key: appkafka.RetryCountHeader, Value: []byte("2")}}))
	assert.Equal(t, 0, readRetryCount([]kafka.Header{{Key: appkafka.RetryCountHeader, Value: []byte("junk")}}))
	assert.Equal(t, 0, readRetryCount([]kafka.Header{{Key: "other", Value: []byte("7")}}))
}

func TestRenderBookingConfirmation(t *testing.T) {
	m := confirmationMessage()

	subject, body := RenderBookingConfirmation(m)

	assert.Equal(t, "Booking Confirmation - BK20260102150405123456", subject)
	assert.Contains(t, body, "Dear Jane Tran,")
	assert.Contains(t, body, "Booking Code: BK20260102150405123456")
	assert.Contains(t, body, "Tour: Ha Long Bay Cruise")
	assert.Contains(t, body, "Departure Date: 2026-03-10")
	assert.Contains(t, body, "Passengers: 2 adults, 1 children")
	assert.Contains(t, body, "Total Amount: $225.00")
	assert.Contains(t, body, "Status: PENDING")
}
