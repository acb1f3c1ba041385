package domain

import "time"

// EmailJobTypeBookingPaymentSuccess is the only job type the Redis email
// worker currently dispatches.
const EmailJobTypeBookingPaymentSuccess = "BOOKING_PAYMENT_SUCCESS"

// EmailJob is the unit of work on the Redis email queue. It carries only an
// identifier; the worker re-loads the booking fresh from storage.
type EmailJob struct {
	Type        string `json:"type"`
	BookingCode string `json:"booking_code"`
	Attempt     int    `json:"attempt"`
}

// FailedEmailMessage is a dead-lettered notification, parked for manual
// inspection. Nothing replays it automatically.
type FailedEmailMessage struct {
	ID             int64
	BookingCode    string
	ContactEmail   string
	MessageContent string
	ErrorMessage   string
	RetryCount     int
	FailedAt       time.Time
	LastRetryAt    time.Time
}
