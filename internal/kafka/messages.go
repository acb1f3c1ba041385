package kafka

import "time"

// RetryCountHeader carries the delivery attempt count on notification
// messages, so the consumer's retry envelope survives republishing.
const RetryCountHeader = "retry-count"

// BookingEmailMessage is the confirmation-email payload published when a
// booking is created. Unlike the Redis email job it is a snapshot: the
// consumer renders it without another storage round trip.
type BookingEmailMessage struct {
	BookingCode     string    `json:"booking_code"`
	TourName        string    `json:"tour_name"`
	DepartureDate   time.Time `json:"departure_date"`
	NumAdults       int       `json:"num_adults"`
	NumChildren     int       `json:"num_children"`
	FinalTotalCents int64     `json:"final_total_cents"`
	ContactName     string    `json:"contact_name"`
	ContactEmail    string    `json:"contact_email"`
	ContactPhone    string    `json:"contact_phone"`
	Status          string    `json:"status"`
}

// PaymentEvent is pushed to the booking-events topic for admin-facing
// consumers when a payment settles.
type PaymentEvent struct {
	EventID       string    `json:"event_id"`
	BookingCode   string    `json:"booking_code"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	AmountCents   int64     `json:"amount_cents"`
	TourName      string    `json:"tour_name"`
	PaymentDate   time.Time `json:"payment_date"`
	Message       string    `json:"message"`
}
