package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

type PaymentMethod string

const (
	PaymentMethodStripe PaymentMethod = "STRIPE"
)

type Payment struct {
	ID            int64
	BookingID     int64
	AmountCents   int64
	Method        PaymentMethod
	TransactionID string
	Status        PaymentStatus
	PaymentDate   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
