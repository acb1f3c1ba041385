package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusPaid      BookingStatus = "PAID"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

type Booking struct {
	ID              int64
	TourDepartureID int64
	Code            string
	Status          BookingStatus
	NumAdults       int
	NumChildren     int
	SubTotalCents   int64
	DiscountCents   int64
	FinalTotalCents int64
	ContactName     string
	ContactEmail    string
	ContactPhone    string
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Seats is the number of slots this booking holds on its departure.
func (b *Booking) Seats() int {
	return b.NumAdults + b.NumChildren
}

// BookingDetail carries the booking together with the tour and departure
// context needed to render a confirmation message.
type BookingDetail struct {
	Booking       Booking
	TourName      string
	DepartureDate time.Time
	ReturnDate    time.Time
}
