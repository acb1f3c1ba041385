package domain

import "time"

type DepartureStatus string

const (
	DepartureStatusOpen      DepartureStatus = "OPEN"
	DepartureStatusClosed    DepartureStatus = "CLOSED"
	DepartureStatusCancelled DepartureStatus = "CANCELLED"
)

type Tour struct {
	ID              int64
	Name            string
	PriceAdultCents int64
	PriceChildCents int64
	DiscountRate    float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type TourDeparture struct {
	ID             int64
	TourID         int64
	Status         DepartureStatus
	TotalSlots     int
	AvailableSlots int
	DepartureDate  time.Time
	ReturnDate     time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DepartureDetail is a departure joined with its tour, the shape booking
// intake and the notification renderer both read.
type DepartureDetail struct {
	Departure TourDeparture
	Tour      Tour
}
