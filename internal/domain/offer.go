package domain

import "time"

type TravelClass string

const (
	TravelClassEconomy  TravelClass = "ECONOMY"
	TravelClassBusiness TravelClass = "BUSINESS"
	TravelClassFirst    TravelClass = "FIRST"
)

func (c TravelClass) Valid() bool {
	switch c {
	case TravelClassEconomy, TravelClassBusiness, TravelClassFirst:
		return true
	}
	return false
}

// FlightOffer is a bookable flight/date/class/price combination. Offers are
// deactivated rather than deleted so historical bookings keep a valid
// reference.
type FlightOffer struct {
	ID            int64
	Origin        string
	Destination   string
	DepartureDate time.Time
	DepartureTime string
	Class         TravelClass
	UnitPrice     int64
	Capacity      int
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DefaultCapacity is the seat count the legacy system assumed for every
// flight. Capacity lives on the offer so it can vary later.
const DefaultCapacity = 60

func (o *FlightOffer) Validate() error {
	if o.Origin == "" || o.Destination == "" {
		return NewError(KindValidation, "origin and destination are required")
	}
	if o.Origin == o.Destination {
		return NewError(KindValidation, "origin and destination must differ")
	}
	if o.UnitPrice <= 0 {
		return NewError(KindValidation, "unit price must be positive")
	}
	if o.DepartureDate.IsZero() {
		return NewError(KindValidation, "departure date is required")
	}
	if !o.Class.Valid() {
		return NewError(KindValidation, "unknown travel class")
	}
	if o.Capacity <= 0 {
		return NewError(KindValidation, "capacity must be positive")
	}
	return nil
}

// Departed reports whether the offer's departure date has passed.
func (o *FlightOffer) Departed(now time.Time) bool {
	return o.DepartureDate.Before(now.Truncate(24 * time.Hour))
}
