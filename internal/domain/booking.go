package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

// Terminal reports whether no further transitions are allowed.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

// CanTransitionTo encodes the booking state machine:
// Pending -> Confirmed -> Completed, Cancelled reachable from Pending or
// Confirmed, Completed reachable from any non-terminal state. Cancelled
// and Completed are terminal.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if s.Terminal() {
		return false
	}
	switch next {
	case BookingStatusConfirmed:
		return s == BookingStatusPending
	case BookingStatusCancelled:
		return s == BookingStatusPending || s == BookingStatusConfirmed
	case BookingStatusCompleted:
		return true
	}
	return false
}

// Booking links a traveler to a flight offer. The confirmation code is the
// human-facing identifier and is immutable once assigned.
type Booking struct {
	ID               int64
	TravelerID       int64
	OfferID          int64
	PassengerName    string
	TravelerEmail    string
	Adults           int
	Children         int
	Infants          int
	TotalPrice       int64
	BookingDate      time.Time
	Status           BookingStatus
	ConfirmationCode string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (b *Booking) TotalPassengers() int {
	return b.Adults + b.Children + b.Infants
}

// ActiveAllocation reports whether the booking's passengers occupy seats on
// the flight. Cancelled bookings release their seats; Completed ones still
// represent occupancy of the same physical flight.
func (b *Booking) ActiveAllocation() bool {
	return b.Status != BookingStatusCancelled
}

func (b *Booking) Validate() error {
	if b.OfferID <= 0 {
		return NewError(KindValidation, "offer id is required")
	}
	if b.PassengerName == "" {
		return NewError(KindValidation, "passenger name is required")
	}
	if b.Adults < 1 {
		return NewError(KindValidation, "at least one adult is required")
	}
	if b.Children < 0 || b.Infants < 0 {
		return NewError(KindValidation, "passenger counts must not be negative")
	}
	return nil
}
