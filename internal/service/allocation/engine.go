// Package allocation matches a booking request against flight offer
// inventory while enforcing per-offer seat capacity.
package allocation

import (
	"context"
	"time"

	"github.com/dkravets/airreserve/internal/domain"
	"github.com/dkravets/airreserve/internal/repository"
)

// Request is what the engine needs to find seats: an exact route/class/date
// match plus the passenger counts to fit.
type Request struct {
	Origin      string
	Destination string
	Class       domain.TravelClass
	Date        time.Time
	Adults      int
	Children    int
	Infants     int
}

func (r Request) TotalPassengers() int {
	return r.Adults + r.Children + r.Infants
}

// OfferSearcher is the slice of the offer repository the engine needs.
type OfferSearcher interface {
	FindMatching(ctx context.Context, origin, destination string, class domain.TravelClass, date time.Time) ([]domain.FlightOffer, error)
}

// OccupancyReader reads existing bookings for capacity accounting.
type OccupancyReader interface {
	FindByOffer(ctx context.Context, offerID int64) ([]domain.Booking, error)
}

type Engine struct {
	offers   OfferSearcher
	bookings OccupancyReader
}

func NewEngine(offers OfferSearcher, bookings OccupancyReader) *Engine {
	return &Engine{offers: offers, bookings: bookings}
}

// Allocate finds the first matching offer with room for the requested
// passengers. Candidates are tried in repository return order; there is no
// price preference. A request that matches no offer at all fails with
// NoMatchingOffer, while a request that matches only full offers fails with
// NoAvailability. The two produce different user guidance.
//
// Offers whose ids appear in exclude are skipped: a caller that lost the
// serialized capacity check on one offer passes it here to fall through to
// the next candidate. The returned offer is a point-in-time choice; the
// authoritative capacity check runs again under the per-offer lock when the
// booking row is inserted.
func (e *Engine) Allocate(ctx context.Context, req Request, exclude ...int64) (*domain.FlightOffer, error) {
	candidates, err := e.offers.FindMatching(ctx, req.Origin, req.Destination, req.Class, req.Date)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, domain.NewError(domain.KindNoMatchingOffer, "no flights for the requested route, date and class")
	}

	excluded := make(map[int64]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}

	requested := req.TotalPassengers()
	for i := range candidates {
		offer := &candidates[i]
		if excluded[offer.ID] {
			continue
		}
		occupied, err := e.Occupancy(ctx, offer.ID)
		if err != nil {
			return nil, err
		}
		if occupied+requested <= offer.Capacity {
			return offer, nil
		}
	}

	return nil, domain.NewError(domain.KindNoAvailability, "all matching flights are fully booked")
}

// Occupancy sums passenger counts over the offer's bookings that still hold
// seats. Cancelled bookings do not count; Completed ones do, since they
// occupied the same physical flight.
func (e *Engine) Occupancy(ctx context.Context, offerID int64) (int, error) {
	bookings, err := e.bookings.FindByOffer(ctx, offerID)
	if err != nil {
		return 0, err
	}

	total := 0
	for i := range bookings {
		if bookings[i].ActiveAllocation() {
			total += bookings[i].TotalPassengers()
		}
	}
	return total, nil
}

var (
	_ OfferSearcher   = (repository.OfferRepository)(nil)
	_ OccupancyReader = (repository.BookingRepository)(nil)
)
