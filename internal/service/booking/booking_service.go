package booking

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/dkravets/airreserve/internal/domain"
	"github.com/dkravets/airreserve/internal/fare"
	"github.com/dkravets/airreserve/internal/kafka"
	"github.com/dkravets/airreserve/internal/repository"
	"github.com/dkravets/airreserve/internal/service/allocation"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	ConfirmBooking(ctx context.Context, id int64) (*domain.Booking, error)
	CancelBooking(ctx context.Context, id int64) (*domain.Booking, error)
	CompleteBooking(ctx context.Context, id int64) (*domain.Booking, error)
	DeleteBooking(ctx context.Context, id int64) error
	GetByConfirmationCode(ctx context.Context, code string) (*domain.Booking, error)
	ListByTraveler(ctx context.Context, travelerID int64) ([]domain.Booking, error)
}

// Cache is the optional fast-path lock in front of the database-level
// serialization. The service works without it.
type Cache interface {
	AcquireOfferLock(ctx context.Context, offerID int64, ttl time.Duration) (bool, error)
	ReleaseOfferLock(ctx context.Context, offerID int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
	PublishWithRetry(ctx context.Context, topic, key string, value interface{}, maxRetries int) error
}

// publishRetries bounds redelivery attempts for lifecycle events. Events
// drive notifications, so a transient broker hiccup should not lose them.
const publishRetries = 3

type BookingService struct {
	bookings           repository.BookingRepository
	offers             repository.OfferRepository
	engine             *allocation.Engine
	calc               *fare.Calculator
	cache              Cache
	producer           Producer
	logger             *logrus.Logger
	eventsTopic        string
	notificationsTopic string
	lockTTL            time.Duration
	codeRetries        int
	now                func() time.Time
}

type CreateBookingInput struct {
	TravelerID    int64              `json:"traveler_id"`
	TravelerEmail string             `json:"traveler_email"`
	PassengerName string             `json:"passenger_name"`
	Origin        string             `json:"origin"`
	Destination   string             `json:"destination"`
	Class         domain.TravelClass `json:"travel_class"`
	Date          time.Time          `json:"date"`
	Adults        int                `json:"adults"`
	Children      int                `json:"children"`
	Infants       int                `json:"infants"`
	// AsPending is set for administrator-entered bookings that await
	// review. Self-service bookings start Confirmed.
	AsPending bool `json:"as_pending"`
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	offers repository.OfferRepository,
	engine *allocation.Engine,
	calc *fare.Calculator,
	cache Cache,
	producer Producer,
	logger *logrus.Logger,
	eventsTopic string,
	lockTTL time.Duration,
	codeRetries int,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:    bookings,
		offers:      offers,
		engine:      engine,
		calc:        calc,
		cache:       cache,
		producer:    producer,
		logger:      logger,
		eventsTopic: eventsTopic,
		lockTTL:     lockTTL,
		codeRetries: codeRetries,
		now:         time.Now,
	}
	if service.codeRetries <= 0 {
		service.codeRetries = 5
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking runs the whole booking transaction: validate the request,
// find an offer with room, price the fare, and persist the booking with the
// capacity re-checked under the per-offer lock. A failed allocation never
// leaves a booking row behind.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	req := allocation.Request{
		Origin:      input.Origin,
		Destination: input.Destination,
		Class:       input.Class,
		Date:        input.Date,
		Adults:      input.Adults,
		Children:    input.Children,
		Infants:     input.Infants,
	}

	// A candidate the engine saw room on can fill up (or be lock-guarded)
	// before the serialized insert; exclude it and fall through to the next
	// matching offer instead of failing while seats remain elsewhere.
	var excluded []int64
	for {
		offer, err := s.engine.Allocate(ctx, req, excluded...)
		if err != nil {
			return nil, err
		}

		booking, err := s.bookOnOffer(ctx, input, offer)
		if err != nil {
			if domain.IsKind(err, domain.KindNoAvailability) {
				excluded = append(excluded, offer.ID)
				continue
			}
			return nil, err
		}
		return booking, nil
	}
}

func (s *BookingService) bookOnOffer(ctx context.Context, input CreateBookingInput, offer *domain.FlightOffer) (*domain.Booking, error) {
	locked := false
	if s.cache != nil {
		ok, err := s.cache.AcquireOfferLock(ctx, offer.ID, s.lockTTL)
		if err != nil {
			s.logger.WithError(err).Warn("offer lock unavailable, relying on store serialization")
		} else if !ok {
			return nil, domain.NewError(domain.KindNoAvailability, "another booking for this flight is in progress, retry shortly")
		} else {
			locked = true
		}
	}
	if locked {
		defer func() { _ = s.cache.ReleaseOfferLock(ctx, offer.ID) }()
	}

	quote := s.calc.Quote(offer.UnitPrice, input.Adults, input.Children, input.Infants)

	status := domain.BookingStatusConfirmed
	if input.AsPending {
		status = domain.BookingStatusPending
	}

	booking := &domain.Booking{
		TravelerID:    input.TravelerID,
		OfferID:       offer.ID,
		PassengerName: input.PassengerName,
		TravelerEmail: input.TravelerEmail,
		Adults:        input.Adults,
		Children:      input.Children,
		Infants:       input.Infants,
		TotalPrice:    quote.Total,
		BookingDate:   s.now(),
		Status:        status,
	}

	if err := s.insertWithFreshCode(ctx, booking, offer.Capacity); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"confirmation_code": booking.ConfirmationCode,
		"offer_id":          offer.ID,
		"passengers":        booking.TotalPassengers(),
		"total_price":       booking.TotalPrice,
	}).Info("booking created")

	s.publish(ctx, "booking_created", booking)
	return booking, nil
}

// insertWithFreshCode persists the booking, regenerating the confirmation
// code on a unique-violation and retrying once on any other transient store
// failure.
func (s *BookingService) insertWithFreshCode(ctx context.Context, booking *domain.Booking, capacity int) error {
	retriedTransient := false
	for attempt := 0; attempt < s.codeRetries; attempt++ {
		booking.ConfirmationCode = newConfirmationCode()

		err := s.bookings.InsertAllocated(ctx, booking, capacity)
		if err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrCodeTaken) {
			continue
		}
		if domain.IsKind(err, domain.KindPersistence) && !retriedTransient {
			retriedTransient = true
			s.logger.WithError(err).Warn("booking insert failed, retrying once")
			attempt--
			continue
		}
		return err
	}
	return domain.NewError(domain.KindPersistence, "could not assign a unique confirmation code")
}

func (s *BookingService) ConfirmBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.transition(ctx, id, domain.BookingStatusConfirmed, "booking_confirmed", nil)
}

// CancelBooking moves a Pending or Confirmed booking to Cancelled, which
// implicitly releases its seats: occupancy is always recomputed from
// non-cancelled bookings. Cancellation is only allowed before departure.
func (s *BookingService) CancelBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.transition(ctx, id, domain.BookingStatusCancelled, "booking_cancelled", func(offer *domain.FlightOffer) error {
		if offer.Departed(s.now()) {
			return domain.NewError(domain.KindTransition, "cannot cancel after departure")
		}
		return nil
	})
}

// CompleteBooking is an explicit administrative action, allowed only after
// the offer's departure date has passed. Nothing transitions to Completed
// on a timer.
func (s *BookingService) CompleteBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.transition(ctx, id, domain.BookingStatusCompleted, "booking_completed", func(offer *domain.FlightOffer) error {
		if !offer.Departed(s.now()) {
			return domain.NewError(domain.KindTransition, "flight has not departed yet")
		}
		return nil
	})
}

func (s *BookingService) transition(ctx context.Context, id int64, next domain.BookingStatus, eventType string, guard func(*domain.FlightOffer) error) (*domain.Booking, error) {
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, domain.NewError(domain.KindTransition,
			fmt.Sprintf("cannot move booking from %s to %s", current.Status, next))
	}
	if guard != nil {
		offer, err := s.offers.GetByID(ctx, current.OfferID)
		if err != nil {
			return nil, err
		}
		if err := guard(offer); err != nil {
			return nil, err
		}
	}

	current.Status = next
	if err := s.bookings.Update(ctx, current); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"confirmation_code": current.ConfirmationCode,
		"status":            current.Status,
	}).Info("booking status changed")

	s.publish(ctx, eventType, current)
	return current, nil
}

// DeleteBooking physically removes a booking row. It exists for
// administrative cleanup only; the normal path is cancellation, which keeps
// history.
func (s *BookingService) DeleteBooking(ctx context.Context, id int64) error {
	return s.bookings.Delete(ctx, id)
}

func (s *BookingService) GetByConfirmationCode(ctx context.Context, code string) (*domain.Booking, error) {
	return s.bookings.GetByConfirmationCode(ctx, code)
}

func (s *BookingService) ListByTraveler(ctx context.Context, travelerID int64) ([]domain.Booking, error) {
	return s.bookings.FindByTraveler(ctx, travelerID)
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		ID:               uuid.NewString(),
		Type:             eventType,
		ConfirmationCode: booking.ConfirmationCode,
		OfferID:          booking.OfferID,
		TravelerEmail:    booking.TravelerEmail,
		PassengerName:    booking.PassengerName,
		Passengers:       booking.TotalPassengers(),
		TotalPrice:       booking.TotalPrice,
		Status:           string(booking.Status),
		OccurredAt:       s.now(),
	}
	if err := s.producer.PublishWithRetry(ctx, s.eventsTopic, booking.ConfirmationCode, event, publishRetries); err != nil {
		s.logger.WithError(err).WithField("event", eventType).Warn("failed to publish booking event")
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, booking.ConfirmationCode, event); err != nil {
			s.logger.WithError(err).WithField("event", eventType).Warn("failed to publish notification event")
		}
	}
}

func validateInput(input CreateBookingInput) error {
	if input.PassengerName == "" {
		return domain.NewError(domain.KindValidation, "passenger name is required")
	}
	if input.Origin == "" || input.Destination == "" {
		return domain.NewError(domain.KindValidation, "origin and destination are required")
	}
	if input.Origin == input.Destination {
		return domain.NewError(domain.KindValidation, "origin and destination must differ")
	}
	if !input.Class.Valid() {
		return domain.NewError(domain.KindValidation, "unknown travel class")
	}
	if input.Date.IsZero() {
		return domain.NewError(domain.KindValidation, "travel date is required")
	}
	if input.Adults < 1 {
		return domain.NewError(domain.KindValidation, "at least one adult is required")
	}
	if input.Children < 0 || input.Infants < 0 {
		return domain.NewError(domain.KindValidation, "passenger counts must not be negative")
	}
	return nil
}

// newConfirmationCode builds the human-facing booking code: "TN" followed
// by five digits, as printed on legacy tickets. Uniqueness is enforced by
// the store; collisions trigger regeneration.
func newConfirmationCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(90000))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken
		n = big.NewInt(time.Now().UnixNano() % 90000)
	}
	return fmt.Sprintf("TN%05d", 10000+n.Int64())
}

var _ BookingUseCase = (*BookingService)(nil)
