package offers

import (
	"context"
	"time"

	"github.com/dkravets/airreserve/internal/domain"
	"github.com/dkravets/airreserve/internal/repository"
	"github.com/sirupsen/logrus"
)

type OfferUseCase interface {
	Search(ctx context.Context, origin, destination string, class domain.TravelClass, date time.Time) ([]domain.FlightOffer, error)
	GetByID(ctx context.Context, id int64) (*domain.FlightOffer, error)
	List(ctx context.Context) ([]domain.FlightOffer, error)
	Create(ctx context.Context, offer *domain.FlightOffer) error
	Update(ctx context.Context, offer *domain.FlightOffer) error
	Deactivate(ctx context.Context, id int64) error
	RetireDeparted(ctx context.Context) (int64, error)
}

// Cache holds search results keyed by the full search arguments. Any
// inventory change invalidates all of them.
type Cache interface {
	GetSearch(ctx context.Context, origin, destination string, class domain.TravelClass, date time.Time) ([]domain.FlightOffer, error)
	SetSearch(ctx context.Context, origin, destination string, class domain.TravelClass, date time.Time, offers []domain.FlightOffer) error
	InvalidateSearches(ctx context.Context) error
}

type OfferService struct {
	repo            repository.OfferRepository
	cache           Cache
	logger          *logrus.Logger
	defaultCapacity int
	now             func() time.Time
}

func NewOfferService(repo repository.OfferRepository, cache Cache, logger *logrus.Logger, defaultCapacity int) *OfferService {
	if defaultCapacity <= 0 {
		defaultCapacity = domain.DefaultCapacity
	}
	return &OfferService{repo: repo, cache: cache, logger: logger, defaultCapacity: defaultCapacity, now: time.Now}
}

// Search reads through the cache when one is configured. Cache failures
// fall back to the repository; stale write decisions are never made from a
// cached read.
func (s *OfferService) Search(ctx context.Context, origin, destination string, class domain.TravelClass, date time.Time) ([]domain.FlightOffer, error) {
	if origin == "" || destination == "" {
		return nil, domain.NewError(domain.KindValidation, "origin and destination are required")
	}
	if !class.Valid() {
		return nil, domain.NewError(domain.KindValidation, "unknown travel class")
	}

	if s.cache != nil {
		if cached, err := s.cache.GetSearch(ctx, origin, destination, class, date); err == nil && cached != nil {
			return cached, nil
		}
	}

	offers, err := s.repo.FindMatching(ctx, origin, destination, class, date)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetSearch(ctx, origin, destination, class, date, offers)
	}
	return offers, nil
}

func (s *OfferService) GetByID(ctx context.Context, id int64) (*domain.FlightOffer, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *OfferService) List(ctx context.Context) ([]domain.FlightOffer, error) {
	return s.repo.List(ctx)
}

func (s *OfferService) Create(ctx context.Context, offer *domain.FlightOffer) error {
	if offer.Capacity == 0 {
		offer.Capacity = s.defaultCapacity
	}
	if err := s.repo.Create(ctx, offer); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.logger.WithFields(logrus.Fields{
		"offer_id": offer.ID,
		"route":    offer.Origin + "-" + offer.Destination,
	}).Info("offer created")
	return nil
}

func (s *OfferService) Update(ctx context.Context, offer *domain.FlightOffer) error {
	if err := s.repo.Update(ctx, offer); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Deactivate retires an offer from new bookings. Offers referenced by
// bookings are never deleted.
func (s *OfferService) Deactivate(ctx context.Context, id int64) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// RetireDeparted deactivates offers whose departure date has passed. Run
// periodically by the worker.
func (s *OfferService) RetireDeparted(ctx context.Context) (int64, error) {
	retired, err := s.repo.DeactivateDeparted(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if retired > 0 {
		s.invalidate(ctx)
		s.logger.WithField("count", retired).Info("retired departed offers")
	}
	return retired, nil
}

func (s *OfferService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSearches(ctx); err != nil {
		s.logger.WithError(err).Warn("failed to invalidate offer search cache")
	}
}

var _ OfferUseCase = (*OfferService)(nil)
