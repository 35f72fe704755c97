package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dkravets/airreserve/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OfferRepository interface {
	FindMatching(ctx context.Context, origin, destination string, class domain.TravelClass, date time.Time) ([]domain.FlightOffer, error)
	GetByID(ctx context.Context, id int64) (*domain.FlightOffer, error)
	List(ctx context.Context) ([]domain.FlightOffer, error)
	Create(ctx context.Context, offer *domain.FlightOffer) error
	Update(ctx context.Context, offer *domain.FlightOffer) error
	SetActive(ctx context.Context, id int64, active bool) error
	DeactivateDeparted(ctx context.Context, now time.Time) (int64, error)
}

type PGOfferRepository struct {
	db *pgxpool.Pool
}

func NewOfferRepository(db *pgxpool.Pool) OfferRepository {
	return &PGOfferRepository{db: db}
}

const offerColumns = `id, origin, destination, departure_date, departure_time, travel_class, unit_price, capacity, active, created_at, updated_at`

// FindMatching returns only active offers whose route, class and departure
// date match exactly, ordered by departure date ascending.
func (r *PGOfferRepository) FindMatching(ctx context.Context, origin, destination string, class domain.TravelClass, date time.Time) ([]domain.FlightOffer, error) {
	rows, err := r.db.Query(ctx, `SELECT `+offerColumns+` FROM offers
		WHERE origin=$1 AND destination=$2 AND travel_class=$3 AND departure_date=$4 AND active
		ORDER BY departure_date, id`, origin, destination, class, date)
	if err != nil {
		return nil, domain.WrapError(domain.KindPersistence, "query matching offers", err)
	}
	defer rows.Close()

	return scanOffers(rows)
}

func (r *PGOfferRepository) GetByID(ctx context.Context, id int64) (*domain.FlightOffer, error) {
	row := r.db.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id=$1`, id)
	var o domain.FlightOffer
	if err := scanOffer(row, &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewError(domain.KindNotFound, "offer not found")
		}
		return nil, domain.WrapError(domain.KindPersistence, "get offer", err)
	}
	return &o, nil
}

func (r *PGOfferRepository) List(ctx context.Context) ([]domain.FlightOffer, error) {
	rows, err := r.db.Query(ctx, `SELECT `+offerColumns+` FROM offers ORDER BY departure_date, id`)
	if err != nil {
		return nil, domain.WrapError(domain.KindPersistence, "list offers", err)
	}
	defer rows.Close()

	return scanOffers(rows)
}

func (r *PGOfferRepository) Create(ctx context.Context, offer *domain.FlightOffer) error {
	if err := offer.Validate(); err != nil {
		return err
	}
	err := r.db.QueryRow(ctx, `INSERT INTO offers (origin, destination, departure_date, departure_time, travel_class, unit_price, capacity, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		offer.Origin, offer.Destination, offer.DepartureDate, offer.DepartureTime, offer.Class, offer.UnitPrice, offer.Capacity, offer.Active).
		Scan(&offer.ID, &offer.CreatedAt, &offer.UpdatedAt)
	if err != nil {
		return domain.WrapError(domain.KindPersistence, "insert offer", err)
	}
	return nil
}

func (r *PGOfferRepository) Update(ctx context.Context, offer *domain.FlightOffer) error {
	if err := offer.Validate(); err != nil {
		return err
	}
	res, err := r.db.Exec(ctx, `UPDATE offers SET origin=$1, destination=$2, departure_date=$3, departure_time=$4,
		travel_class=$5, unit_price=$6, capacity=$7, active=$8, updated_at=now() WHERE id=$9`,
		offer.Origin, offer.Destination, offer.DepartureDate, offer.DepartureTime, offer.Class, offer.UnitPrice, offer.Capacity, offer.Active, offer.ID)
	if err != nil {
		return domain.WrapError(domain.KindPersistence, "update offer", err)
	}
	if res.RowsAffected() == 0 {
		return domain.NewError(domain.KindNotFound, "offer not found")
	}
	return nil
}

func (r *PGOfferRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.Exec(ctx, `UPDATE offers SET active=$1, updated_at=now() WHERE id=$2`, active, id)
	if err != nil {
		return domain.WrapError(domain.KindPersistence, "set offer active", err)
	}
	if res.RowsAffected() == 0 {
		return domain.NewError(domain.KindNotFound, "offer not found")
	}
	return nil
}

// DeactivateDeparted retires offers whose departure date has passed so they
// no longer show up for new bookings. Existing bookings keep referencing
// them.
func (r *PGOfferRepository) DeactivateDeparted(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.Exec(ctx, `UPDATE offers SET active=false, updated_at=now() WHERE active AND departure_date < $1`, now.Truncate(24*time.Hour))
	if err != nil {
		return 0, domain.WrapError(domain.KindPersistence, "deactivate departed offers", err)
	}
	return res.RowsAffected(), nil
}

func scanOffer(row pgx.Row, o *domain.FlightOffer) error {
	return row.Scan(&o.ID, &o.Origin, &o.Destination, &o.DepartureDate, &o.DepartureTime, &o.Class, &o.UnitPrice, &o.Capacity, &o.Active, &o.CreatedAt, &o.UpdatedAt)
}

func scanOffers(rows pgx.Rows) ([]domain.FlightOffer, error) {
	offers := make([]domain.FlightOffer, 0)
	for rows.Next() {
		var o domain.FlightOffer
		if err := scanOffer(rows, &o); err != nil {
			return nil, domain.WrapError(domain.KindPersistence, "scan offer", err)
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.KindPersistence, "iterate offers", err)
	}
	return offers, nil
}

var _ OfferRepository = (*PGOfferRepository)(nil)
