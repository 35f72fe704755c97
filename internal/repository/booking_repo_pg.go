package repository

import (
	"context"
	"errors"

	"github.com/dkravets/airreserve/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrCodeTaken signals a confirmation-code unique violation on insert. The
// caller regenerates the code and retries instead of overwriting.
var ErrCodeTaken = errors.New("confirmation code already taken")

type BookingRepository interface {
	Insert(ctx context.Context, booking *domain.Booking) error
	InsertAllocated(ctx context.Context, booking *domain.Booking, capacity int) error
	Update(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByConfirmationCode(ctx context.Context, code string) (*domain.Booking, error)
	FindByOffer(ctx context.Context, offerID int64) ([]domain.Booking, error)
	FindByTraveler(ctx context.Context, travelerID int64) ([]domain.Booking, error)
	Delete(ctx context.Context, id int64) error
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, traveler_id, offer_id, passenger_name, traveler_email, adults, children, infants, total_price, booking_date, status, confirmation_code, created_at, updated_at`

const insertBookingSQL = `INSERT INTO bookings (traveler_id, offer_id, passenger_name, traveler_email, adults, children, infants, total_price, booking_date, status, confirmation_code)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id, created_at, updated_at`

func (r *PGBookingRepository) Insert(ctx context.Context, booking *domain.Booking) error {
	err := r.db.QueryRow(ctx, insertBookingSQL,
		booking.TravelerID, booking.OfferID, booking.PassengerName, booking.TravelerEmail,
		booking.Adults, booking.Children, booking.Infants, booking.TotalPrice,
		booking.BookingDate, booking.Status, booking.ConfirmationCode).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	return translateInsertErr(err)
}

// InsertAllocated performs the capacity check and the insert as one
// serialized unit. It takes a transaction-scoped advisory lock keyed by the
// offer id, recomputes the occupied seat count from non-cancelled bookings
// inside the same transaction, and only then inserts. Two concurrent
// attempts against the same offer therefore cannot both observe the seats
// as free.
func (r *PGBookingRepository) InsertAllocated(ctx context.Context, booking *domain.Booking, capacity int) error {
	if err := booking.Validate(); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.WrapError(domain.KindPersistence, "begin allocation tx", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, offerLockClass, booking.OfferID); err != nil {
		return domain.WrapError(domain.KindPersistence, "lock offer", err)
	}

	var occupied int
	if err := tx.QueryRow(ctx, `SELECT COALESCE(SUM(adults + children + infants), 0) FROM bookings
		WHERE offer_id=$1 AND status <> $2`, booking.OfferID, domain.BookingStatusCancelled).Scan(&occupied); err != nil {
		return domain.WrapError(domain.KindPersistence, "sum occupied seats", err)
	}
	if occupied+booking.TotalPassengers() > capacity {
		return domain.NewError(domain.KindNoAvailability, "flight is fully booked for that date")
	}

	if err := tx.QueryRow(ctx, insertBookingSQL,
		booking.TravelerID, booking.OfferID, booking.PassengerName, booking.TravelerEmail,
		booking.Adults, booking.Children, booking.Infants, booking.TotalPrice,
		booking.BookingDate, booking.Status, booking.ConfirmationCode).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return translateInsertErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.WrapError(domain.KindPersistence, "commit allocation tx", err)
	}
	return nil
}

// offerLockClass namespaces the advisory lock keys used for allocation.
const offerLockClass = 4201

func (r *PGBookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	res, err := r.db.Exec(ctx, `UPDATE bookings SET traveler_id=$1, offer_id=$2, passenger_name=$3, traveler_email=$4,
		adults=$5, children=$6, infants=$7, total_price=$8, booking_date=$9, status=$10, updated_at=now()
		WHERE id=$11`,
		booking.TravelerID, booking.OfferID, booking.PassengerName, booking.TravelerEmail,
		booking.Adults, booking.Children, booking.Infants, booking.TotalPrice,
		booking.BookingDate, booking.Status, booking.ID)
	if err != nil {
		return domain.WrapError(domain.KindPersistence, "update booking", err)
	}
	if res.RowsAffected() == 0 {
		return domain.NewError(domain.KindNotFound, "booking not found")
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
}

func (r *PGBookingRepository) GetByConfirmationCode(ctx context.Context, code string) (*domain.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE confirmation_code=$1`, code)
}

func (r *PGBookingRepository) FindByOffer(ctx context.Context, offerID int64) ([]domain.Booking, error) {
	return r.findAll(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE offer_id=$1 ORDER BY id`, offerID)
}

func (r *PGBookingRepository) FindByTraveler(ctx context.Context, travelerID int64) ([]domain.Booking, error) {
	return r.findAll(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE traveler_id=$1 ORDER BY booking_date DESC, id DESC`, travelerID)
}

func (r *PGBookingRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	if err != nil {
		return domain.WrapError(domain.KindPersistence, "delete booking", err)
	}
	if res.RowsAffected() == 0 {
		return domain.NewError(domain.KindNotFound, "booking not found")
	}
	return nil
}

func (r *PGBookingRepository) getOne(ctx context.Context, sql string, arg any) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, sql, arg)
	var b domain.Booking
	if err := scanBooking(row, &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewError(domain.KindNotFound, "booking not found")
		}
		return nil, domain.WrapError(domain.KindPersistence, "get booking", err)
	}
	return &b, nil
}

func (r *PGBookingRepository) findAll(ctx context.Context, sql string, arg any) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, sql, arg)
	if err != nil {
		return nil, domain.WrapError(domain.KindPersistence, "query bookings", err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, domain.WrapError(domain.KindPersistence, "scan booking", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.KindPersistence, "iterate bookings", err)
	}
	return bookings, nil
}

func scanBooking(row pgx.Row, b *domain.Booking) error {
	return row.Scan(&b.ID, &b.TravelerID, &b.OfferID, &b.PassengerName, &b.TravelerEmail,
		&b.Adults, &b.Children, &b.Infants, &b.TotalPrice, &b.BookingDate, &b.Status,
		&b.ConfirmationCode, &b.CreatedAt, &b.UpdatedAt)
}

func translateInsertErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.WrapError(domain.KindPersistence, "confirmation code collision", ErrCodeTaken)
	}
	return domain.WrapError(domain.KindPersistence, "insert booking", err)
}

var _ BookingRepository = (*PGBookingRepository)(nil)
