package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/lib/pq"

	"slotbook/internal/db"
)

// ErrNoRowUpdated signals that a guarded insert/update matched nothing,
// either because the row is gone or because the overlap guard rejected it.
var ErrNoRowUpdated = errors.New("no row inserted or updated")

type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(database *sql.DB) *BookingRepository {
	return &BookingRepository{DB: database}
}

const bookingColumns = `
	id, user_id, service_id,
	to_char(booking_date, 'YYYY-MM-DD'),
	to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
	duration_hours, total_price_cents, status, payment_status,
	COALESCE(payment_intent_id, ''),
	customer_name, customer_email, customer_phone, customer_address,
	COALESCE(notes, ''), created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*db.Booking, error) {
	var b db.Booking
	err := row.Scan(
		&b.ID, &b.UserID, &b.ServiceID,
		&b.BookingDate, &b.StartTime, &b.EndTime,
		&b.DurationHours, &b.TotalPriceCents, &b.Status, &b.PaymentStatus,
		&b.PaymentIntentID,
		&b.Customer.Name, &b.Customer.Email, &b.Customer.Phone, &b.Customer.Address,
		&b.Notes, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListForDate returns the non-cancelled bookings for one date, optionally
// scoped to a service and excluding one booking id (used when re-checking
// during an edit).
func (r *BookingRepository) ListForDate(date, serviceID, excludeID string) ([]db.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE booking_date = $1 AND status <> 'cancelled'`
	args := []any{date}
	idx := 2
	if serviceID != "" {
		query += " AND service_id = $" + strconv.Itoa(idx)
		args = append(args, serviceID)
		idx++
	}
	if excludeID != "" {
		query += " AND id <> $" + strconv.Itoa(idx)
		args = append(args, excludeID)
	}
	query += " ORDER BY start_time"

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying bookings for date %s: %w", date, err)
	}
	defer rows.Close()

	var bookings []db.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// ListForDates is the batched fetch behind bulk availability: one query for
// the whole date list instead of one per date.
func (r *BookingRepository) ListForDates(dates []string, serviceID string) (map[string][]db.Booking, error) {
	byDate := make(map[string][]db.Booking, len(dates))
	if len(dates) == 0 {
		return byDate, nil
	}

	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE booking_date = ANY($1::date[]) AND status <> 'cancelled'`
	args := []any{pq.Array(dates)}
	if serviceID != "" {
		query += " AND service_id = $2"
		args = append(args, serviceID)
	}
	query += " ORDER BY booking_date, start_time"

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying bookings for date list: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning booking: %w", err)
		}
		byDate[b.BookingDate] = append(byDate[b.BookingDate], *b)
	}
	return byDate, rows.Err()
}

// CreateIfNoConflict inserts the booking only when no non-cancelled booking
// for the same service and date overlaps its [start, end) interval. The
// guard runs inside the INSERT itself, so two concurrent requests for the
// same slot cannot both get in.
func (r *BookingRepository) CreateIfNoConflict(b *db.Booking) error {
	query := `
		INSERT INTO bookings
		(id, user_id, service_id, booking_date, start_time, end_time,
		 duration_hours, total_price_cents, status, payment_status,
		 customer_name, customer_email, customer_phone, customer_address, notes,
		 created_at, updated_at)
		SELECT $1, $2, $3, $4::date, $5::time, $6::time, $7, $8, $9, $10,
		       $11, $12, $13, $14, $15, NOW(), NOW()
		WHERE NOT EXISTS (
			SELECT 1 FROM bookings
			WHERE service_id = $3
			  AND booking_date = $4::date
			  AND status <> 'cancelled'
			  AND start_time < $6::time
			  AND end_time > $5::time
		)
		RETURNING created_at, updated_at`
	err := r.DB.QueryRow(query,
		b.ID, b.UserID, b.ServiceID, b.BookingDate, b.StartTime, b.EndTime,
		b.DurationHours, b.TotalPriceCents, b.Status, b.PaymentStatus,
		b.Customer.Name, b.Customer.Email, b.Customer.Phone, b.Customer.Address, b.Notes,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoRowUpdated
	}
	if err != nil {
		return fmt.Errorf("error inserting booking: %w", err)
	}
	return nil
}

// UpdateIfNoConflict rewrites a booking's mutable fields with the same
// overlap guard, excluding the booking's own row from the check.
func (r *BookingRepository) UpdateIfNoConflict(b *db.Booking) error {
	query := `
		UPDATE bookings SET
			booking_date = $2::date, start_time = $3::time, end_time = $4::time,
			duration_hours = $5, total_price_cents = $6, status = $7,
			customer_name = $8, customer_email = $9, customer_phone = $10,
			customer_address = $11, notes = $12, updated_at = NOW()
		WHERE id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM bookings
			WHERE service_id = $13
			  AND booking_date = $2::date
			  AND status <> 'cancelled'
			  AND id <> $1
			  AND start_time < $4::time
			  AND end_time > $3::time
		)
		RETURNING updated_at`
	err := r.DB.QueryRow(query,
		b.ID, b.BookingDate, b.StartTime, b.EndTime,
		b.DurationHours, b.TotalPriceCents, b.Status,
		b.Customer.Name, b.Customer.Email, b.Customer.Phone,
		b.Customer.Address, b.Notes, b.ServiceID,
	).Scan(&b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoRowUpdated
	}
	if err != nil {
		return fmt.Errorf("error updating booking %s: %w", b.ID, err)
	}
	return nil
}

func (r *BookingRepository) GetByID(id string) (*db.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(r.DB.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("error querying booking %s: %w", id, err)
	}
	return b, nil
}

func (r *BookingRepository) GetByIntentID(intentID string) (*db.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE payment_intent_id = $1`
	b, err := scanBooking(r.DB.QueryRow(query, intentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("error querying booking by intent %s: %w", intentID, err)
	}
	return b, nil
}

func (r *BookingRepository) ListByUser(userID string) ([]db.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings WHERE user_id = $1
		ORDER BY booking_date DESC, start_time DESC`
	rows, err := r.DB.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying bookings for user: %w", err)
	}
	defer rows.Close()

	var bookings []db.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// List is the admin view with optional date, service and status filters.
func (r *BookingRepository) List(date, serviceID, status string) ([]db.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	args := []any{}
	idx := 1
	if date != "" {
		query += " AND booking_date = $" + strconv.Itoa(idx) + "::date"
		args = append(args, date)
		idx++
	}
	if serviceID != "" {
		query += " AND service_id = $" + strconv.Itoa(idx)
		args = append(args, serviceID)
		idx++
	}
	if status != "" {
		query += " AND status = $" + strconv.Itoa(idx)
		args = append(args, status)
	}
	query += " ORDER BY booking_date DESC, start_time DESC"

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing bookings: %w", err)
	}
	defer rows.Close()

	var bookings []db.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// Cancel soft-deletes: bookings are never physically removed.
func (r *BookingRepository) Cancel(id string) error {
	query := `UPDATE bookings SET status = 'cancelled', updated_at = NOW() WHERE id = $1 RETURNING status`
	var status string
	if err := r.DB.QueryRow(query, id).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return fmt.Errorf("error cancelling booking %s: %w", id, err)
	}
	return nil
}

func (r *BookingRepository) SetPaymentIntent(id, intentID, paymentStatus string) error {
	query := `UPDATE bookings SET payment_intent_id = $2, payment_status = $3, updated_at = NOW() WHERE id = $1`
	result, err := r.DB.Exec(query, id, intentID, paymentStatus)
	if err != nil {
		return fmt.Errorf("error setting payment intent on booking %s: %w", id, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *BookingRepository) UpdateStatusAndPayment(id, status, paymentStatus string) error {
	query := `UPDATE bookings SET status = $2, payment_status = $3, updated_at = NOW() WHERE id = $1`
	result, err := r.DB.Exec(query, id, status, paymentStatus)
	if err != nil {
		return fmt.Errorf("error updating statuses on booking %s: %w", id, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *BookingRepository) SetPaymentStatus(id, paymentStatus string) error {
	query := `UPDATE bookings SET payment_status = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.DB.Exec(query, id, paymentStatus)
	if err != nil {
		return fmt.Errorf("error updating payment status on booking %s: %w", id, err)
	}
	return nil
}
