package repository

import (
	"database/sql"
	"fmt"

	"slotbook/internal/db"
)

type PaymentRepository struct {
	DB *sql.DB
}

func NewPaymentRepository(database *sql.DB) *PaymentRepository {
	return &PaymentRepository{DB: database}
}

// Insert records a mirrored payment. Duplicate webhook deliveries of the
// same intent are swallowed by the conflict clause.
func (r *PaymentRepository) Insert(p *db.Payment) error {
	query := `
		INSERT INTO payments (id, booking_id, intent_id, amount_cents, currency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (intent_id) DO NOTHING`
	_, err := r.DB.Exec(query, p.ID, p.BookingID, p.IntentID, p.AmountCents, p.Currency, p.Status)
	if err != nil {
		return fmt.Errorf("error inserting payment for booking %s: %w", p.BookingID, err)
	}
	return nil
}

func (r *PaymentRepository) ListByBooking(bookingID string) ([]db.Payment, error) {
	query := `
		SELECT id, booking_id, intent_id, amount_cents, currency, status, created_at
		FROM payments WHERE booking_id = $1 ORDER BY created_at`
	rows, err := r.DB.Query(query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("error listing payments for booking %s: %w", bookingID, err)
	}
	defer rows.Close()

	var payments []db.Payment
	for rows.Next() {
		var p db.Payment
		if err := rows.Scan(&p.ID, &p.BookingID, &p.IntentID, &p.AmountCents, &p.Currency, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
