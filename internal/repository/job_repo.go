package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(database *sql.DB) *JobRepository {
	return &JobRepository{DB: database}
}

// GetConfirmedPastStart finds confirmed bookings whose start has passed.
func (r *JobRepository) GetConfirmedPastStart() ([]string, error) {
	query := `
		SELECT id FROM bookings
		WHERE status = 'confirmed' AND booking_date + start_time <= NOW()`
	return r.queryIDs(query)
}

// GetInProgressPastEnd finds in-progress bookings whose end has passed.
func (r *JobRepository) GetInProgressPastEnd() ([]string, error) {
	query := `
		SELECT id FROM bookings
		WHERE status = 'in_progress' AND booking_date + end_time <= NOW()`
	return r.queryIDs(query)
}

func (r *JobRepository) queryIDs(query string) ([]string, error) {
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("error querying booking ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning booking id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *JobRepository) UpdateStatuses(ids []string, newStatus string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = ANY($2)`
	result, err := r.DB.Exec(query, newStatus, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("error updating booking statuses: %w", err)
	}
	return result.RowsAffected()
}

// CancelStaleUnpaidPending soft-cancels pending bookings that were created
// before the cutoff and never paid, freeing their slots.
func (r *JobRepository) CancelStaleUnpaidPending(before time.Time) (int64, error) {
	query := `
		UPDATE bookings SET status = 'cancelled', updated_at = NOW()
		WHERE status = 'pending' AND payment_status IN ('pending', 'failed') AND created_at < $1`
	result, err := r.DB.Exec(query, before)
	if err != nil {
		return 0, fmt.Errorf("error cancelling stale pending bookings: %w", err)
	}
	return result.RowsAffected()
}
