package service

import (
	"fmt"
	"log"
	"time"

	"slotbook/internal/cache"
	"slotbook/internal/db"
	"slotbook/internal/repository"
)

// JobService owns the cron-driven status advancement: confirmed bookings
// whose start has passed become in_progress, in-progress bookings whose end
// has passed become completed, and stale unpaid pending bookings are
// cancelled so their slots free up.
type JobService struct {
	Repo  *repository.JobRepository
	cache cache.Store
}

func NewJobService(repo *repository.JobRepository, store cache.Store) *JobService {
	return &JobService{Repo: repo, cache: store}
}

func (s *JobService) AdvanceStartedBookings() error {
	ids, err := s.Repo.GetConfirmedPastStart()
	if err != nil {
		return fmt.Errorf("cron job: failed to get confirmed bookings past start: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	n, err := s.Repo.UpdateStatuses(ids, db.StatusInProgress)
	if err != nil {
		return fmt.Errorf("cron job: failed to mark bookings in progress: %w", err)
	}
	log.Printf("Cron Job: marked %d bookings as 'in_progress'", n)
	return nil
}

func (s *JobService) CompleteFinishedBookings() error {
	ids, err := s.Repo.GetInProgressPastEnd()
	if err != nil {
		return fmt.Errorf("cron job: failed to get bookings past end time: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	n, err := s.Repo.UpdateStatuses(ids, db.StatusCompleted)
	if err != nil {
		return fmt.Errorf("cron job: failed to mark bookings completed: %w", err)
	}
	log.Printf("Cron Job: marked %d bookings as 'completed'", n)
	return nil
}

// CancelStalePending frees slots held by bookings that never got paid.
// Cancellations change availability, so the whole cache is dropped.
func (s *JobService) CancelStalePending(maxAge time.Duration) error {
	n, err := s.Repo.CancelStaleUnpaidPending(time.Now().UTC().Add(-maxAge))
	if err != nil {
		return fmt.Errorf("cron job: failed to cancel stale pending bookings: %w", err)
	}
	if n > 0 {
		log.Printf("Cron Job: cancelled %d stale unpaid pending bookings", n)
		s.cache.Invalidate("", "")
	}
	return nil
}
