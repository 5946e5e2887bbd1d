package service

import (
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"slotbook/internal/apperr"
	"slotbook/internal/cache"
	"slotbook/internal/db"
	"slotbook/internal/entities"
	"slotbook/internal/schedule"
)

// MaxBulkDates bounds one bulk availability call.
const MaxBulkDates = 30

const dateLayout = "2006-01-02"

// BookingSource is the slice of the booking repository the availability
// aggregator needs.
type BookingSource interface {
	ListForDate(date, serviceID, excludeID string) ([]db.Booking, error)
	ListForDates(dates []string, serviceID string) (map[string][]db.Booking, error)
}

type AvailabilityService struct {
	bookings BookingSource
	cache    cache.Store
	hours    schedule.Hours
	now      func() time.Time
}

func NewAvailabilityService(bookings BookingSource, store cache.Store, hours schedule.Hours) *AvailabilityService {
	return &AvailabilityService{
		bookings: bookings,
		cache:    store,
		hours:    hours,
		now:      time.Now,
	}
}

// GetAvailability returns the slot-by-slot report for one date. The second
// return value reports whether the result came from the cache.
func (s *AvailabilityService) GetAvailability(date, serviceID string, duration int, excludeBookingID string) (*entities.AvailabilityResult, bool, error) {
	if err := s.validateQuery(date, duration); err != nil {
		return nil, false, err
	}
	if date < s.today() {
		return nil, false, apperr.Validation("date", "date cannot be in the past")
	}

	key := cache.NewKey([]string{date}, serviceID, duration, excludeBookingID)
	if v, ok := s.cache.Get(key); ok {
		if result, ok := v.(*entities.AvailabilityResult); ok {
			return result, true, nil
		}
	}

	bookings, err := s.bookings.ListForDate(date, serviceID, excludeBookingID)
	if err != nil {
		return nil, false, apperr.Upstream("error fetching bookings", err)
	}

	result := s.compute(date, serviceID, duration, bookings)
	s.cache.Set(key, result)
	return result, false, nil
}

// GetBulkAvailability checks up to MaxBulkDates dates in one call. Past
// dates are short-circuited without a fetch; the rest share one batched
// query. Results come back in chronological order regardless of input order.
func (s *AvailabilityService) GetBulkAvailability(dates []string, serviceID string, duration int) ([]entities.DateAvailability, *entities.BulkPerformance, error) {
	if len(dates) == 0 {
		return nil, nil, apperr.Validation("dates", "at least one date is required")
	}
	if len(dates) > MaxBulkDates {
		return nil, nil, apperr.TooManyDates(fmt.Sprintf("at most %d dates per request", MaxBulkDates))
	}
	for _, d := range dates {
		if err := s.validateQuery(d, duration); err != nil {
			return nil, nil, err
		}
	}

	started := s.now()
	today := s.today()
	perf := &entities.BulkPerformance{}

	results := make(map[string]entities.DateAvailability, len(dates))
	seen := make(map[string]bool, len(dates))
	var misses []string
	for _, date := range dates {
		if seen[date] {
			continue
		}
		seen[date] = true
		if date < today {
			results[date] = entities.DateAvailability{Date: date, Available: false, Reason: "Past date"}
			continue
		}
		key := cache.NewKey([]string{date}, serviceID, duration, "")
		if v, ok := s.cache.Get(key); ok {
			if cached, ok := v.(*entities.AvailabilityResult); ok {
				results[date] = toDateAvailability(cached)
				perf.CacheHits++
				continue
			}
		}
		misses = append(misses, date)
	}

	if len(misses) > 0 {
		byDate, err := s.bookings.ListForDates(misses, serviceID)
		if err != nil {
			return nil, nil, apperr.Upstream("error fetching bookings", err)
		}
		for _, date := range misses {
			result := s.compute(date, serviceID, duration, byDate[date])
			s.cache.Set(cache.NewKey([]string{date}, serviceID, duration, ""), result)
			results[date] = toDateAvailability(result)
		}
	}

	ordered := make([]entities.DateAvailability, 0, len(results))
	for _, r := range results {
		ordered = append(ordered, r)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Date < ordered[j].Date })

	// Duplicate input dates collapse to one result, so count the distinct set.
	perf.TotalDates = len(ordered)
	perf.QueryTimeMs = s.now().Sub(started).Milliseconds()
	return ordered, perf, nil
}

// Invalidate drops cached availability for a date (or everything when date
// is empty), optionally narrowed to one service.
func (s *AvailabilityService) Invalidate(date, serviceID string) {
	s.cache.Invalidate(date, serviceID)
}

func (s *AvailabilityService) compute(date, serviceID string, duration int, bookings []db.Booking) *entities.AvailabilityResult {
	busy := make([]schedule.Interval, 0, len(bookings))
	for _, b := range bookings {
		start, err := schedule.ParseClock(b.StartTime)
		if err != nil {
			log.Printf("Skipping booking %s with bad start_time %q: %v", b.ID, b.StartTime, err)
			continue
		}
		end, err := schedule.ParseClock(b.EndTime)
		if err != nil {
			log.Printf("Skipping booking %s with bad end_time %q: %v", b.ID, b.EndTime, err)
			continue
		}
		busy = append(busy, schedule.Interval{Start: start, End: end})
	}

	result := &entities.AvailabilityResult{
		Date:      date,
		ServiceID: serviceID,
		Duration:  duration,
	}
	for _, slot := range s.hours.Slots() {
		start, _ := schedule.ParseClock(slot)
		check := s.hours.CheckSlot(start, start+duration*60, busy)
		result.Slots = append(result.Slots, entities.TimeSlot{
			Time:          slot,
			Available:     check.Available,
			Reason:        check.Reason,
			ConflictCount: check.ConflictCount,
		})
		result.Summary.TotalSlots++
		if check.Available {
			result.Summary.AvailableSlots++
		} else {
			result.Summary.BookedSlots++
		}
	}
	if result.Summary.TotalSlots > 0 {
		result.Summary.Percentage = int(math.Round(
			float64(result.Summary.AvailableSlots) / float64(result.Summary.TotalSlots) * 100))
	}
	return result
}

func (s *AvailabilityService) validateQuery(date string, duration int) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return apperr.Validation("date", "date must be formatted YYYY-MM-DD")
	}
	if duration < 1 {
		return apperr.Validation("duration", "duration must be at least 1 hour")
	}
	return nil
}

func (s *AvailabilityService) today() string {
	return s.now().Format(dateLayout)
}

func toDateAvailability(r *entities.AvailabilityResult) entities.DateAvailability {
	return entities.DateAvailability{
		Date:      r.Date,
		Available: r.Summary.AvailableSlots > 0,
		Slots:     r.Slots,
		Summary:   r.Summary,
	}
}
