package service

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"slotbook/internal/apperr"
	"slotbook/internal/cache"
	"slotbook/internal/db"
	"slotbook/internal/entities"
	"slotbook/internal/repository"
	"slotbook/internal/schedule"
)

// Actor identifies the caller of a booking operation.
type Actor struct {
	UserID string
	Admin  bool
}

// BookingStore is the booking repository surface the lifecycle manager uses.
type BookingStore interface {
	BookingSource
	CreateIfNoConflict(b *db.Booking) error
	UpdateIfNoConflict(b *db.Booking) error
	GetByID(id string) (*db.Booking, error)
	ListByUser(userID string) ([]db.Booking, error)
	List(date, serviceID, status string) ([]db.Booking, error)
	Cancel(id string) error
}

// ServiceSource resolves the service catalog for validation and pricing.
type ServiceSource interface {
	GetByID(id string) (*db.Service, error)
}

// Notifier delivers booking messages to the owner. Implementations must
// never fail the operation they are attached to; errors are logged inside.
type Notifier interface {
	NotifyBooking(b *db.Booking, message string)
}

// Allowed status transitions. completed and cancelled are terminal.
var allowedTransitions = map[string][]string{
	db.StatusPending:    {db.StatusConfirmed, db.StatusCancelled},
	db.StatusConfirmed:  {db.StatusInProgress, db.StatusCancelled},
	db.StatusInProgress: {db.StatusCompleted},
}

type BookingService struct {
	bookings BookingStore
	services ServiceSource
	cache    cache.Store
	notifier Notifier
	hours    schedule.Hours
	now      func() time.Time
}

func NewBookingService(bookings BookingStore, services ServiceSource, store cache.Store, notifier Notifier, hours schedule.Hours) *BookingService {
	return &BookingService{
		bookings: bookings,
		services: services,
		cache:    store,
		notifier: notifier,
		hours:    hours,
		now:      time.Now,
	}
}

func (s *BookingService) Create(req entities.CreateBookingRequest, actor Actor) (*entities.BookingResponse, error) {
	if req.ServiceID == "" {
		return nil, apperr.Validation("service_id", "service_id is required")
	}
	if req.Customer.Name == "" {
		return nil, apperr.Validation("customer_info.name", "name is required")
	}
	if req.Customer.Email == "" {
		return nil, apperr.Validation("customer_info.email", "email is required")
	}

	svc, err := s.services.GetByID(req.ServiceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("service not found")
		}
		return nil, apperr.Upstream("error fetching service", err)
	}
	if !svc.Active {
		return nil, apperr.Validation("service_id", "service is not active")
	}

	start, end, err := s.validateSchedule(req.BookingDate, req.StartTime, req.DurationHours)
	if err != nil {
		return nil, err
	}

	if err := s.checkSlotFree(req.BookingDate, req.ServiceID, "", start, end); err != nil {
		return nil, err
	}

	b := &db.Booking{
		ID:              uuid.NewString(),
		UserID:          actor.UserID,
		ServiceID:       req.ServiceID,
		BookingDate:     req.BookingDate,
		StartTime:       schedule.FormatClock(start),
		EndTime:         schedule.FormatClock(end),
		DurationHours:   req.DurationHours,
		TotalPriceCents: price(svc, req.DurationHours),
		Status:          db.StatusPending,
		PaymentStatus:   db.PaymentPending,
		Customer:        db.CustomerInfo(req.Customer),
		Notes:           req.Notes,
	}

	if err := s.bookings.CreateIfNoConflict(b); err != nil {
		if errors.Is(err, repository.ErrNoRowUpdated) {
			return nil, apperr.Conflict("Time slot is already booked")
		}
		return nil, apperr.Upstream("error creating booking", err)
	}

	s.cache.Invalidate(b.BookingDate, b.ServiceID)
	s.notifier.NotifyBooking(b, "Your booking request has been received")
	return toBookingResponse(b, svc.Name), nil
}

func (s *BookingService) Update(id string, req entities.UpdateBookingRequest, actor Actor) (*entities.BookingResponse, error) {
	b, err := s.getOwned(id, actor)
	if err != nil {
		return nil, err
	}
	if b.Status == db.StatusCompleted || b.Status == db.StatusCancelled {
		return nil, apperr.StateTransition(fmt.Sprintf("cannot edit a %s booking", b.Status))
	}

	oldDate := b.BookingDate
	scheduleChanged := false
	if req.BookingDate != nil && *req.BookingDate != b.BookingDate {
		b.BookingDate = *req.BookingDate
		scheduleChanged = true
	}
	if req.StartTime != nil && *req.StartTime != b.StartTime {
		b.StartTime = *req.StartTime
		scheduleChanged = true
	}
	if req.DurationHours != nil && *req.DurationHours != b.DurationHours {
		b.DurationHours = *req.DurationHours
		scheduleChanged = true
	}

	statusChanged := false
	if req.Status != nil && *req.Status != b.Status {
		if !actor.Admin {
			return nil, apperr.Forbidden("only admins can change booking status")
		}
		if !transitionAllowed(b.Status, *req.Status) {
			return nil, apperr.StateTransition(fmt.Sprintf("cannot move booking from %s to %s", b.Status, *req.Status))
		}
		b.Status = *req.Status
		statusChanged = true
	}

	if scheduleChanged {
		if b.Status != db.StatusPending && b.Status != db.StatusConfirmed {
			return nil, apperr.StateTransition(fmt.Sprintf("cannot reschedule a %s booking", b.Status))
		}
		start, end, err := s.validateSchedule(b.BookingDate, b.StartTime, b.DurationHours)
		if err != nil {
			return nil, err
		}
		b.StartTime = schedule.FormatClock(start)
		b.EndTime = schedule.FormatClock(end)

		svc, err := s.services.GetByID(b.ServiceID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, apperr.NotFound("service not found")
			}
			return nil, apperr.Upstream("error fetching service", err)
		}
		b.TotalPriceCents = price(svc, b.DurationHours)

		// Re-check excluding this booking's own row.
		if err := s.checkSlotFree(b.BookingDate, b.ServiceID, b.ID, start, end); err != nil {
			return nil, err
		}
	}

	if req.Customer != nil {
		b.Customer = db.CustomerInfo(*req.Customer)
	}
	if req.Notes != nil {
		b.Notes = *req.Notes
	}

	if err := s.bookings.UpdateIfNoConflict(b); err != nil {
		if errors.Is(err, repository.ErrNoRowUpdated) {
			return nil, apperr.Conflict("Time slot is already booked")
		}
		return nil, apperr.Upstream("error updating booking", err)
	}

	s.cache.Invalidate(oldDate, b.ServiceID)
	if b.BookingDate != oldDate {
		s.cache.Invalidate(b.BookingDate, b.ServiceID)
	}

	switch {
	case statusChanged && b.Status == db.StatusConfirmed:
		s.notifier.NotifyBooking(b, "Your booking has been confirmed")
	case statusChanged && b.Status == db.StatusCompleted:
		s.notifier.NotifyBooking(b, "Your booking has been completed")
	case statusChanged:
		s.notifier.NotifyBooking(b, fmt.Sprintf("Your booking status is now %s", b.Status))
	case scheduleChanged:
		s.notifier.NotifyBooking(b, "Your booking has been rescheduled")
	default:
		s.notifier.NotifyBooking(b, "Your booking details have been updated")
	}
	return toBookingResponse(b, ""), nil
}

// Cancel soft-deletes a booking. Cancelling one already in a terminal state
// is a domain error, not a silent success, and sends no second notification.
func (s *BookingService) Cancel(id string, actor Actor) error {
	b, err := s.getOwned(id, actor)
	if err != nil {
		return err
	}
	switch b.Status {
	case db.StatusCancelled:
		return apperr.StateTransition("booking is already cancelled")
	case db.StatusCompleted:
		return apperr.StateTransition("cannot cancel a completed booking")
	case db.StatusInProgress:
		return apperr.StateTransition("cannot cancel a booking in progress")
	}

	if err := s.bookings.Cancel(id); err != nil {
		return apperr.Upstream("error cancelling booking", err)
	}
	b.Status = db.StatusCancelled

	s.cache.Invalidate(b.BookingDate, b.ServiceID)
	s.notifier.NotifyBooking(b, "Your booking has been cancelled")
	return nil
}

func (s *BookingService) Get(id string, actor Actor) (*entities.BookingResponse, error) {
	b, err := s.getOwned(id, actor)
	if err != nil {
		return nil, err
	}
	return toBookingResponse(b, ""), nil
}

func (s *BookingService) ListForActor(actor Actor) ([]entities.BookingResponse, error) {
	bookings, err := s.bookings.ListByUser(actor.UserID)
	if err != nil {
		return nil, apperr.Upstream("error listing bookings", err)
	}
	return toBookingResponses(bookings), nil
}

// ListAll is the admin view with optional filters.
func (s *BookingService) ListAll(date, serviceID, status string) ([]entities.BookingResponse, error) {
	bookings, err := s.bookings.List(date, serviceID, status)
	if err != nil {
		return nil, apperr.Upstream("error listing bookings", err)
	}
	return toBookingResponses(bookings), nil
}

func (s *BookingService) getOwned(id string, actor Actor) (*db.Booking, error) {
	b, err := s.bookings.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("booking not found")
		}
		return nil, apperr.Upstream("error fetching booking", err)
	}
	if !actor.Admin && b.UserID != actor.UserID {
		return nil, apperr.Forbidden("booking belongs to another user")
	}
	return b, nil
}

func (s *BookingService) validateSchedule(date, startTime string, duration int) (int, int, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return 0, 0, apperr.Validation("booking_date", "date must be formatted YYYY-MM-DD")
	}
	if date < s.now().Format(dateLayout) {
		return 0, 0, apperr.Validation("booking_date", "date cannot be in the past")
	}
	if duration < 1 {
		return 0, 0, apperr.Validation("duration_hours", "duration must be at least 1 hour")
	}
	start, err := schedule.ParseClock(startTime)
	if err != nil {
		return 0, 0, apperr.Validation("start_time", "start time must be formatted HH:MM")
	}
	if start < s.hours.OpenHour*60 {
		return 0, 0, apperr.Validation("start_time", "start time is before business hours")
	}
	end := start + duration*60
	if end > s.hours.CloseMinutes() {
		return 0, 0, apperr.Validation("start_time", "booking extends beyond business hours")
	}
	return start, end, nil
}

func (s *BookingService) checkSlotFree(date, serviceID, excludeID string, start, end int) error {
	existing, err := s.bookings.ListForDate(date, serviceID, excludeID)
	if err != nil {
		return apperr.Upstream("error fetching bookings", err)
	}
	busy := make([]schedule.Interval, 0, len(existing))
	for _, other := range existing {
		os, err1 := schedule.ParseClock(other.StartTime)
		oe, err2 := schedule.ParseClock(other.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		busy = append(busy, schedule.Interval{Start: os, End: oe})
	}
	if check := s.hours.CheckSlot(start, end, busy); !check.Available {
		return apperr.Conflict("Time slot is already booked")
	}
	return nil
}

func transitionAllowed(from, to string) bool {
	for _, status := range allowedTransitions[from] {
		if status == to {
			return true
		}
	}
	return false
}

func price(svc *db.Service, durationHours int) int64 {
	return svc.BasePriceCents + svc.PricePerHourCents*int64(durationHours)
}

func toBookingResponse(b *db.Booking, serviceName string) *entities.BookingResponse {
	return &entities.BookingResponse{
		ID:              b.ID,
		UserID:          b.UserID,
		ServiceID:       b.ServiceID,
		ServiceName:     serviceName,
		BookingDate:     b.BookingDate,
		StartTime:       b.StartTime,
		EndTime:         b.EndTime,
		DurationHours:   b.DurationHours,
		TotalPriceCents: b.TotalPriceCents,
		Status:          b.Status,
		PaymentStatus:   b.PaymentStatus,
		Customer:        entities.CustomerInfo(b.Customer),
		Notes:           b.Notes,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func toBookingResponses(bookings []db.Booking) []entities.BookingResponse {
	out := make([]entities.BookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, *toBookingResponse(&bookings[i], ""))
	}
	return out
}
