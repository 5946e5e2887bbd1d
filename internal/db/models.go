package db

import "time"

// Booking statuses. completed and cancelled are terminal.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Payment statuses mirrored from the processor.
const (
	PaymentPending    = "pending"
	PaymentProcessing = "processing"
	PaymentPaid       = "paid"
	PaymentFailed     = "failed"
	PaymentRefunded   = "refunded"
)

type Service struct {
	ID                string
	Name              string
	Description       string
	BasePriceCents    int64
	PricePerHourCents int64
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type CustomerInfo struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

type Booking struct {
	ID              string
	UserID          string
	ServiceID       string
	BookingDate     string // "2006-01-02"
	StartTime       string // "15:04" wall clock, no timezone
	EndTime         string
	DurationHours   int
	TotalPriceCents int64
	Status          string
	PaymentStatus   string
	PaymentIntentID string
	Customer        CustomerInfo
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Payment struct {
	ID          string
	BookingID   string
	IntentID    string
	AmountCents int64
	Currency    string
	Status      string
	CreatedAt   time.Time
}
