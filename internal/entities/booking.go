package entities

import "time"

type CustomerInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type CreateBookingRequest struct {
	ServiceID     string       `json:"service_id"`
	BookingDate   string       `json:"booking_date"`
	StartTime     string       `json:"start_time"`
	DurationHours int          `json:"duration_hours"`
	Customer      CustomerInfo `json:"customer_info"`
	Notes         string       `json:"notes"`
}

// UpdateBookingRequest carries only the fields a caller wants to change.
// Nil means "leave as is".
type UpdateBookingRequest struct {
	BookingDate   *string       `json:"booking_date,omitempty"`
	StartTime     *string       `json:"start_time,omitempty"`
	DurationHours *int          `json:"duration_hours,omitempty"`
	Status        *string       `json:"status,omitempty"`
	Customer      *CustomerInfo `json:"customer_info,omitempty"`
	Notes         *string       `json:"notes,omitempty"`
}

type BookingResponse struct {
	ID              string       `json:"id"`
	UserID          string       `json:"user_id"`
	ServiceID       string       `json:"service_id"`
	ServiceName     string       `json:"service_name,omitempty"`
	BookingDate     string       `json:"booking_date"`
	StartTime       string       `json:"start_time"`
	EndTime         string       `json:"end_time"`
	DurationHours   int          `json:"duration_hours"`
	TotalPriceCents int64        `json:"total_price_cents"`
	Status          string       `json:"status"`
	PaymentStatus   string       `json:"payment_status"`
	Customer        CustomerInfo `json:"customer_info"`
	Notes           string       `json:"notes,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

type ServiceResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	BasePriceCents    int64  `json:"base_price_cents"`
	PricePerHourCents int64  `json:"price_per_hour_cents"`
	Active            bool   `json:"active"`
}

type PaymentIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	AmountCents     int64  `json:"amount"`
	Currency        string `json:"currency"`
}
