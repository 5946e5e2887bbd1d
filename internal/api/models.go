package api

// Bulk availability
type BulkAvailabilityRequest struct {
	Dates     []string `json:"dates"`
	ServiceID string   `json:"serviceId"`
	Duration  int      `json:"duration"`
}

// Payments
type CreateIntentRequest struct {
	BookingID string `json:"bookingId"`
}
