package entities

type TimeSlot struct {
	Time          string `json:"time"`
	Available     bool   `json:"available"`
	Reason        string `json:"reason,omitempty"`
	ConflictCount int    `json:"conflict_count,omitempty"`
}

type AvailabilitySummary struct {
	TotalSlots     int `json:"total_slots"`
	AvailableSlots int `json:"available_slots"`
	BookedSlots    int `json:"booked_slots"`
	Percentage     int `json:"percentage"`
}

// AvailabilityResult is the derived slot-by-slot report for one date. It is
// never persisted; its lifetime is the availability cache TTL.
type AvailabilityResult struct {
	Date      string              `json:"date"`
	ServiceID string              `json:"service_id,omitempty"`
	Duration  int                 `json:"duration"`
	Slots     []TimeSlot          `json:"slots"`
	Summary   AvailabilitySummary `json:"summary"`
}

// DateAvailability is one entry of a bulk availability response.
type DateAvailability struct {
	Date      string              `json:"date"`
	Available bool                `json:"available"`
	Reason    string              `json:"reason,omitempty"`
	Slots     []TimeSlot          `json:"slots,omitempty"`
	Summary   AvailabilitySummary `json:"summary"`
}

// BulkPerformance reports how the bulk path resolved each date.
type BulkPerformance struct {
	TotalDates  int   `json:"total_dates"`
	CacheHits   int   `json:"cache_hits"`
	QueryTimeMs int64 `json:"query_time_ms"`
}
