package sqlite

import "time"

// StatusChangeRecord represents one applied flight status transition
type StatusChangeRecord struct {
	ID          int64     `json:"id"`
	FlightID    string    `json:"flight_id"`
	Destination string    `json:"destination"`
	VIP         bool      `json:"vip"`
	Status      string    `json:"status"` // waiting, boarding, departed, delayed, cancelled
	Revision    int       `json:"revision"`
	ChangedAt   time.Time `json:"changed_at"`
}
