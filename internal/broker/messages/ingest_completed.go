package messages

import "time"

// IngestCompleted is published to the shipments.ingested topic after every
// successful CSV ingestion run. Consumers use it to re-warm read caches.
type IngestCompleted struct {
	Path        string    `json:"path"`
	Processed   int       `json:"processed"`
	Skipped     int       `json:"skipped"`
	CompletedAt time.Time `json:"completed_at"`
}
