package domain

import "time"

// ScanEvent is one resolution attempt against a slug. The scan log is
// append-only; ordering by ID is insertion order.
type ScanEvent struct {
	ID            int64     `json:"id"`
	Slug          string    `json:"slug"`
	SourceAddress string    `json:"source_address"`
	ScannedAt     time.Time `json:"scanned_at"`
}
