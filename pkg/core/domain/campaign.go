package domain

import "time"

// Campaign groups issued links, e.g. all QR codes printed for one
// poster run. Campaigns are bookkeeping only; resolution never touches
// them.
type Campaign struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"created_at"`
	Links       []LinkRecord `json:"links,omitempty"` // Populated when fetching full campaign details
}
