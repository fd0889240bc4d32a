package domain

import "time"

// LinkRecord maps a slug to its destination URL. Records are immutable
// once created: a printed QR code must keep resolving forever.
type LinkRecord struct {
	Slug           string    `json:"slug"`
	DestinationURL string    `json:"destination_url"`
	CreatedAt      time.Time `json:"created_at"`
}

// IssuedLink is what the caller gets back after issuing a link.
type IssuedLink struct {
	Slug           string `json:"slug"`
	DestinationURL string `json:"destination_url"`
	RedirectURL    string `json:"redirect_url"`
	QRImageURL     string `json:"qr_code_url"`
}
