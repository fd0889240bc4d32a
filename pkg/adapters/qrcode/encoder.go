package qrcode

import (
	qr "github.com/skip2/go-qrcode"

	"github.com/wadjakorntonsri/go-qr-link/pkg/ports"
)

// defaultSize is the PNG edge length in pixels. 256 scans reliably from
// print at typical poster sizes.
const defaultSize = 256

// Encoder renders text payloads as QR PNGs.
type Encoder struct {
	size int
}

func NewEncoder() *Encoder {
	return &Encoder{size: defaultSize}
}

func (e *Encoder) Encode(text string) ([]byte, error) {
	return qr.Encode(text, qr.Medium, e.size)
}

// Ensure interface compliance
var _ ports.QREncoder = (*Encoder)(nil)
