package extraction

import (
	"context"
	"errors"
)

// Result contains the fields extracted from a boleto document. Every field
// is optional from the service's perspective; a zero value means the field
// was absent and the caller is responsible for substituting defaults.
type Result struct {
	Value   float64 `json:"value"`
	DueDate string  `json:"dueDate"` // YYYY-MM-DD
	Barcode string  `json:"barcode"`
	Issuer  string  `json:"issuer"`
}

// Error kinds for extraction failures. Callers distinguish them with
// errors.Is to pick differentiated recovery (a transport failure is worth
// retrying manually, a malformed response is not).
var (
	// ErrTransport covers network failures and service-side rejections.
	ErrTransport = errors.New("extraction transport failure")

	// ErrMalformedResponse covers responses the service returned but that
	// do not contain a parseable result.
	ErrMalformedResponse = errors.New("malformed extraction response")
)

// Extractor defines the interface for boleto data extraction backends
type Extractor interface {
	// Extract analyzes a boleto PDF/image and returns the structured fields.
	// Cancelling ctx aborts the in-flight call.
	Extract(ctx context.Context, data []byte, contentType string) (*Result, error)
	// Close closes the extractor and releases resources
	Close() error
}
