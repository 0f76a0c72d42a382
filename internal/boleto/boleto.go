package boleto

import (
	"path/filepath"
	"strings"
	"time"

	"boleto-tracker/internal/extraction"
)

// Status is the payment lifecycle state of a boleto
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

// Placeholder texts substituted when extraction could not identify a field
const (
	unknownIssuer  = "Emissor não identificado"
	unknownBarcode = "Código não identificado"
)

// Boleto represents one tracked bill. The JSON tags are the persisted
// storage layout and the API wire format.
type Boleto struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	DueDate   string  `json:"dueDate"` // YYYY-MM-DD
	Barcode   string  `json:"barcode"`
	Issuer    string  `json:"issuer"`
	Status    Status  `json:"status"`
	PDFData   string  `json:"pdfData,omitempty"` // base64 data-URL of the original document
	CreatedAt int64   `json:"createdAt"`         // epoch milliseconds
}

// newBoleto builds a complete, storable record from an extraction result,
// applying a fallback for each field the service left absent:
// name falls back to the issuer, then to the filename without extension;
// issuer and barcode fall back to fixed placeholders; value falls back to
// zero; due date falls back to today.
func newBoleto(result *extraction.Result, filename, pdfData, id string, now time.Time) *Boleto {
	name := result.Issuer
	if name == "" {
		name = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	issuer := result.Issuer
	if issuer == "" {
		issuer = unknownIssuer
	}
	dueDate := result.DueDate
	if dueDate == "" {
		dueDate = now.Format("2006-01-02")
	}
	barcode := result.Barcode
	if barcode == "" {
		barcode = unknownBarcode
	}

	return &Boleto{
		ID:        id,
		Name:      name,
		Value:     result.Value,
		DueDate:   dueDate,
		Barcode:   barcode,
		Issuer:    issuer,
		Status:    StatusPending,
		PDFData:   pdfData,
		CreatedAt: now.UnixMilli(),
	}
}
