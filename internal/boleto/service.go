package boleto

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"boleto-tracker/internal/extraction"
)

// IDGenerator generates unique IDs for boletos
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles boleto operations
type Service struct {
	store       Store
	extractor   extraction.Extractor
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(store Store, extractor extraction.Extractor) *Service {
	return &Service{
		store:       store,
		extractor:   extractor,
		idGenerator: &uuidGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(store Store, extractor extraction.Extractor, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		store:       store,
		extractor:   extractor,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// ProcessDocument runs the upload flow: extract the fields from the
// document, build a complete record with fallback defaults, and add it to
// the store. No record is created when extraction fails. Cancelling ctx
// (e.g. the client navigated away) aborts the extraction call and drops the
// upload.
func (s *Service) ProcessDocument(ctx context.Context, filename string, data []byte, contentType string) (*Boleto, error) {
	result, err := s.extractor.Extract(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to extract boleto data",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		return nil, fmt.Errorf("extracting boleto data: %w", err)
	}

	// Keep the original document inline for on-demand preview
	pdfData := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))

	b := newBoleto(result, filename, pdfData, s.idGenerator.Generate(), s.timeSource.Now())

	if err := s.store.Add(b); err != nil {
		return nil, fmt.Errorf("saving boleto: %w", err)
	}

	return b, nil
}

// GetBoleto retrieves a boleto by ID
func (s *Service) GetBoleto(id string) (*Boleto, bool) {
	return s.store.Get(id)
}

// ListBoletos returns the boletos matching the filter, newest first
func (s *Service) ListBoletos(filter Filter) []*Boleto {
	return s.store.List(filter)
}

// ToggleStatus flips a boleto between pending and paid, no-op when absent
func (s *Service) ToggleStatus(id string) (*Boleto, error) {
	b, err := s.store.ToggleStatus(id)
	if err != nil {
		return nil, fmt.Errorf("toggling boleto status: %w", err)
	}
	return b, nil
}

// DeleteBoleto removes a boleto, no-op when absent
func (s *Service) DeleteBoleto(id string) error {
	if _, err := s.store.Delete(id); err != nil {
		return fmt.Errorf("deleting boleto: %w", err)
	}
	return nil
}

// TotalPending returns the sum of value over pending boletos
func (s *Service) TotalPending() float64 {
	return s.store.TotalPending()
}
