package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// parseResultJSON parses the JSON object returned by the model. Fields are
// passed through as received; the only transformation is normalizing the due
// date to ISO form when the model used a recognizable alternate format.
// Defaulting of absent fields belongs to the record builder, not here.
func parseResultJSON(text string) (*Result, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Extract the JSON object boundaries in case the model wrapped it in prose
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("%w: invalid JSON object", ErrMalformedResponse)
	}
	text = text[startIdx : endIdx+1]

	var result Result
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling json: %v", ErrMalformedResponse, err)
	}

	result.DueDate = normalizeDate(result.DueDate)
	result.Issuer = strings.TrimSpace(result.Issuer)
	result.Barcode = strings.TrimSpace(result.Barcode)

	return &result, nil
}

// normalizeDate converts alternate date formats to YYYY-MM-DD. Unparseable
// or empty dates come back unchanged so the builder applies its default.
// DD/MM/YYYY is tried before MM/DD/YYYY because boletos are Brazilian.
func normalizeDate(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return date
	}
	if d, err := time.Parse("2006-01-02", date); err == nil {
		return d.Format("2006-01-02")
	}
	formats := []string{
		"02/01/2006",
		"2006/01/02",
		"02-01-2006",
		"01/02/2006",
	}
	for _, format := range formats {
		if d, err := time.Parse(format, date); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return date
}
