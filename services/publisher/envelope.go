package publisher

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sjsage522/bestpick/internal/extractor"
)

// Envelope wraps a result message on its way to the presenter
type Envelope struct {
	ID          string            `json:"id"`
	Source      string            `json:"source"`
	Products    int               `json:"products"`
	ExtractedAt time.Time         `json:"extracted_at"`
	Message     extractor.Message `json:"message"`
}

// NewEnvelope wraps the winners picked from the page at source
func NewEnvelope(source string, set extractor.WinnerSet, extractedAt time.Time) Envelope {
	return Envelope{
		ID:          uuid.NewString(),
		Source:      source,
		Products:    set.Products,
		ExtractedAt: extractedAt.UTC(),
		Message:     set.Message(),
	}
}

// Encode returns the JSON form of the envelope
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelope parses a published payload
func DecodeEnvelope(payload []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if env.ID == "" {
		return Envelope{}, fmt.Errorf("envelope has no id")
	}
	return env, nil
}
