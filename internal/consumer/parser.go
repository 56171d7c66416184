package consumer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
	"github.com/ebfarnell/podcastflow-pro-sub012/internal/dto"
)

var errMissingFields = errors.New("message body carries no event fields")

// JSONEventParser implements MessageParser for JSON-formatted event messages
type JSONEventParser struct{}

// NewJSONEventParser creates a new JSON event parser
func NewJSONEventParser() *JSONEventParser {
	return &JSONEventParser{}
}

// Parse decodes a message body published by the SQS client. Field validation
// is left to the pipeline so rejections are counted in one place.
func (p *JSONEventParser) Parse(body []byte) (*domain.AnalyticsEvent, error) {
	var req dto.IngestEventRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message body: %w", err)
	}
	if req.EventType == "" && req.EntityID == "" && req.TenantID == "" {
		return nil, errMissingFields
	}

	return req.ToEvent(), nil
}
