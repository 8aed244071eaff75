package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"content-tracker/internal/apperrors"
)

const EventVideoFound = "video.found"

// Event is the envelope that crosses the broker. The event name doubles as the topic.
type Event struct {
	EventID   uuid.UUID       `json:"event_id"`
	Timestamp time.Time       `json:"timestamp"`
	EventName string          `json:"event_name"`
	Payload   json.RawMessage `json:"payload"`
}

func NewVideoFoundEvent(content DiscoveredContent) (Event, error) {
	payload, err := json.Marshal(content)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return Event{
		EventID:   uuid.New(),
		Timestamp: time.Now().UTC(),
		EventName: EventVideoFound,
		Payload:   payload,
	}, nil
}

func (e Event) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	return data, nil
}

// Content decodes and validates the video.found payload.
func (e Event) Content() (DiscoveredContent, error) {
	if e.EventName != EventVideoFound {
		return DiscoveredContent{}, fmt.Errorf("%w: unexpected event name %q", apperrors.ErrMalformedEvent, e.EventName)
	}

	var content DiscoveredContent
	if err := json.Unmarshal(e.Payload, &content); err != nil {
		return DiscoveredContent{}, fmt.Errorf("%w: payload: %w", apperrors.ErrMalformedEvent, err)
	}

	if err := content.Validate(); err != nil {
		return DiscoveredContent{}, err
	}

	return content, nil
}

func (e Event) Validate() error {
	if e.EventID == uuid.Nil {
		return fmt.Errorf("%w: event_id is empty", apperrors.ErrMalformedEvent)
	}

	if e.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is empty", apperrors.ErrMalformedEvent)
	}

	if e.EventName == "" {
		return fmt.Errorf("%w: event_name is empty", apperrors.ErrMalformedEvent)
	}

	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return fmt.Errorf("%w: payload is empty", apperrors.ErrMalformedEvent)
	}

	return nil
}

// DecodeEvent parses raw broker bytes into an envelope. Every failure wraps ErrMalformedEvent.
func DecodeEvent(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("%w: %w", apperrors.ErrMalformedEvent, err)
	}

	if err := e.Validate(); err != nil {
		return Event{}, err
	}

	return e, nil
}
