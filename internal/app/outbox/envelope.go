package outbox

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	SpecVersion        = "1.0"
	CloudEventsContent = "application/cloudevents+json"
	typeVersionSuffix  = ".v1"
)

var ErrInvalidEnvelope = errors.New("outbox: invalid cloudevents envelope")

// Envelope is the CloudEvents structured-mode wrapper put on the wire.
type Envelope struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Subject         string          `json:"subject,omitempty"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	TraceParent     string          `json:"traceparent,omitempty"`
	Data            json.RawMessage `json:"data"`
}

// NewEnvelope wraps rec. The envelope id is the outbox record id so that
// consumers can dedupe redeliveries.
func NewEnvelope(rec EventRecord, source string) (Envelope, error) {
	if !json.Valid(rec.Payload) {
		return Envelope{}, ErrInvalidEnvelope
	}
	return Envelope{
		SpecVersion:     SpecVersion,
		ID:              rec.ID,
		Type:            rec.Name + typeVersionSuffix,
		Source:          source,
		Subject:         rec.Aggregate,
		Time:            rec.OccurredAt,
		DataContentType: "application/json",
		TraceParent:     rec.Headers["traceparent"],
		Data:            json.RawMessage(rec.Payload),
	}, nil
}

func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, errors.Join(ErrInvalidEnvelope, err)
	}
	if env.ID == "" || env.Type == "" {
		return Envelope{}, ErrInvalidEnvelope
	}
	return env, nil
}

// EventName strips the version suffix from Type.
func (e Envelope) EventName() string {
	return strings.TrimSuffix(e.Type, typeVersionSuffix)
}

// TopicFor maps "booking.created" to "<prefix>booking.events.v1".
func TopicFor(prefix, eventName string) string {
	base := eventName
	if idx := strings.IndexRune(eventName, '.'); idx > 0 {
		base = eventName[:idx]
	}
	return prefix + base + ".events" + typeVersionSuffix
}
