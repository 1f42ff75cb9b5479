package events

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Type names a progress record in the NDJSON stream.
type Type string

const (
	GenerateStart      Type = "generate-start"
	GenerateSkipped    Type = "generate-skipped"
	GenerateFinished   Type = "generate-finished"
	MatchFound         Type = "match-found"
	InvocationStart    Type = "invocation-start"
	InvocationFinished Type = "invocation-finished"
	InvocationFailed   Type = "invocation-failed"
	InvocationPlanned  Type = "invocation-planned"
	IndexWritten       Type = "index-written"
	SummaryWritten     Type = "summary-written"
)

// Fields holds structured event attributes.
type Fields map[string]interface{}

// Event represents a single NDJSON progress record.
type Event struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message,omitempty"`
	Fields    Fields    `json:"fields,omitempty"`
}

// Emitter writes NDJSON events to an io.Writer. A nil *Emitter discards everything.
type Emitter struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewEmitter returns a new NDJSON emitter.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{writer: w}
}

// Emit serializes the event to JSON and appends a newline.
func (e *Emitter) Emit(evt Event) error {
	if e == nil || e.writer == nil {
		return nil
	}

	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	_, err = e.writer.Write(append(payload, '\n'))
	return err
}

// Send is shorthand for emitting an event built from its parts.
func (e *Emitter) Send(typ Type, message string, fields Fields) error {
	return e.Emit(Event{Type: typ, Message: message, Fields: fields})
}
