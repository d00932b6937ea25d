package event

import (
	"encoding/json"
	"fmt"
)

// Type enumerates the progress events emitted while a council pipeline runs.
type Type string

const (
	Stage1Start    Type = "stage1_start"
	Stage1Complete Type = "stage1_complete"
	Stage2Start    Type = "stage2_start"
	Stage2Complete Type = "stage2_complete"
	Stage3Start    Type = "stage3_start"
	Stage3Complete Type = "stage3_complete"
	TitleComplete  Type = "title_complete"
	Complete       Type = "complete"
	Error          Type = "error"
)

// Event is one entry in the incremental progress protocol. Exactly one of
// Complete or Error terminates every stream. Data and Metadata are
// JSON-serializable stage payloads; Message carries human-readable error text
// and is only set on Error events.
type Event struct {
	Type     Type   `json:"type"`
	Data     any    `json:"data,omitempty"`
	Metadata any    `json:"metadata,omitempty"`
	Message  string `json:"message,omitempty"`
}

// New constructs an event carrying a stage payload.
func New(t Type, data any) Event {
	return Event{Type: t, Data: data}
}

// Errorf constructs a terminal error event.
func Errorf(format string, args ...any) Event {
	return Event{Type: Error, Message: fmt.Sprintf(format, args...)}
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Type == Complete || e.Type == Error
}

// Encode renders the event as its JSON wire form.
func (e Event) Encode() ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("event: marshal %s payload: %w", e.Type, err)
	}
	return body, nil
}
