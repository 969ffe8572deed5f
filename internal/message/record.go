package message

import (
	"errors"
	"fmt"
	"time"
)

// Record is a flat, serialisable snapshot of a formatted message.
type Record struct {
	Kind     string    `json:"kind" msgpack:"kind"`
	Text     string    `json:"text" msgpack:"text"`
	Created  time.Time `json:"created" msgpack:"created"`
	Severity Severity  `json:"severity" msgpack:"severity"`
	Status   string    `json:"status,omitempty" msgpack:"status,omitempty"`
	Origin   string    `json:"origin,omitempty" msgpack:"origin,omitempty"`
	Cause    string    `json:"cause,omitempty" msgpack:"cause,omitempty"`
	Stack    string    `json:"stack,omitempty" msgpack:"stack,omitempty"`
}

// Record snapshots m. The text is the formatted text.
func (m *Message) Record() Record {
	r := Record{
		Kind:     m.kind.String(),
		Text:     m.Formatted(),
		Created:  m.created,
		Severity: m.Severity(),
		Origin:   m.Origin(),
		Stack:    m.StackTrace(),
	}
	if m.Status() != StatusNotApplicable {
		r.Status = m.Status().String()
	} else if m.OperationStatus() != OperationStatusNotApplicable {
		r.Status = m.OperationStatus().String()
	}
	if m.cause != nil {
		r.Cause = m.cause.Error()
	}
	return r
}

// FromRecord rebuilds a message from a snapshot. The rebuilt message has no
// arguments, keeps the recorded creation time and is already stamped with
// the recorded origin.
func FromRecord(r Record) (*Message, error) {
	kind, err := ParseKind(r.Kind)
	if err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}
	m := &Message{
		kind:    kind,
		text:    r.Text,
		created: r.Created,
		stamped: true,
		origin:  r.Origin,
	}
	if r.Cause != "" {
		m.cause = errors.New(r.Cause)
	}
	return m, nil
}
