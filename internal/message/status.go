package message

import (
	"fmt"
	"strings"
)

// Status classifies the outcome of a step. Constants are declared from best
// to worst and comparisons use the ordinal, so do not reorder them.
type Status uint8

const (
	StatusNotApplicable Status = iota
	StatusSucceeded
	StatusCompleted
	StatusResultCompromised
	StatusResultIncomplete
	StatusProblem
	StatusFailed
)

var statusNames = [...]string{
	StatusNotApplicable:     "NOT_APPLICABLE",
	StatusSucceeded:         "SUCCEEDED",
	StatusCompleted:         "COMPLETED",
	StatusResultCompromised: "RESULT_COMPROMISED",
	StatusResultIncomplete:  "RESULT_INCOMPLETE",
	StatusProblem:           "PROBLEM",
	StatusFailed:            "FAILED",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "UNKNOWN"
}

// IsWorseThan reports whether s ranks strictly below other.
func (s Status) IsWorseThan(other Status) bool {
	return s > other
}

// IsWorseThanOrEqualTo reports whether s ranks at or below other.
func (s Status) IsWorseThanOrEqualTo(other Status) bool {
	return s >= other
}

// IsBetterThan reports whether s ranks strictly above other.
func (s Status) IsBetterThan(other Status) bool {
	return s < other
}

// Succeeded is true for statuses better than ResultCompromised, excluding NotApplicable.
func (s Status) Succeeded() bool {
	return s == StatusSucceeded || s == StatusCompleted
}

// Failed is true for Problem and Failed.
func (s Status) Failed() bool {
	return s.IsWorseThanOrEqualTo(StatusProblem)
}

// ParseStatus converts a status name (any case, '-' or '_' separated) to a Status.
func ParseStatus(s string) (Status, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for i, name := range statusNames {
		if name == norm {
			return Status(i), nil
		}
	}
	return StatusNotApplicable, fmt.Errorf("invalid status: %q", s)
}

// OperationStatus classifies where an operation is in its lifecycle.
type OperationStatus uint8

const (
	OperationStatusNotApplicable OperationStatus = iota
	OperationStatusStarted
	OperationStatusRunning
	OperationStatusSucceeded
	OperationStatusFailed
	OperationStatusHalted
)

func (s OperationStatus) String() string {
	switch s {
	case OperationStatusNotApplicable:
		return "NOT_APPLICABLE"
	case OperationStatusStarted:
		return "STARTED"
	case OperationStatusRunning:
		return "RUNNING"
	case OperationStatusSucceeded:
		return "SUCCEEDED"
	case OperationStatusFailed:
		return "FAILED"
	case OperationStatusHalted:
		return "HALTED"
	}
	return "UNKNOWN"
}

// IsTerminal is true once an operation can no longer change state.
func (s OperationStatus) IsTerminal() bool {
	return s == OperationStatusSucceeded || s == OperationStatusFailed || s == OperationStatusHalted
}
