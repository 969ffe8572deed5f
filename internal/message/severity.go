package message

import (
	"fmt"
	"strconv"
	"strings"
)

// Severity defines how serious a message is, on a continuous 0..1 scale.
type Severity float64

const (
	SeverityNone     Severity = 0.0
	SeverityLow      Severity = 0.25
	SeverityMedium   Severity = 0.5
	SeverityHigh     Severity = 0.75
	SeverityCritical Severity = 1.0
)

// IsGreaterThan reports whether s is strictly more severe than other.
func (s Severity) IsGreaterThan(other Severity) bool {
	return s > other
}

// IsGreaterThanOrEqualTo reports whether s is at least as severe as other.
func (s Severity) IsGreaterThanOrEqualTo(other Severity) bool {
	return s >= other
}

// String returns the name of the nearest bucket at or below s.
func (s Severity) String() string {
	switch {
	case s >= SeverityCritical:
		return "Critical"
	case s >= SeverityHigh:
		return "High"
	case s >= SeverityMedium:
		return "Medium"
	case s > SeverityNone:
		return "Low"
	default:
		return "None"
	}
}

// ParseSeverity accepts a bucket name or a number in [0,1].
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return SeverityNone, nil
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	case "critical":
		return SeverityCritical, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 || v > 1 {
		return SeverityNone, fmt.Errorf("invalid severity: %q (expected: none|low|medium|high|critical or 0..1)", s)
	}
	return Severity(v), nil
}

// Importance ranks message kinds relative to each other, 0 (least) to 1 (most).
// Unlike Severity it belongs to the kind, not to an individual message.
type Importance float64

// IsMoreImportantThan reports whether i ranks strictly above other.
func (i Importance) IsMoreImportantThan(other Importance) bool {
	return i > other
}

// IsAtLeast reports whether i ranks at or above other.
func (i Importance) IsAtLeast(other Importance) bool {
	return i >= other
}

// Between returns the arithmetic midpoint of a and b.
func Between(a, b Importance) Importance {
	return (a + b) / 2
}

func (i Importance) String() string {
	return strconv.FormatFloat(float64(i), 'f', 3, 64)
}
