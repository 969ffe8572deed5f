package messaging

import "relay/internal/message"

// Filter decides whether a listener receives a message.
type Filter func(m *message.Message) bool

// AcceptAll accepts every message.
func AcceptAll(*message.Message) bool { return true }

// OfKind accepts messages of any of the given kinds.
func OfKind(kinds ...message.Kind) Filter {
	set := make(map[message.Kind]struct{}, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	return func(m *message.Message) bool {
		_, ok := set[m.Kind()]
		return ok
	}
}

// AtLeastImportance accepts messages whose kind ranks at or above kind.
func AtLeastImportance(kind message.Kind) Filter {
	threshold := kind.Importance()
	return func(m *message.Message) bool {
		return m.Importance().IsAtLeast(threshold)
	}
}

// WorseThanOrEqualTo accepts messages whose status is at least as bad as s.
func WorseThanOrEqualTo(s message.Status) Filter {
	return func(m *message.Message) bool {
		return m.IsWorseThanOrEqualTo(s)
	}
}

// Failures accepts failure messages.
func Failures(m *message.Message) bool {
	return m.IsFailure()
}

// And accepts a message when every filter accepts it. With no filters it
// accepts everything.
func And(filters ...Filter) Filter {
	switch len(filters) {
	case 0:
		return AcceptAll
	case 1:
		return filters[0]
	}
	return func(m *message.Message) bool {
		for _, f := range filters {
			if !f(m) {
				return false
			}
		}
		return true
	}
}

// Or accepts a message when any filter accepts it.
func Or(filters ...Filter) Filter {
	return func(m *message.Message) bool {
		for _, f := range filters {
			if f(m) {
				return true
			}
		}
		return false
	}
}

// Not inverts f.
func Not(f Filter) Filter {
	return func(m *message.Message) bool {
		return !f(m)
	}
}
