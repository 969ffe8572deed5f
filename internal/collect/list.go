package collect

import (
	"sort"
	"sync"

	"relay/internal/message"
	"relay/internal/messaging"
)

// List keeps the messages its filter accepts, in arrival order, up to an
// optional capacity. It is safe for concurrent use.
type List struct {
	mu       sync.Mutex
	filter   messaging.Filter
	items    []*message.Message
	capacity int // 0 = без лимита
	dropped  int
}

// NewList creates a list holding at most capacity messages (0 for no limit)
// that accepts what every filter accepts.
func NewList(capacity int, filters ...messaging.Filter) *List {
	if capacity < 0 {
		capacity = 0
	}
	return &List{
		filter:   messaging.And(filters...),
		capacity: capacity,
	}
}

// OnMessage adds m when the filter accepts it.
func (l *List) OnMessage(m *message.Message) {
	if m == nil || !l.filter(m) {
		return
	}
	l.Add(m)
}

// Add appends m, ignoring the filter. It returns false when the list is full
// and m was dropped.
func (l *List) Add(m *message.Message) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.capacity > 0 && len(l.items) >= l.capacity {
		l.dropped++
		return false
	}
	l.items = append(l.items, m)
	return true
}

// Messages returns a copy of the kept messages.
func (l *List) Messages() []*message.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*message.Message, len(l.items))
	copy(out, l.items)
	return out
}

func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Cap returns the capacity, 0 when unbounded.
func (l *List) Cap() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.capacity
}

// Dropped returns how many accepted messages did not fit.
func (l *List) Dropped() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

func (l *List) Count(kind message.Kind) int {
	return l.countWhere(func(m *message.Message) bool { return m.Kind() == kind })
}

// CountStatus returns how many messages have status s.
func (l *List) CountStatus(s message.Status) int {
	return l.countWhere(func(m *message.Message) bool { return m.Status() == s })
}

func (l *List) CountWorseThanOrEqualTo(s message.Status) int {
	return l.countWhere(func(m *message.Message) bool { return m.IsWorseThanOrEqualTo(s) })
}

func (l *List) countWhere(pred func(*message.Message) bool) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, m := range l.items {
		if pred(m) {
			n++
		}
	}
	return n
}

// Counts returns the number of messages per kind.
func (l *List) Counts() map[message.Kind]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[message.Kind]int)
	for _, m := range l.items {
		out[m.Kind()]++
	}
	return out
}

func (l *List) Failed() bool {
	return l.firstFailure() != nil
}

func (l *List) Succeeded() bool {
	return !l.Failed() && l.CountWorseThanOrEqualTo(message.StatusResultCompromised) == 0
}

func (l *List) IfFailedError() error {
	first := l.firstFailure()
	if first == nil {
		return nil
	}
	return &FailureError{
		Failures: l.countWhere((*message.Message).IsFailure),
		First:    first,
	}
}

func (l *List) firstFailure() *message.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.items {
		if m.IsFailure() {
			return m
		}
	}
	return nil
}

// Matching returns the messages f accepts.
func (l *List) Matching(f messaging.Filter) []*message.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*message.Message
	for _, m := range l.items {
		if f(m) {
			out = append(out, m)
		}
	}
	return out
}

// Sort orders messages by importance (most important first), then by
// creation time.
func (l *List) Sort() {
	l.mu.Lock()
	defer l.mu.Unlock()
	sort.SliceStable(l.items, func(i, j int) bool {
		mi, mj := l.items[i], l.items[j]
		// сначала по важности (по убыванию)
		if mi.Importance() != mj.Importance() {
			return mi.Importance() > mj.Importance()
		}
		// затем по времени создания
		return mi.Created().Before(mj.Created())
	})
}

type dedupKey struct {
	kind message.Kind
	text string
}

// Dedup drops messages repeating an earlier kind and formatted text.
func (l *List) Dedup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	seen := make(map[dedupKey]struct{}, len(l.items))
	kept := make([]*message.Message, 0, len(l.items))
	for _, m := range l.items {
		key := dedupKey{kind: m.Kind(), text: m.Formatted()}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, m)
	}
	l.items = kept
}

// Merge appends the messages of other. The capacity grows if needed to hold
// all of them.
func (l *List) Merge(other *List) {
	if other == nil || other == l {
		return
	}
	incoming := other.Messages()

	l.mu.Lock()
	defer l.mu.Unlock()
	if total := len(l.items) + len(incoming); l.capacity > 0 && total > l.capacity {
		l.capacity = total
	}
	l.items = append(l.items, incoming...)
}

// Clear removes all messages and resets the drop count.
func (l *List) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
	l.dropped = 0
}
