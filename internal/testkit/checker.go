// Package testkit holds listeners for tests: Checker verifies which messages
// a piece of code emits, Thrower turns unexpected failures into test
// failures, and CheckChain validates broadcast wiring.
package testkit

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"

	"relay/internal/message"
	"relay/internal/messaging"
)

// MismatchError reports a kind whose count differs from its expectation.
type MismatchError struct {
	Kind       message.Kind
	Expected   int
	Got        int
	Unexpected bool // no expectation was registered for Kind
}

func (e *MismatchError) Error() string {
	if e.Unexpected {
		return fmt.Sprintf("unexpected %s: got %d", e.Kind, e.Got)
	}
	return fmt.Sprintf("expected %d %s, got %d", e.Expected, e.Kind, e.Got)
}

// Checker is a repeater that counts messages by kind and compares them with
// registered expectations.
type Checker struct {
	*messaging.BaseRepeater

	mu       sync.Mutex
	expected map[message.Kind]int
	got      map[message.Kind]int
}

// NewChecker creates a checker named name.
func NewChecker(name string) *Checker {
	c := &Checker{
		BaseRepeater: messaging.NewRepeater(name),
		expected:     make(map[message.Kind]int),
		got:          make(map[message.Kind]int),
	}
	c.Handle(c.count)
	return c
}

// Expect registers that exactly n messages of kind must arrive. A later call
// for the same kind replaces the earlier one.
func (c *Checker) Expect(kind message.Kind, n int) *Checker {
	c.mu.Lock()
	c.expected[kind] = n
	c.mu.Unlock()
	return c
}

// count counts m and repeats it when the checker has listeners.
func (c *Checker) count(m *message.Message) {
	c.mu.Lock()
	c.got[m.Kind()]++
	c.mu.Unlock()
	if c.HasListeners() {
		c.Repeat(m)
	}
}

// Terminates reports that a checker may end a chain.
func (c *Checker) Terminates() bool { return true }

// Received returns how many messages of kind arrived since the last Check.
func (c *Checker) Received(kind message.Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.got[kind]
}

// Check resets the counts, runs fn and reports every expectation that was
// not met and every kind that arrived without an expectation. Errors are
// *MismatchError values combined with multierr, ordered by kind importance.
func (c *Checker) Check(fn func()) error {
	c.mu.Lock()
	clear(c.got)
	c.mu.Unlock()

	fn()

	c.mu.Lock()
	defer c.mu.Unlock()

	kinds := make([]message.Kind, 0, len(c.expected)+len(c.got))
	for k := range c.expected {
		kinds = append(kinds, k)
	}
	for k := range c.got {
		if _, ok := c.expected[k]; !ok {
			kinds = append(kinds, k)
		}
	}
	sort.Slice(kinds, func(i, j int) bool {
		if kinds[i].Importance() != kinds[j].Importance() {
			return kinds[i].Importance() < kinds[j].Importance()
		}
		return kinds[i] < kinds[j]
	})

	var err error
	for _, k := range kinds {
		want, expected := c.expected[k]
		got := c.got[k]
		switch {
		case !expected:
			err = multierr.Append(err, &MismatchError{Kind: k, Got: got, Unexpected: true})
		case got != want:
			err = multierr.Append(err, &MismatchError{Kind: k, Expected: want, Got: got})
		}
	}
	return err
}
