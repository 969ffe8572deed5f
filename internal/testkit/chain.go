package testkit

import (
	"fmt"

	"go.uber.org/multierr"

	"relay/internal/messaging"
)

// CheckChain walks the audience graph below root and reports wiring that
// would lose or loop messages:
// 1) a repeating broadcaster without listeners ends the chain
// 2) a broadcaster reachable from itself forms a cycle
func CheckChain(root messaging.Broadcaster) error {
	if root == nil {
		return fmt.Errorf("nil broadcaster")
	}
	var errs error
	onPath := make(map[messaging.Broadcaster]bool)
	done := make(map[messaging.Broadcaster]bool)

	var walk func(b messaging.Broadcaster, path string)
	walk = func(b messaging.Broadcaster, path string) {
		if onPath[b] {
			errs = multierr.Append(errs, fmt.Errorf("cycle: %s -> %s", path, b.Name()))
			return
		}
		if done[b] {
			return
		}
		onPath[b] = true
		defer func() {
			onPath[b] = false
			done[b] = true
		}()

		if path == "" {
			path = b.Name()
		} else {
			path += " -> " + b.Name()
		}

		// 1) repeater at the end of the chain
		listeners := b.Listeners()
		if len(listeners) == 0 {
			if t, ok := b.(interface{ Terminates() bool }); ok && t.Terminates() {
				return
			}
			if r, ok := b.(interface{ IsRepeating() bool }); ok && r.IsRepeating() {
				errs = multierr.Append(errs, fmt.Errorf("unterminated chain: %s", path))
			}
			return
		}
		// 2) descend
		for _, l := range listeners {
			if next, ok := l.(messaging.Broadcaster); ok {
				walk(next, path)
			}
		}
	}
	walk(root, "")
	return errs
}
