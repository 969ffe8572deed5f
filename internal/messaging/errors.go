package messaging

import (
	"errors"
	"fmt"
	"strings"

	"relay/internal/message"
)

// PropagatingError marks a listener panic that must escape Transmit instead
// of being reported to the fallback listener. Listeners raise it with
// panic(messaging.Propagate(err)).
type PropagatingError struct {
	Err error
}

// Propagate wraps err in the propagation marker.
func Propagate(err error) *PropagatingError {
	return &PropagatingError{Err: err}
}

func (e *PropagatingError) Error() string {
	if e.Err == nil {
		return "propagated listener failure"
	}
	return e.Err.Error()
}

func (e *PropagatingError) Unwrap() error {
	return e.Err
}

// UnterminatedChainError is raised in strict mode when a message reaches a
// broadcaster without listeners.
type UnterminatedChainError struct {
	// Chain lists the broadcaster that had no listeners followed by its
	// upstream sources.
	Chain   []string
	Message *message.Message
}

func (e *UnterminatedChainError) Error() string {
	return fmt.Sprintf("unterminated broadcast chain %s dropped %s",
		strings.Join(e.Chain, " <- "), e.Message)
}

// ShouldPropagate reports whether a recovered panic value must be re-panicked
// by the delivery loop.
func ShouldPropagate(v any) bool {
	err, ok := v.(error)
	if !ok {
		return false
	}
	var p *PropagatingError
	if errors.As(err, &p) {
		return true
	}
	var u *UnterminatedChainError
	return errors.As(err, &u)
}
