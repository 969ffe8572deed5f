// Package messaging implements the broadcast side of relay: broadcasters,
// listeners and the repeaters that chain them.
//
// # Delivery
//
// A Multicaster owns an insertion-ordered audience of listener/filter pairs.
// Transmit delivers a message synchronously, on the caller's goroutine, to
// every member whose filter accepts it, in registration order. A panicking
// listener does not stop delivery to the rest of the audience: the panic is
// recovered and reported to the fallback listener as a Problem. Panics whose
// value satisfies ShouldPropagate escape Transmit unchanged.
//
// A message transmitted by a broadcaster without listeners goes to the
// process-wide fallback listener (see SetFallback). In strict mode (see
// SetStrict) it panics with an *UnterminatedChainError instead.
//
// # Repeaters
//
// A Repeater is a Listener and a Broadcaster at once. BaseRepeater re-transmits
// every message it receives to its own audience, which lets components form
// chains ending in a terminal sink:
//
//	a := messaging.NewMulticaster("a")
//	b := messaging.NewRepeater("b")
//	a.AddListener(b)
//	b.AddListener(sink)
//
// # Locking
//
// Each Multicaster has its own sync.RWMutex. Transmit takes the read lock to
// snapshot the audience; AddListener, RemoveListener, ClearListeners and
// Silence take the write lock. Listeners run outside the lock, so a listener
// may modify the audience of the broadcaster that is calling it.
package messaging
