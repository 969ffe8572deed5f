package alarm

import "time"

// windowBuckets is the resolution of the trailing window.
const windowBuckets = 60

// window counts events over a trailing duration using fixed buckets. The
// oldest bucket drops out as time advances.
type window struct {
	width     time.Duration
	counts    [windowBuckets]int
	head      int
	headStart time.Time
	total     int
}

func newWindow(span time.Duration) *window {
	width := span / windowBuckets
	if width <= 0 {
		width = 1
	}
	return &window{width: width}
}

func (w *window) span() time.Duration {
	return w.width * windowBuckets
}

// advance rotates the ring so that the head bucket contains now. A clock
// that goes backwards leaves the ring alone.
func (w *window) advance(now time.Time) {
	if w.headStart.IsZero() {
		w.headStart = now.Truncate(w.width)
		return
	}
	steps := now.Sub(w.headStart) / w.width
	if steps <= 0 {
		return
	}
	if steps >= windowBuckets {
		w.reset()
		w.headStart = now.Truncate(w.width)
		return
	}
	for i := time.Duration(0); i < steps; i++ {
		w.head = (w.head + 1) % windowBuckets
		w.total -= w.counts[w.head]
		w.counts[w.head] = 0
	}
	w.headStart = w.headStart.Add(steps * w.width)
}

func (w *window) add(now time.Time) {
	w.advance(now)
	w.counts[w.head]++
	w.total++
}

func (w *window) count(now time.Time) int {
	w.advance(now)
	return w.total
}

func (w *window) reset() {
	w.counts = [windowBuckets]int{}
	w.total = 0
}
