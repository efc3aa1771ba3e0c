package framing

// Slot is a single-buffered, latest-value handoff between a decoder and
// its consumer. It is not a queue: a second Put before Consume overwrites
// the first value.
type Slot[T any] struct {
	value T
	ready bool
}

// Put stores v and marks the slot ready.
func (s *Slot[T]) Put(v T) {
	s.value = v
	s.ready = true
}

// Ready reports whether a value was stored since the last Consume.
func (s *Slot[T]) Ready() bool { return s.ready }

// Consume clears the ready flag. The stored value is kept.
func (s *Slot[T]) Consume() { s.ready = false }

// Get returns the last stored value, whether or not it was consumed.
func (s *Slot[T]) Get() T { return s.value }
