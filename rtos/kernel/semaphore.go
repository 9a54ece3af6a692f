package kernel

// Semaphore is a binary semaphore. Give may be called from interrupt-style
// workers.
type Semaphore struct {
	ch chan struct{}
}

// NewBinarySemaphore creates a semaphore, optionally already given.
func NewBinarySemaphore(given bool) *Semaphore {
	s := &Semaphore{ch: make(chan struct{}, 1)}
	if given {
		s.ch <- struct{}{}
	}
	return s
}

// Wait takes the semaphore, or returns false once done is closed.
func (s *Semaphore) Wait(done <-chan struct{}) bool {
	select {
	case <-s.ch:
		return true
	case <-done:
		return false
	}
}

// Give releases the semaphore. It reports false when it was already given.
func (s *Semaphore) Give() bool {
	select {
	case s.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// GiveFromISR is Give for interrupt context: it never blocks.
func (s *Semaphore) GiveFromISR() bool {
	return s.Give()
}
