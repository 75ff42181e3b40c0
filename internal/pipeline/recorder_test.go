package pipeline

import "sync"

// recorder is a Display that keeps every event for assertions.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Show(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of everything shown so far.
func (r *recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Failures returns only failure events.
func (r *recorder) Failures() []*Failure {
	var out []*Failure
	for _, e := range r.Events() {
		if e.Kind == EventFailure {
			out = append(out, e.Failure)
		}
	}
	return out
}
