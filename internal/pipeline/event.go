package pipeline

import "fmt"

// FailureKind classifies a reported failure.
type FailureKind int

const (
	AuthFailure FailureKind = iota + 1
	TranscriptionFailure
	IOFailure
)

func (k FailureKind) String() string {
	switch k {
	case AuthFailure:
		return "auth"
	case TranscriptionFailure:
		return "transcription"
	case IOFailure:
		return "io"
	}
	return "unknown"
}

// Failure is a handled error. It is reported to the Display and never
// propagated out of the pipeline.
type Failure struct {
	Kind FailureKind
	Op   string
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Op, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// EventKind distinguishes what a Display receives.
type EventKind int

const (
	EventInfo EventKind = iota
	EventFragment
	EventFailure
)

// Event is one line for the user-visible transcript panel.
type Event struct {
	Kind    EventKind
	Text    string
	Failure *Failure
}

func (e Event) String() string {
	if e.Kind == EventFailure && e.Failure != nil {
		return "Error: " + e.Failure.Error()
	}
	return e.Text
}

// Display receives pipeline events. Show may be called from the capture
// goroutine as well as from the caller's goroutine.
type Display interface {
	Show(Event)
}

// DisplayFunc adapts a function to Display.
type DisplayFunc func(Event)

func (f DisplayFunc) Show(e Event) { f(e) }
