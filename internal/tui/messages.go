package tui

import (
	"time"

	"speechpdf/internal/pipeline"
	"speechpdf/internal/record"
)

// TokenMsg carries the result of the startup token fetch.
type TokenMsg struct {
	Token string
	Err   error
}

// DevicesMsg carries the list of input devices.
type DevicesMsg struct {
	Devices []record.Device
	Err     error
}

// EventMsg wraps one pipeline event for the transcript panel.
type EventMsg struct {
	Event pipeline.Event
}

// TickMsg drives the once-a-second transcription tick.
type TickMsg time.Time

// StartedMsg is sent after a start request.
type StartedMsg struct {
	Err error
}

// StoppedMsg is sent when the drain and export have finished.
type StoppedMsg struct {
	Result pipeline.Result
	Err    error
}

// CopiedMsg is sent after a clipboard copy.
type CopiedMsg struct {
	Err error
}

type tickDoneMsg struct{}
