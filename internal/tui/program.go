package tui

import (
	"context"
	"errors"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"speechpdf/internal/pipeline"
)

// EventChannel is a pipeline.Display feeding the model's transcript panel.
type EventChannel chan pipeline.Event

// NewEventChannel returns a buffered EventChannel.
func NewEventChannel(size int) EventChannel {
	return make(EventChannel, size)
}

// Show never blocks the pipeline. The transcript itself is kept by the
// session, so a dropped event only affects what is on screen.
func (c EventChannel) Show(e pipeline.Event) {
	select {
	case c <- e:
	default:
		slog.Warn("display full, event dropped", "component", "tui", "event", e.String())
	}
}

// Run starts the program on the alternate screen and blocks until it exits.
// A signal or a cancelled ctx ends the program without an error; the caller
// finishes any session left running.
func Run(ctx context.Context, m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrInterrupted) || errors.Is(err, tea.ErrProgramKilled) {
		slog.Info("ui interrupted", "component", "tui", "err", err)
		return nil
	}
	return err
}
