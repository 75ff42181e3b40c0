package notify

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

// Notifier shows desktop notifications when enabled.
type Notifier struct {
	enabled bool
	send    func(title, message, appIcon string) error
}

// New returns a Notifier backed by beeep.
func New(enabled bool) *Notifier {
	return &Notifier{enabled: enabled, send: beeep.Notify}
}

// Notify shows a notification. Errors are logged and otherwise ignored.
func (n *Notifier) Notify(title, message string) {
	if n == nil || !n.enabled {
		return
	}
	if err := n.send(title, message, ""); err != nil {
		slog.Debug("notification failed", "component", "notify", "err", err)
	}
}
