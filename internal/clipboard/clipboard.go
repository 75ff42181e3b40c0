package clipboard

import (
	"errors"
	"strings"

	"github.com/atotto/clipboard"
)

var (
	ErrEmpty       = errors.New("nothing to copy")
	ErrUnsupported = errors.New("clipboard not available on this system")
)

// CopyText places text on the system clipboard.
func CopyText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmpty
	}
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	return clipboard.WriteAll(text)
}
