package clipboard

import (
	"errors"
	"testing"
)

func TestCopyTextEmpty(t *testing.T) {
	for _, s := range []string{"", "  \n\t"} {
		if err := CopyText(s); !errors.Is(err, ErrEmpty) {
			t.Fatalf("CopyText(%q) = %v, want ErrEmpty", s, err)
		}
	}
}
