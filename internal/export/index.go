package export

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// FileName returns the PDF file name for index n.
func FileName(prefix string, n int) string {
	return fmt.Sprintf("%s_%d.pdf", prefix, n)
}

// NextIndex scans dir for "<prefix>_<N>.pdf" files and returns the largest N
// plus one, or 1 when there are none. Names whose N is not a number are
// ignored. A missing directory counts as empty.
func NextIndex(dir, prefix string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 1, nil
		}
		return 0, err
	}
	head := prefix + "_"
	highest := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, head) || !strings.HasSuffix(name, ".pdf") {
			continue
		}
		rest := name[len(head):]
		if i := strings.IndexAny(rest, "_."); i >= 0 {
			rest = rest[:i]
		}
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 {
			continue
		}
		highest = max(highest, n)
	}
	return highest + 1, nil
}
