package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rsc.io/pdf"
)

// monospace measures every rune as 6pt wide.
func monospace(s string) float64 {
	return 6 * float64(utf8.RuneCountInString(s))
}

var a4 = Geometry{Width: 595.28, Height: 841.89, Margin: 40, LineHeight: 15}

func TestNextIndex(t *testing.T) {
	dir := t.TempDir()
	n, err := NextIndex(dir, "Выступление")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for _, name := range []string{"Выступление_1.pdf", "Выступление_3.pdf", "Выступление_x.pdf", "Другое_9.pdf", "Выступление_7.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	n, err = NextIndex(dir, "Выступление")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = NextIndex(filepath.Join(dir, "missing"), "Выступление")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLayoutNeverExceedsUsableWidth(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet consectetur adipiscing elit ", 40)
	pages := Layout(text, monospace, a4)
	require.NotEmpty(t, pages)
	for _, p := range pages {
		for _, l := range p.Lines {
			assert.LessOrEqual(t, monospace(l.Text), a4.Usable(), l.Text)
			assert.Equal(t, a4.Margin, l.X)
		}
	}
}

func TestLayoutPacksGreedily(t *testing.T) {
	// Usable width 60pt fits ten runes.
	g := Geometry{Width: 80, Height: 200, Margin: 10, LineHeight: 15}
	pages := Layout("aaaa bbbb cc dddddd", monospace, g)
	require.Len(t, pages, 1)
	var got []string
	for _, l := range pages[0].Lines {
		got = append(got, l.Text)
	}
	assert.Equal(t, []string{"aaaa bbbb", "cc dddddd"}, got)
}

func TestLayoutOverlongWordAlone(t *testing.T) {
	long := strings.Repeat("x", 200)
	pages := Layout("a "+long+" b", monospace, a4)
	require.Len(t, pages, 1)
	lines := pages[0].Lines
	require.Len(t, lines, 3)
	assert.Equal(t, "a", lines[0].Text)
	assert.Equal(t, long, lines[1].Text)
	assert.Equal(t, "b", lines[2].Text)
}

func TestLayoutBlankLinesAdvanceWithoutDrawing(t *testing.T) {
	pages := Layout("first\n\n   \nsecond\n", monospace, a4)
	require.Len(t, pages, 1)
	lines := pages[0].Lines
	require.Len(t, lines, 2)
	assert.Equal(t, "first", lines[0].Text)
	assert.Equal(t, "second", lines[1].Text)
	assert.InDelta(t, 3*a4.LineHeight, lines[0].Y-lines[1].Y, 1e-9)
}

func TestLayoutPaginates(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 120; i++ {
		b.WriteString("line\n")
	}
	pages := Layout(b.String(), monospace, a4)
	require.Greater(t, len(pages), 1)

	total := 0
	for _, p := range pages {
		require.NotEmpty(t, p.Lines)
		assert.InDelta(t, a4.Height-a4.Margin, p.Lines[0].Y, 1e-9)
		for _, l := range p.Lines {
			assert.GreaterOrEqual(t, l.Y, a4.Margin+a4.LineHeight)
		}
		total += len(p.Lines)
	}
	assert.Equal(t, 120, total)
}

func TestLayoutEmptyText(t *testing.T) {
	pages := Layout("", monospace, a4)
	require.Len(t, pages, 1)
	assert.Empty(t, pages[0].Lines)
}

func TestExportWritesNumberedPDF(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Talk_2.pdf"), nil, 0644))

	e := New(Options{Dir: dir, Prefix: "Talk", FontSize: 12, Margin: 40, LineHeight: 15})

	var b strings.Builder
	b.WriteString("alpha beta gamma\n\n")
	for i := 0; i < 80; i++ {
		b.WriteString("the quick brown fox jumps over the lazy dog again and again and again\n")
	}
	path, err := e.Export(b.String())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Talk_3.pdf"), path)

	doc, err := pdf.Open(path)
	require.NoError(t, err)
	assert.Greater(t, doc.NumPage(), 1)

	var first strings.Builder
	for _, tx := range doc.Page(1).Content().Text {
		first.WriteString(tx.S)
	}
	assert.Contains(t, first.String(), "alpha")
}

func TestExportMissingFontFallsBack(t *testing.T) {
	dir := t.TempDir()
	e := New(Options{Dir: dir, Prefix: "Talk", FontPath: filepath.Join(dir, "nope.ttf"), FontSize: 12, Margin: 40, LineHeight: 15})
	path, err := e.Export("hello")
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
