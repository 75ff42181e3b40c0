package export

import "strings"

// Geometry describes the printable page in points.
type Geometry struct {
	Width      float64
	Height     float64
	Margin     float64
	LineHeight float64
}

// Usable returns the line width available between the side margins.
func (g Geometry) Usable() float64 {
	return g.Width - 2*g.Margin
}

// Line is one drawn text line. Y is the baseline measured from the bottom
// edge of the page.
type Line struct {
	Text string
	X    float64
	Y    float64
}

// Page holds the lines drawn on one page.
type Page struct {
	Lines []Line
}

// Layout word-wraps text onto pages. Words are packed greedily while the
// measured width stays within the usable width; a word that is wider on its
// own still gets a line to itself. A page break happens before a line would be
// drawn below margin+lineHeight. Blank input lines only advance the cursor.
// The result always has at least one page.
func Layout(text string, measure func(string) float64, g Geometry) []Page {
	pages := []Page{{}}
	top := g.Height - g.Margin
	y := top
	avail := g.Usable()

	draw := func(s string) {
		if y < g.Margin+g.LineHeight {
			pages = append(pages, Page{})
			y = top
		}
		p := &pages[len(pages)-1]
		p.Lines = append(p.Lines, Line{Text: s, X: g.Margin, Y: y})
		y -= g.LineHeight
	}

	for _, line := range splitLines(text) {
		if strings.TrimSpace(line) == "" {
			y -= g.LineHeight
			continue
		}
		words := strings.Fields(line)
		cur := words[0]
		for _, w := range words[1:] {
			candidate := cur + " " + w
			if measure(candidate) <= avail {
				cur = candidate
				continue
			}
			draw(cur)
			cur = w
		}
		draw(cur)
	}
	return pages
}

// splitLines splits on any line ending. A single trailing newline does not
// produce an extra empty line.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
