// Package export renders the session transcript into a paginated A4 PDF.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"

	"speechpdf/internal/config"
)

const fontFamily = "Transcript"

// Options control PDF output.
type Options struct {
	Dir        string
	Prefix     string
	FontPath   string
	FontSize   float64
	Margin     float64
	LineHeight float64
}

// OptionsFromConfig extracts the PDF options from cfg.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Dir:        cfg.PDFDir,
		Prefix:     cfg.PDFPrefix,
		FontPath:   cfg.FontPath,
		FontSize:   cfg.FontSize,
		Margin:     cfg.PageMargin,
		LineHeight: cfg.LineHeight,
	}
}

// Exporter writes transcripts to numbered PDF files.
type Exporter struct {
	opts Options
	log  *slog.Logger
}

// New creates an Exporter.
func New(opts Options) *Exporter {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	return &Exporter{opts: opts, log: slog.With("component", "pdf")}
}

// Export renders text and returns the path of the written file.
func (e *Exporter) Export(text string) (string, error) {
	if err := os.MkdirAll(e.opts.Dir, 0755); err != nil {
		return "", fmt.Errorf("create pdf dir failed: %w", err)
	}
	idx, err := NextIndex(e.opts.Dir, e.opts.Prefix)
	if err != nil {
		return "", fmt.Errorf("scan pdf dir failed: %w", err)
	}
	path := filepath.Join(e.opts.Dir, FileName(e.opts.Prefix, idx))

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("speechpdf", true)
	pdf.SetTitle(e.opts.Prefix, true)

	encode, err := e.setFont(pdf)
	if err != nil {
		return "", err
	}
	measure := func(s string) float64 { return pdf.GetStringWidth(encode(s)) }

	w, h := pdf.GetPageSize()
	pages := Layout(text, measure, Geometry{
		Width:      w,
		Height:     h,
		Margin:     e.opts.Margin,
		LineHeight: e.opts.LineHeight,
	})
	for _, page := range pages {
		pdf.AddPage()
		for _, line := range page.Lines {
			pdf.Text(line.X, h-line.Y, encode(line.Text))
		}
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write pdf failed: %w", err)
	}
	e.log.Debug("pdf written", "path", path, "pages", len(pages))
	return path, nil
}

// setFont selects the configured TTF font, or core Helvetica when no font file
// is available. It returns the text encoder matching the chosen font.
func (e *Exporter) setFont(pdf *fpdf.Fpdf) (func(string) string, error) {
	if e.opts.FontPath != "" {
		if _, err := os.Stat(e.opts.FontPath); err == nil {
			pdf.AddUTF8Font(fontFamily, "", e.opts.FontPath)
			if pdf.Err() {
				return nil, fmt.Errorf("load font %s: %w", e.opts.FontPath, pdf.Error())
			}
			pdf.SetFont(fontFamily, "", e.opts.FontSize)
			return func(s string) string { return s }, nil
		}
		e.log.Warn("font file not found, falling back to Helvetica; non-Latin text will not render", "font", e.opts.FontPath)
	}
	pdf.SetFont("Helvetica", "", e.opts.FontSize)
	return pdf.UnicodeTranslatorFromDescriptor(""), nil
}
