package pdf

import (
	"errors"
	"strings"
	"sync"

	"github.com/jung-kurt/gofpdf"
)

const (
	measureFont = "Helvetica"
	// MeasureFontSize matches the size table cells are painted with.
	MeasureFontSize = 8.0
)

var errUnencodable = errors.New("text does not map onto the measuring code page")

// FontMeasurer wraps text with gofpdf's metrics for the core Helvetica font.
// It is safe for concurrent use.
type FontMeasurer struct {
	mu        sync.Mutex
	pdf       *gofpdf.Fpdf
	translate func(string) string
}

func NewFontMeasurer() *FontMeasurer {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetFont(measureFont, "", MeasureFontSize)
	return &FontMeasurer{
		pdf:       doc,
		translate: doc.UnicodeTranslatorFromDescriptor(""),
	}
}

// SplitLines breaks text into lines no wider than width millimetres. Words
// longer than the width are cut; nothing is dropped.
func (m *FontMeasurer) SplitLines(text string, width float64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pdf.Err() {
		return nil, m.pdf.Error()
	}

	text = strings.ReplaceAll(text, "\r", "")
	runes := []rune(text)
	encoded := m.translate(text)
	if len(encoded) != len(runes) {
		return nil, errUnencodable
	}

	chunks := m.pdf.SplitLines([]byte(encoded), width)
	if m.pdf.Err() {
		return nil, m.pdf.Error()
	}

	// The code page maps one rune to one byte, so chunk lengths index runes.
	lines := make([]string, 0, len(chunks))
	cursor := 0
	for _, chunk := range chunks {
		end := cursor + len(chunk)
		if end > len(runes) {
			return nil, errUnencodable
		}
		lines = append(lines, strings.TrimRight(string(runes[cursor:end]), " \t"))
		cursor = end
		if cursor < len(runes) && isBreak(runes[cursor]) {
			cursor++
		}
	}
	return lines, nil
}

func isBreak(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n'
}
