package document

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Glyphs whose baselines differ by less than this belong to the same line.
const lineTolerance = 1.0

// PDF reads page text through ledongthuc/pdf.
type PDF struct {
	reader *pdf.Reader
	closer io.Closer
}

// Open opens the PDF at path. The caller must Close it.
func Open(path string) (*PDF, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening pdf %s: %w", path, err)
	}
	return &PDF{reader: r, closer: f}, nil
}

// OpenBytes reads a PDF already loaded in memory, e.g. an HTTP upload.
func OpenBytes(data []byte) (*PDF, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("error reading pdf: %w", err)
	}
	return &PDF{reader: r}, nil
}

func (d *PDF) NumPages() int {
	return d.reader.NumPage()
}

// PageText rebuilds the visual lines of page n from glyph positions, one
// line per baseline, top to bottom.
func (d *PDF) PageText(n int) (text string, err error) {
	// The pdf package panics on some malformed page trees and content streams.
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("error extracting text from page %d: %v", n, rec)
		}
	}()

	if n < 1 || n > d.reader.NumPage() {
		return "", fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, n, d.reader.NumPage())
	}

	page := d.reader.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return joinLines(page.Content().Text), nil
}

func (d *PDF) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}

// joinLines groups glyphs by baseline and joins each group left to right.
// Glyphs sharing an X keep their content stream order.
func joinLines(glyphs []pdf.Text) string {
	if len(glyphs) == 0 {
		return ""
	}

	sorted := make([]pdf.Text, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y > sorted[j].Y
	})

	var lines []string
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) && math.Abs(sorted[i].Y-sorted[start].Y) < lineTolerance {
			continue
		}
		lines = append(lines, joinLine(sorted[start:i]))
		start = i
	}
	return strings.Join(lines, "\n")
}

func joinLine(glyphs []pdf.Text) string {
	sort.SliceStable(glyphs, func(i, j int) bool {
		return glyphs[i].X < glyphs[j].X
	})

	var b strings.Builder
	for i, g := range glyphs {
		if i > 0 {
			prev := glyphs[i-1]
			gap := g.X - (prev.X + prev.W)
			if gap > math.Max(prev.W, prev.FontSize/4) && prev.S != " " && g.S != " " {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
	}
	return b.String()
}
