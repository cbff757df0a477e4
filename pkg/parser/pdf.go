package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// word is a run of glyphs on one text row of a PDF page.
type word struct {
	Page int
	X    float64
	Y    float64
	S    string
}

// pdfWords extracts the words of every page in reading order. Encrypted
// documents are opened with the configured passwords, tried in order.
func (p *Parser) pdfWords(data []byte) (words []word, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf library crashed: %v", r)
		}
	}()

	next := 0
	password := func() string {
		if next >= len(p.cfg.PDFPasswords) {
			return ""
		}
		pw := p.cfg.PDFPasswords[next]
		next++
		return pw
	}

	r, err := pdf.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), password)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			p.logger.Debug("failed to read pdf page, skipping", "page", i, "err", err)
			continue
		}
		for _, row := range rows {
			words = append(words, splitWords(i, float64(row.Position), row.Content)...)
		}
	}
	return words, nil
}

// splitWords joins adjacent glyphs of a row into words. A blank glyph or a
// horizontal gap wider than a quarter of the font size ends a word.
func splitWords(page int, y float64, texts pdf.TextHorizontal) []word {
	var (
		out []word
		cur *word
		end float64
	)
	flush := func() {
		if cur != nil {
			cur.S = strings.TrimSpace(cur.S)
			if cur.S != "" {
				out = append(out, *cur)
			}
		}
		cur = nil
	}

	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			flush()
			continue
		}
		if cur != nil && t.X-end > max(1, t.FontSize/4) {
			flush()
		}
		if cur == nil {
			cur = &word{Page: page, X: t.X, Y: y}
		}
		cur.S += t.S
		end = t.X + t.W
	}
	flush()
	return out
}

// pdfText joins words into plain text, one PDF row per line.
func pdfText(words []word) string {
	var b strings.Builder
	for i, w := range words {
		if i > 0 {
			if w.Y == words[i-1].Y && w.Page == words[i-1].Page {
				b.WriteString(" ")
			} else {
				b.WriteString("\n")
			}
		}
		b.WriteString(w.S)
	}
	return b.String()
}

// columnLayout describes a table printed without ruling lines. Offsets are
// the left edges of the columns; Start and End match the words that open and
// close the table body on each page.
type columnLayout struct {
	Offsets []float64
	Start   func(s string) bool
	End     func(s string) bool
}

func (l columnLayout) column(x float64) int {
	col := 0
	for i, off := range l.Offsets {
		if x >= off {
			col = i
		}
	}
	return col
}

// tableRow is one assembled table row, one cell per layout column.
type tableRow struct {
	Page  int
	Cells []string
}

// assembleRows groups words into table rows. A word entering the first
// column opens a new row. A word in the column just written on the same text row
// extends that cell with a space; a word on a later text row continues a
// wrapped cell without one.
func assembleRows(words []word, layout columnLayout) []tableRow {
	var (
		rows    []tableRow
		cur     *tableRow
		inTable bool
		lastCol = -1
		lastY   float64
	)
	flush := func() {
		if cur != nil {
			rows = append(rows, *cur)
		}
		cur = nil
		lastCol = -1
	}

	for _, w := range words {
		switch {
		case !inTable && layout.Start(w.S):
			inTable = true
			continue
		case inTable && layout.End(w.S):
			inTable = false
			flush()
			continue
		case !inTable:
			continue
		}

		col := layout.column(w.X)
		if col == 0 && cur != nil && lastCol != 0 {
			flush()
		}
		if cur == nil {
			cur = &tableRow{Page: w.Page, Cells: make([]string, len(layout.Offsets))}
		}

		switch {
		case cur.Cells[col] == "":
			cur.Cells[col] = w.S
		case col == lastCol && w.Y == lastY:
			cur.Cells[col] += " " + w.S
		default:
			cur.Cells[col] += w.S
		}
		lastCol, lastY = col, w.Y
	}
	flush()
	return rows
}
