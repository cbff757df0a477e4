package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/simplifiedchinese"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText returns data as UTF-8. Alipay exports are GBK encoded.
func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	out, err := simplifiedchinese.GBK.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode gbk: %w", err)
	}
	return string(out), nil
}

// csvRow is one CSV record with its 1-based line number in the file.
type csvRow struct {
	Line   int
	Fields []string
}

// readCSV reads every record of text with trimmed fields. Statement exports
// carry free-text preamble lines, so the field count is not enforced.
func readCSV(text string) ([]csvRow, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows []csvRow
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := r.FieldPos(0)
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		rows = append(rows, csvRow{Line: line, Fields: fields})
	}
	return rows, nil
}

// empty reports whether every field is blank.
func (r csvRow) empty() bool {
	for _, f := range r.Fields {
		if f != "" {
			return false
		}
	}
	return true
}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006/1/2",
	"20060102",
	"02/01/2006",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

var amountReplacer = strings.NewReplacer("¥", "", "￥", "", ",", "", " ", "")

// parseAmount parses a signed amount such as "¥1,234.50" or "-12.00".
func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(amountReplacer.Replace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

// findDate returns the date captured by the first group of re in text, or
// the zero time.
func findDate(text string, re *regexp.Regexp) time.Time {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}
	}
	t, err := parseDate(m[1])
	if err != nil {
		return time.Time{}
	}
	return t
}

// orNone maps the "/" placeholder used by payment apps to "".
func orNone(s string) string {
	if s == "/" {
		return ""
	}
	return s
}
