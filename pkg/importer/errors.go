package importer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed marks a statement line that cannot be turned into a
// transaction. It aborts the import of the file.
var ErrMalformed = errors.New("malformed statement line")

// LineError attaches the offending line to a fatal per-file error so the
// operator can fix the configuration or the statement.
type LineError struct {
	Source string
	Line   int
	Row    []string
	Err    error
}

func (e *LineError) Error() string {
	msg := fmt.Sprintf("%s line %d: %v", e.Source, e.Line, e.Err)
	if len(e.Row) > 0 {
		msg += " [" + strings.Join(e.Row, ",") + "]"
	}
	return msg
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Malformed wraps a parse failure into a LineError.
func Malformed(source string, line int, row []string, format string, args ...any) error {
	return &LineError{
		Source: source,
		Line:   line,
		Row:    row,
		Err:    fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...)),
	}
}
