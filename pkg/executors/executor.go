// Package executors turns batch results into output: a colored preview for
// plan and a ledger file for apply.
package executors

import (
	"io"

	"github.com/charmbracelet/log"
)

type Executor struct {
	logger *log.Logger
	out    io.Writer
}

// New returns an executor printing previews and stdout ledgers to out.
func New(logger *log.Logger, out io.Writer) *Executor {
	return &Executor{
		logger: logger,
		out:    out,
	}
}
