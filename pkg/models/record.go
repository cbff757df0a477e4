package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the money flow of a statement line as seen from the source
// account.
type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionExpense
	DirectionIncome
)

func (d Direction) String() string {
	switch d {
	case DirectionExpense:
		return "expense"
	case DirectionIncome:
		return "income"
	default:
		return "unknown"
	}
}

// Record is one statement line normalized by an adapter. Amount is the
// unsigned magnitude; the sign is derived from Direction when the transaction
// is built.
type Record struct {
	Line      int
	Raw       []string
	Date      time.Time
	Amount    decimal.Decimal
	Currency  string
	Narration string
	Payee     string
	Direction Direction

	// Free-text columns some sources report separately. Used by the
	// direction heuristics and the status check.
	Method   string
	Status   string
	Category string

	// SourceAccount is set when the adapter already knows the account the
	// money moved through. Otherwise CardTail is resolved through the card
	// registry.
	SourceAccount string
	CardTail      string

	// Destination is set when the adapter recognized the counter account
	// itself (red packets, wallet top-ups, ...). It wins over rule accounts.
	Destination string

	// CategoryDestination is used when no rule resolved an account, before
	// falling back to the unknown accounts.
	CategoryDestination string

	// Blacklistable marks bank card lines that may duplicate a line from a
	// payment app statement.
	Blacklistable bool

	Tags     Tags
	Metadata Metadata
}

// Expense reports whether money left the source account.
func (r *Record) Expense() bool {
	return r.Direction != DirectionIncome
}
