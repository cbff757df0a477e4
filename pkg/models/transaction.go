package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultFlag marks a transaction as complete.
const DefaultFlag = "*"

// Posting is one leg of a transaction. A nil Amount is inferred as the
// negation of the other leg.
type Posting struct {
	Account  string
	Amount   *decimal.Decimal
	Currency string
}

// Transaction is a balanced double-entry transaction with exactly two
// postings: the source account first, the destination second.
type Transaction struct {
	Date      time.Time
	Flag      string
	Payee     string
	Narration string
	Tags      Tags
	Metadata  Metadata
	Postings  [2]Posting
}

// Source returns the posting carrying the signed amount.
func (t *Transaction) Source() Posting {
	return t.Postings[0]
}

// Destination returns the inferred posting.
func (t *Transaction) Destination() Posting {
	return t.Postings[1]
}

// TransactionBuilder assembles a Transaction step by step.
type TransactionBuilder struct {
	tx     Transaction
	amount decimal.Decimal
	hasAmt bool
}

// NewTransaction starts a builder for a transaction with the given narration.
func NewTransaction(narration string) *TransactionBuilder {
	return &TransactionBuilder{
		tx: Transaction{
			Flag:      DefaultFlag,
			Narration: narration,
			Tags:      NewTags(),
			Metadata:  Metadata{},
		},
	}
}

func (b *TransactionBuilder) SetPayee(payee string) *TransactionBuilder {
	b.tx.Payee = payee
	return b
}

func (b *TransactionBuilder) SetDate(date time.Time) *TransactionBuilder {
	b.tx.Date = date
	return b
}

func (b *TransactionBuilder) AddTags(tags Tags) *TransactionBuilder {
	b.tx.Tags.Union(tags)
	return b
}

func (b *TransactionBuilder) MergeMetadata(meta Metadata) *TransactionBuilder {
	b.tx.Metadata.Merge(meta)
	return b
}

// SetSource sets the first posting with its signed amount.
func (b *TransactionBuilder) SetSource(account string, amount decimal.Decimal, currency string) *TransactionBuilder {
	b.tx.Postings[0] = Posting{Account: account, Currency: currency}
	b.amount = amount
	b.hasAmt = true
	return b
}

// SetDestination sets the second posting, whose amount is inferred.
func (b *TransactionBuilder) SetDestination(account string) *TransactionBuilder {
	b.tx.Postings[1] = Posting{Account: account}
	return b
}

func (b *TransactionBuilder) Build() (*Transaction, error) {
	if b.tx.Date.IsZero() {
		return nil, errors.New("transaction date is required")
	}
	if !b.hasAmt {
		return nil, errors.New("transaction amount is required")
	}
	if b.tx.Postings[0].Account == "" {
		return nil, errors.New("source account is required")
	}
	if b.tx.Postings[1].Account == "" {
		return nil, errors.New("destination account is required")
	}
	if b.tx.Postings[0].Currency == "" {
		return nil, fmt.Errorf("currency is required for %s", b.tx.Postings[0].Account)
	}

	tx := b.tx
	amount := b.amount
	tx.Postings[0].Amount = &amount
	tx.Tags = b.tx.Tags.Clone()
	tx.Metadata = b.tx.Metadata.Clone()
	return &tx, nil
}
