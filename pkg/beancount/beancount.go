// Package beancount renders transactions as plain-text ledger entries.
package beancount

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yurifrl/cnbean/pkg/models"
)

type FilterFunc func(*models.Transaction) bool

// Create renders the transactions accepted by filter, sorted by date. The
// input order is kept for transactions on the same day.
func Create(txs []*models.Transaction, filter FilterFunc) []byte {
	selected := make([]*models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if filter == nil || filter(tx) {
			selected = append(selected, tx)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Date.Before(selected[j].Date)
	})

	var buf bytes.Buffer
	for i, tx := range selected {
		if i > 0 {
			buf.WriteString("\n")
		}
		writeTransaction(&buf, tx)
	}
	return buf.Bytes()
}

// Write renders the transactions accepted by filter to w.
func Write(w io.Writer, txs []*models.Transaction, filter FilterFunc) error {
	if _, err := w.Write(Create(txs, filter)); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return nil
}

func writeTransaction(buf *bytes.Buffer, tx *models.Transaction) {
	buf.WriteString(tx.Date.Format("2006-01-02"))
	buf.WriteString(" " + tx.Flag)
	if tx.Payee != "" {
		buf.WriteString(" " + strconv.Quote(tx.Payee))
	}
	buf.WriteString(" " + strconv.Quote(tx.Narration))
	for _, tag := range tx.Tags.Sorted() {
		buf.WriteString(" #" + tag)
	}
	buf.WriteString("\n")

	for _, key := range tx.Metadata.Keys() {
		fmt.Fprintf(buf, "  %s: %s\n", key, metaValue(tx.Metadata[key]))
	}

	src, dst := tx.Source(), tx.Destination()
	fmt.Fprintf(buf, "  %s  %s %s\n", src.Account, Amount(*src.Amount), src.Currency)
	if dst.Amount != nil {
		fmt.Fprintf(buf, "  %s  %s %s\n", dst.Account, Amount(*dst.Amount), dst.Currency)
	} else {
		fmt.Fprintf(buf, "  %s\n", dst.Account)
	}
}

// Amount formats d with at least two decimal places.
func Amount(d decimal.Decimal) string {
	if d.Exponent() >= -2 {
		return d.StringFixed(2)
	}
	return d.String()
}

func metaValue(v any) string {
	switch v := v.(type) {
	case string:
		return strconv.Quote(v)
	case bool:
		return strings.ToUpper(strconv.FormatBool(v))
	case int, int64, float64:
		return fmt.Sprint(v)
	case decimal.Decimal:
		return v.String()
	default:
		return strconv.Quote(fmt.Sprint(v))
	}
}
