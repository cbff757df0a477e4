package executors

import (
	"github.com/yurifrl/cnbean/pkg/models"
	"github.com/yurifrl/cnbean/pkg/service"
)

// Status summarizes one imported file.
type Status int

const (
	Imported Status = iota
	NeedsReview
	Failed
)

func (s Status) String() string {
	switch s {
	case Imported:
		return "imported"
	case NeedsReview:
		return "needs review"
	default:
		return "failed"
	}
}

// Entry links a batch result with its status and the number of its
// transactions tagged for confirmation.
type Entry struct {
	Result service.Result
	Status Status
	Review int
}

type Report struct {
	Items []Entry
}

// BuildReport classifies every result of a batch.
func BuildReport(results []service.Result) *Report {
	items := make([]Entry, 0, len(results))
	for _, r := range results {
		e := Entry{Result: r, Status: Imported}
		switch {
		case r.Err != nil:
			e.Status = Failed
		default:
			for _, tx := range r.Transactions {
				if tx.Tags.Has(models.TagConfirmationNeeded) {
					e.Review++
				}
			}
			if e.Review > 0 {
				e.Status = NeedsReview
			}
		}
		items = append(items, e)
	}
	return &Report{Items: items}
}

// FailedCount returns how many files could not be imported.
func (r *Report) FailedCount() int {
	n := 0
	for _, e := range r.Items {
		if e.Status == Failed {
			n++
		}
	}
	return n
}

// ReviewCount returns how many transactions are tagged for confirmation.
func (r *Report) ReviewCount() int {
	n := 0
	for _, e := range r.Items {
		n += e.Review
	}
	return n
}

// Transactions returns the transactions of every imported file.
func (r *Report) Transactions() []*models.Transaction {
	var txs []*models.Transaction
	for _, e := range r.Items {
		if e.Status != Failed {
			txs = append(txs, e.Result.Transactions...)
		}
	}
	return txs
}
