package executors

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/yurifrl/cnbean/pkg/beancount"
	"github.com/yurifrl/cnbean/pkg/models"
	"github.com/yurifrl/cnbean/pkg/service"
)

// Apply writes the ledger of every imported file to output, or to the
// executor's writer when output is empty. Files that failed are left out and
// reported in the returned error.
func (e *Executor) Apply(results []service.Result, output string, filter beancount.FilterFunc) error {
	report := BuildReport(results)
	txs := report.Transactions()
	e.logger.Debug("applying batch", "files", len(report.Items), "transactions", len(txs))

	if output == "" {
		if err := beancount.Write(e.out, txs, filter); err != nil {
			return err
		}
	} else {
		if err := writeLedger(output, txs, filter); err != nil {
			return err
		}
		e.logger.Info("ledger written", "output", output, "transactions", len(txs))
	}

	if n := report.FailedCount(); n > 0 {
		return fmt.Errorf("%d of %d file(s) failed to import", n, len(report.Items))
	}
	return nil
}

func writeLedger(output string, txs []*models.Transaction, filter beancount.FilterFunc) error {
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create ledger: %w", err)
	}
	if err := beancount.Write(f, txs, filter); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
