package executors

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/yurifrl/cnbean/pkg/beancount"
	"github.com/yurifrl/cnbean/pkg/models"
	"github.com/yurifrl/cnbean/pkg/service"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	cleanStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	reviewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
)

// Plan prints a preview of what apply would write and returns the report.
func (e *Executor) Plan(results []service.Result) *Report {
	report := BuildReport(results)
	e.logger.Debug("processing plan report", "files", len(report.Items), "failed", report.FailedCount(), "review", report.ReviewCount())

	for _, item := range report.Items {
		r := item.Result
		if item.Status == Failed {
			fmt.Fprintln(e.out, failedStyle.Render(fmt.Sprintf("x %s: %v", r.File, r.Err)))
			continue
		}

		fmt.Fprintln(e.out, headerStyle.Render(fmt.Sprintf("%s (%s, %d transactions)", r.File, r.Statement.Source, len(r.Transactions))))
		for _, tx := range r.Transactions {
			line := previewLine(tx)
			if tx.Tags.Has(models.TagConfirmationNeeded) {
				fmt.Fprintln(e.out, reviewStyle.Render("? "+line))
				continue
			}
			fmt.Fprintln(e.out, cleanStyle.Render("  "+line))
		}
	}

	total := len(report.Transactions())
	if report.FailedCount() == 0 && report.ReviewCount() == 0 {
		fmt.Fprintf(e.out, "\nPlan: %d transaction(s) ready\n", total)
	} else {
		fmt.Fprintf(e.out, "\nPlan: %d transaction(s), %d need confirmation, %d file(s) failed\n", total, report.ReviewCount(), report.FailedCount())
	}
	return report
}

func previewLine(tx *models.Transaction) string {
	src, dst := tx.Source(), tx.Destination()
	return fmt.Sprintf("%s | %-24s | %10s %s | %s -> %s",
		tx.Date.Format("2006-01-02"), tx.Narration, beancount.Amount(*src.Amount), src.Currency, src.Account, dst.Account)
}
