package classifier

import "github.com/yurifrl/cnbean/pkg/config"

// Fallback picks a catch-all account when no rule resolved a destination.
type Fallback struct {
	Expense config.Value
	Income  config.Value
}

// Account returns the unknown-expense or unknown-income account.
func (f Fallback) Account(expense bool, ctx config.Context) string {
	ctx.Expense = expense
	if expense {
		return f.Expense.Eval(ctx)
	}
	return f.Income.Eval(ctx)
}
