package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yurifrl/cnbean/pkg/config"
)

func TestFilter_Blacklisted(t *testing.T) {
	f := Filter{
		Whitelist: []string{"财付通(银联云闪付)"},
		Blacklist: []string{"支付宝", "财付通", "美团支付"},
	}

	assert.True(t, f.Blacklisted("支付宝-淘宝购物"))
	assert.True(t, f.Blacklisted("财付通-微信支付"))
	assert.False(t, f.Blacklisted("财付通(银联云闪付)"), "whitelist wins over blacklist")
	assert.False(t, f.Blacklisted("工资"))
	assert.False(t, Filter{}.Blacklisted("支付宝"))
}

func TestFallback_Account(t *testing.T) {
	f := Fallback{
		Expense: config.Literal("Expenses:Unknown"),
		Income:  config.Literal("Income:Unknown"),
	}
	assert.Equal(t, "Expenses:Unknown", f.Account(true, config.Context{}))
	assert.Equal(t, "Income:Unknown", f.Account(false, config.Context{}))
}

func TestFallback_AccountComputed(t *testing.T) {
	expense, err := config.ParseValue("Expenses:Unknown:{{.Source}}")
	if err != nil {
		t.Fatalf("ParseValue failed: %v", err)
	}
	f := Fallback{
		Expense: expense,
		Income: config.Computed(func(ctx config.Context) string {
			if ctx.Expense {
				return "Income:Wrong"
			}
			return "Income:Unknown:" + ctx.Currency
		}),
	}

	assert.Equal(t, "Expenses:Unknown:wechat", f.Account(true, config.Context{Source: "wechat"}))
	assert.Equal(t, "Income:Unknown:HKD", f.Account(false, config.Context{Expense: true, Currency: "HKD"}))
}
