package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurifrl/cnbean/pkg/models"
)

func cmbWords() []word {
	row := func(page int, y float64, cells ...string) []word {
		offsets := cmbLayout.Offsets
		var out []word
		for i, c := range cells {
			if c != "" {
				out = append(out, word{Page: page, X: offsets[i] + 2, Y: y, S: c})
			}
		}
		return out
	}

	var words []word
	words = append(words,
		word{Page: 1, X: 30, Y: 800, S: "招商银行交易流水"},
		word{Page: 1, X: 30, Y: 780, S: "户名：张三"},
		word{Page: 1, X: 200, Y: 780, S: "账号：6214830012341111"},
		word{Page: 1, X: 30, Y: 770, S: "2024-01-01 -- 2024-01-31"},
		word{Page: 1, X: 352, Y: 740, S: "Counter"},
		word{Page: 1, X: 380, Y: 740, S: "Party"},
		word{Page: 1, X: 402, Y: 730, S: "Customer"},
		word{Page: 1, X: 440, Y: 730, S: "Type"},
	)
	words = append(words, row(1, 700, "2024-01-05", "人民币", "-99.50", "1,000.00", "快捷支付", "京东", "京东支付-数码配件")...)
	words = append(words, row(1, 680, "2024-01-06", "人民币", "-500.00", "500.00", "转账汇款", "张三")...)
	words = append(words, word{Page: 1, X: 352, Y: 670, S: "6217000012345678"})
	words = append(words, word{Page: 1, X: 300, Y: 50, S: "1/2"})
	words = append(words,
		word{Page: 2, X: 380, Y: 740, S: "Party"},
	)
	words = append(words, row(2, 700, "2024-01-07", "人民币", "20.00", "520.00", "退款", "美团")...)
	words = append(words, word{Page: 2, X: 30, Y: 60, S: "————"})
	return words
}

func TestParseCMB(t *testing.T) {
	p, _ := newTestParser(t)

	st, err := p.parseCMB("cmb.pdf", cmbWords())
	require.NoError(t, err)
	assert.Equal(t, SourceCMB, st.Source)
	assert.Equal(t, "2024-01-01", st.Start.Format("2006-01-02"))
	require.Len(t, st.Records, 3)

	purchase := st.Records[0]
	assert.Equal(t, "京东支付-数码配件", purchase.Narration)
	assert.Equal(t, "京东", purchase.Payee)
	assert.Equal(t, "1111", purchase.CardTail)
	assert.Equal(t, "CNY", purchase.Currency)
	assert.Equal(t, models.DirectionExpense, purchase.Direction)
	assert.Equal(t, "1000", purchase.Metadata["balance"])
	assert.True(t, purchase.Blacklistable)

	own := st.Records[1]
	assert.Equal(t, "转账汇款", own.Narration)
	assert.Equal(t, "张三", own.Payee)
	assert.Equal(t, "6217000012345678", own.Metadata["payee_account"])
	assert.Equal(t, "Assets:Card:CCB:5678", own.Destination)

	refund := st.Records[2]
	assert.Equal(t, models.DirectionIncome, refund.Direction)
	assert.Equal(t, "美团", refund.Payee)
	assert.Empty(t, refund.Destination)
}

func TestParseCMB_NotCMB(t *testing.T) {
	p, _ := newTestParser(t)
	_, err := p.parseCMB("other.pdf", []word{{S: "Statement"}})
	assert.ErrorContains(t, err, "not a cmb transaction statement")
}
