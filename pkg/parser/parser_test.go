package parser

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurifrl/cnbean/pkg/config"
	"github.com/yurifrl/cnbean/pkg/registry"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	reg, err := registry.New(registry.Table{
		"Liabilities:Card": {"CMB": {"1111"}},
		"Assets:Card":      {"BoC": {"4321"}, "CCB": {"5678"}},
	})
	require.NoError(t, err)

	return &config.Config{
		DefaultCurrency: "CNY",
		Registry:        reg,
		UnknownExpense:  config.Literal("Expenses:Unknown"),
		UnknownIncome:   config.Literal("Income:Unknown"),
		Alipay: config.AlipayConfig{
			Account:                 "Assets:Alipay",
			HuabeiAccount:           "Liabilities:Huabei",
			YuEBaoAccount:           "Assets:YuEBao",
			RedPacketIncomeAccount:  "Income:RedPacket",
			RedPacketExpenseAccount: "Expenses:RedPacket",
			CategoryMapping:         map[string]string{"餐饮美食": "Expenses:Food"},
		},
		WeChat: config.WeChatConfig{
			Account:                 "Assets:WeChat",
			LingQianTongAccount:     "Assets:WeChat:LingQianTong",
			RedPacketIncomeAccount:  "Income:RedPacket",
			RedPacketExpenseAccount: "Expenses:RedPacket",
			TransferExpenseAccount:  "Expenses:Transfer",
			TransferIncomeAccount:   "Income:Transfer",
		},
		HSBC: config.HSBCConfig{
			AccountMapping: map[string]string{"One": "Liabilities:Card:HSBC:One"},
			UseCNH:         true,
		},
	}
}

func newTestParser(t *testing.T) (*Parser, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(testConfig(t), log.New(&buf)), &buf
}

func TestDetect(t *testing.T) {
	p, _ := newTestParser(t)

	tests := []struct {
		name     string
		filename string
		data     []byte
		want     FileType
	}{
		{name: "wechat", filename: "bill.csv", data: []byte(wechatFixture), want: WeChatCSV},
		{name: "alipay gbk", filename: "alipay_record.csv", data: gbk(t, alipayFixture), want: AlipayCSV},
		{name: "ccb", filename: "ccb.csv", data: []byte(ccbFixture), want: CCBCSV},
		{name: "hsbc", filename: "One_2024.csv", data: []byte(hsbcCreditFixture), want: HSBCCSV},
		{name: "pdf", filename: "CMB.PDF", want: CMBPDF},
		{name: "xls", filename: "ccb.xls", want: CCBXLS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Detect(tt.data, tt.filename)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := p.Detect([]byte("a,b,c\n1,2,3\n"), "other.csv")
	assert.Error(t, err)
	_, err = p.Detect(nil, "notes.txt")
	assert.Error(t, err)
}

func TestParseFileType(t *testing.T) {
	ft, err := ParseFileType("cmb_pdf")
	require.NoError(t, err)
	assert.Equal(t, CMBPDF, ft)

	_, err = ParseFileType("icbc_csv")
	assert.Error(t, err)
}

func TestParseDateAndAmount(t *testing.T) {
	for _, s := range []string{"2024-01-05 12:30:00", "2024-01-05", "2024/1/5 12:30", "20240105", "05/01/2024"} {
		d, err := parseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, "2024-01-05", d.Format("2006-01-02"), s)
	}
	_, err := parseDate("yesterday")
	assert.Error(t, err)

	amount, err := parseAmount("¥1,234.50")
	require.NoError(t, err)
	assert.Equal(t, "1234.5", amount.String())

	amount, err = parseAmount("-12.00")
	require.NoError(t, err)
	assert.Equal(t, "-12", amount.String())

	_, err = parseAmount("abc")
	assert.Error(t, err)
}
