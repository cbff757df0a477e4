package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurifrl/cnbean/pkg/importer"
	"github.com/yurifrl/cnbean/pkg/models"
	"github.com/yurifrl/cnbean/pkg/registry"
)

const wechatFixture = `微信支付账单明细,,,,,,,,,,
微信昵称：[张三],,,,,,,,,,
起始时间：[2024-01-01 00:00:00] 终止时间：[2024-01-31 23:59:59],,,,,,,,,,
,,,,,,,,,,
----------------------微信支付账单明细列表--------------------,,,,,,,,,,
交易时间,交易类型,交易对方,商品,收/支,金额(元),支付方式,当前状态,交易单号,商户单号,备注
2024-01-05 12:30:00,商户消费,京东,京东支付-数码配件,支出,¥99.50,招商银行信用卡(1111),支付成功,T001,M001,/
2024-01-06 08:00:00,微信红包,李四,/,收入,¥8.88,/,已存入零钱,T002,/,/
2024-01-07 09:00:00,转账,王五,/,支出,¥100.00,零钱,对方已收钱,T003,/,午饭
2024-01-08 10:00:00,零钱充值,招商银行(1111),/,/,¥200.00,招商银行(1111),充值完成,T004,/,/
2024-01-09 10:00:00,零钱提现,中国银行(4321),/,/,¥50.00,零钱,提现失败，已退回零钱,T005,/,/
2024-01-10 11:00:00,商户消费,某店,商品,支出,¥10.00,零钱,处理中,T006,/,/
`

func TestParseWeChatCSV(t *testing.T) {
	p, logs := newTestParser(t)

	st, err := p.ParseWeChatCSV([]byte(wechatFixture), "wechat.csv")
	require.NoError(t, err)
	assert.Equal(t, SourceWeChat, st.Source)
	assert.Equal(t, "2024-01-01", st.Start.Format("2006-01-02"))
	assert.Equal(t, "2024-01-31", st.End.Format("2006-01-02"))
	require.Len(t, st.Records, 5, "cancelled withdrawal is skipped")

	purchase := st.Records[0]
	assert.Equal(t, 7, purchase.Line)
	assert.Equal(t, "京东支付-数码配件", purchase.Narration)
	assert.Equal(t, "京东", purchase.Payee)
	assert.Equal(t, models.DirectionExpense, purchase.Direction)
	assert.Equal(t, "99.5", purchase.Amount.String())
	assert.Equal(t, "1111", purchase.CardTail)
	assert.Empty(t, purchase.SourceAccount)
	assert.Equal(t, "T001", purchase.Metadata["serial"])
	assert.Equal(t, "12:30:00", purchase.Metadata["time"])

	redPacket := st.Records[1]
	assert.Equal(t, models.DirectionIncome, redPacket.Direction)
	assert.Equal(t, "收微信红包", redPacket.Narration)
	assert.Equal(t, "Assets:WeChat", redPacket.SourceAccount)
	assert.Equal(t, "Income:RedPacket", redPacket.Destination)

	transfer := st.Records[2]
	assert.Equal(t, "Assets:WeChat", transfer.SourceAccount)
	assert.Equal(t, "Expenses:Transfer", transfer.Destination)
	assert.Equal(t, "午饭", transfer.Metadata["note"])

	topUp := st.Records[3]
	assert.Equal(t, models.DirectionIncome, topUp.Direction)
	assert.Equal(t, "Assets:WeChat", topUp.SourceAccount)
	assert.Equal(t, "Liabilities:Card:CMB:1111", topUp.Destination)

	pending := st.Records[4]
	assert.True(t, pending.Tags.Has(models.TagConfirmationNeeded))
	assert.Contains(t, logs.String(), "unhandled transaction status")
	assert.Contains(t, logs.String(), "transaction not successful")
}

func TestParseWeChatCSV_UnknownTopUpCard(t *testing.T) {
	p, _ := newTestParser(t)
	data := strings.Replace(wechatFixture, "招商银行(1111),充值完成", "招商银行(9999),充值完成", 1)

	_, err := p.ParseWeChatCSV([]byte(data), "wechat.csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, registry.ErrNotFound))
	var lerr *importer.LineError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, 10, lerr.Line)
}

func TestParseWeChatCSV_Malformed(t *testing.T) {
	p, _ := newTestParser(t)

	data := strings.Replace(wechatFixture, "¥10.00", "¥ten", 1)
	_, err := p.ParseWeChatCSV([]byte(data), "wechat.csv")
	assert.True(t, errors.Is(err, importer.ErrMalformed))

	_, err = p.ParseWeChatCSV([]byte("微信支付账单明细\n"), "wechat.csv")
	assert.Error(t, err)
}

func TestParseWeChatCSV_UnknownSource(t *testing.T) {
	p, _ := newTestParser(t)
	data := strings.Replace(wechatFixture, "¥10.00,零钱,处理中", "¥10.00,数字人民币,支付成功", 1)

	_, err := p.ParseWeChatCSV([]byte(data), "wechat.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot handle source")
}

func TestParseWeChatCSV_PresetAccountRequired(t *testing.T) {
	p, _ := newTestParser(t)
	data := wechatFixture + "2024-01-11 18:00:00,群收款,赵六,聚餐AA,支出,¥45.00,零钱,支付成功,T007,/,/\n"

	_, err := p.ParseWeChatCSV([]byte(data), "wechat.csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, importer.ErrMalformed))
	assert.Contains(t, err.Error(), "importers.wechat.group_payment_expense_account is not configured")
	var lerr *importer.LineError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, 13, lerr.Line)

	p.cfg.WeChat.GroupPaymentExpenseAccount = "Expenses:Group"
	st, err := p.ParseWeChatCSV([]byte(data), "wechat.csv")
	require.NoError(t, err)
	group := st.Records[len(st.Records)-1]
	assert.Equal(t, "群收款", group.Narration)
	assert.Equal(t, "Expenses:Group", group.Destination)
}
