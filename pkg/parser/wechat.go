package parser

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/yurifrl/cnbean/pkg/importer"
	"github.com/yurifrl/cnbean/pkg/models"
	"github.com/yurifrl/cnbean/pkg/registry"
)

var (
	wechatStartPattern = regexp.MustCompile(`起始时间：\[([0-9]+-[0-9]+-[0-9]+)`)
	wechatEndPattern   = regexp.MustCompile(`终止时间：\[([0-9]+-[0-9]+-[0-9]+)`)
)

// Statuses of a completed WeChat Pay transaction.
var wechatSettled = []string{"支付成功", "已存入零钱", "已转账", "对方已收钱", "已收钱"}

// Statuses of a transaction that never happened.
var wechatCancelled = []string{"提现失败，已退回零钱", "对方已退还"}

const wechatToCardPrefix = "零钱通转出-到"

// ParseWeChatCSV parses a WeChat Pay bill export with columns:
// 交易时间, 交易类型, 交易对方, 商品, 收/支, 金额(元), 支付方式, 当前状态, 交易单号, 商户单号, 备注
func (p *Parser) ParseWeChatCSV(data []byte, filename string) (*models.Statement, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	rows, err := readCSV(text)
	if err != nil {
		return nil, err
	}

	st := &models.Statement{
		Source: SourceWeChat,
		File:   filename,
		Start:  findDate(text, wechatStartPattern),
		End:    findDate(text, wechatEndPattern),
	}

	begin := false
	for _, r := range rows {
		if !begin {
			begin = len(r.Fields) >= 2 && r.Fields[0] == "交易时间" && r.Fields[1] == "交易类型"
			continue
		}
		if r.empty() {
			continue
		}
		if len(r.Fields) < 11 {
			return nil, importer.Malformed(SourceWeChat, r.Line, r.Fields, "expected 11 fields, got %d", len(r.Fields))
		}

		rec, err := p.wechatRecord(r)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			st.Records = append(st.Records, *rec)
		}
	}
	if !begin {
		return nil, fmt.Errorf("no transaction table found in %s", filename)
	}

	p.logger.Info("wechat csv parsing complete", "file", filename, "records", len(st.Records), "rows", len(rows))
	return st, nil
}

func (p *Parser) wechatRecord(r csvRow) (*models.Record, error) {
	f := r.Fields
	kind, payee, narration, label := f[1], orNone(f[2]), orNone(f[3]), f[4]
	method, status, serial, note := orNone(f[6]), f[7], f[8], orNone(f[10])

	if slices.Contains(wechatCancelled, status) {
		p.logger.Warn("transaction not successful, skipping", "source", SourceWeChat, "line", r.Line, "status", status, "narration", narration)
		return nil, nil
	}

	date, err := parseDate(f[0])
	if err != nil {
		return nil, importer.Malformed(SourceWeChat, r.Line, f, "%v", err)
	}
	amount, err := parseAmount(f[5])
	if err != nil {
		return nil, importer.Malformed(SourceWeChat, r.Line, f, "%v", err)
	}

	rec := &models.Record{
		Line:     r.Line,
		Raw:      f,
		Date:     date,
		Amount:   amount.Abs(),
		Currency: "CNY",
		Method:   method,
		Status:   status,
		Category: kind,
		Tags:     models.NewTags(),
		Metadata: models.Metadata{
			"payment_method":    "微信支付",
			"imported_category": kind,
			"serial":            serial,
			"time":              date.Format("15:04:05"),
		},
	}
	if note != "" {
		rec.Metadata["note"] = note
	}
	if strings.Contains(kind, "亲属卡交易") {
		rec.Tags.Add(models.TagFamilyCard)
	}

	// Wallet movements are printed without a direction.
	if label == "/" {
		switch {
		case kind == "信用卡还款", kind == "零钱提现":
			label = importer.LabelExpense
		case strings.Contains(kind, "零钱"):
			label = importer.LabelIncome
		}
	}
	if i := strings.Index(narration, "付款方留言"); i >= 0 {
		narration = narration[:i] + ";" + narration[i:]
	}
	rec.Narration = narration
	rec.Payee = payee
	p.direction.Resolve(label, rec)

	if err := p.wechatSource(rec); err != nil {
		return nil, err
	}
	if err := p.wechatDestination(rec); err != nil {
		return nil, err
	}

	switch {
	case slices.Contains(wechatSettled, status) || strings.Contains(status, "已到账"):
	case strings.Contains(status, "退款"):
		rec.Tags.Add(models.TagRefund)
	default:
		p.logger.Warn("unhandled transaction status, please confirm", "source", SourceWeChat, "line", r.Line, "status", status)
		rec.Tags.Add(models.TagConfirmationNeeded)
	}

	return rec, nil
}

func (p *Parser) wechatSource(rec *models.Record) error {
	cfg := p.cfg.WeChat
	kind, method, status := rec.Category, rec.Method, rec.Status

	var err error
	switch {
	case method == "零钱" && kind == "转入零钱通-来自零钱":
		rec.SourceAccount, err = required(SourceWeChat, rec.Line, rec.Raw, "lingqiantong_account", cfg.LingQianTongAccount)
	case method == "零钱通" && kind == "零钱通转出-到零钱":
		rec.SourceAccount, err = required(SourceWeChat, rec.Line, rec.Raw, "account", cfg.Account)
	case method == "零钱通" && (strings.HasPrefix(status, "已退款") || status == "对方已收钱" || status == "已转账"):
		rec.SourceAccount, err = required(SourceWeChat, rec.Line, rec.Raw, "lingqiantong_account", cfg.LingQianTongAccount)
	case method == "零钱通" && strings.HasPrefix(kind, wechatToCardPrefix):
		rec.CardTail = registry.CardTail(strings.TrimPrefix(kind, wechatToCardPrefix))
		if rec.CardTail == "" {
			err = importer.Malformed(SourceWeChat, rec.Line, rec.Raw, "cannot handle source %q", kind)
		}
	case method == "零钱" || slices.Contains([]string{"已存入零钱", "已到账", "充值完成", "提现已到账"}, status):
		rec.SourceAccount, err = required(SourceWeChat, rec.Line, rec.Raw, "account", cfg.Account)
	default:
		rec.CardTail = registry.CardTail(method)
		if rec.CardTail == "" {
			err = importer.Malformed(SourceWeChat, rec.Line, rec.Raw, "cannot handle source %q", method)
		}
	}
	return err
}

// wechatDestination recognizes red packets, family cards, group payments,
// transfers and wallet movements, which rules cannot classify. The account
// each one needs must be configured.
func (p *Parser) wechatDestination(rec *models.Record) error {
	cfg := p.cfg.WeChat
	kind, method, status := rec.Category, rec.Method, rec.Status
	expense := rec.Expense()

	var key, account string
	pick := func(expenseKey, expenseAccount, incomeKey, incomeAccount string) {
		if expense {
			key, account = expenseKey, expenseAccount
		} else {
			key, account = incomeKey, incomeAccount
		}
	}

	switch {
	case kind == "微信红包" && !expense && status == "已存入零钱":
		rec.Narration = "收微信红包"
		key, account = "red_packet_income_account", cfg.RedPacketIncomeAccount
	case expense && strings.Contains(kind, "微信红包"):
		rec.Narration = "发微信红包"
		rec.Payee = strings.TrimPrefix(rec.Payee, "发给")
		key, account = "red_packet_expense_account", cfg.RedPacketExpenseAccount
	case !expense && strings.Contains(kind, "微信红包-退款"):
		rec.Narration = "发微信红包-退款"
		key, account = "red_packet_expense_account", cfg.RedPacketExpenseAccount
	case kind == "亲属卡交易":
		key, account = "family_card_expense_account", cfg.FamilyCardExpenseAccount
	case kind == "亲属卡交易-退款":
		rec.Narration = "亲属卡-退款"
		key, account = "family_card_expense_account", cfg.FamilyCardExpenseAccount
	case kind == "群收款":
		rec.Narration = "群收款"
		pick("group_payment_expense_account", cfg.GroupPaymentExpenseAccount,
			"group_payment_income_account", cfg.GroupPaymentIncomeAccount)
	case kind == "转账":
		pick("transfer_expense_account", cfg.TransferExpenseAccount,
			"transfer_income_account", cfg.TransferIncomeAccount)
	case status == "充值完成" || status == "提现已到账":
		found, err := p.cfg.Registry.Lookup(registry.CardTail(method))
		if err != nil {
			return &importer.LineError{Source: SourceWeChat, Line: rec.Line, Row: rec.Raw, Err: err}
		}
		rec.Destination = found
		return nil
	case method == "零钱" && kind == "转入零钱通-来自零钱":
		key, account = "account", cfg.Account
	case method == "零钱通" && strings.HasPrefix(kind, wechatToCardPrefix):
		key, account = "lingqiantong_account", cfg.LingQianTongAccount
	default:
		return nil
	}

	dest, err := required(SourceWeChat, rec.Line, rec.Raw, key, account)
	if err != nil {
		return err
	}
	rec.Destination = dest
	return nil
}
