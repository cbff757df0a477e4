package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yurifrl/cnbean/pkg/importer"
	"github.com/yurifrl/cnbean/pkg/models"
	"github.com/yurifrl/cnbean/pkg/registry"
)

var (
	alipayStartPattern = regexp.MustCompile(`起始时间：\[([0-9 :-]+)\]`)
	alipayEndPattern   = regexp.MustCompile(`终止时间：\[([0-9 :-]+)\]`)
)

// ParseAlipayCSV parses a GBK encoded Alipay bill export with columns:
// 交易时间, 交易分类, 交易对方, 对方账号, 商品说明, 收/支, 金额, 收付款方式, 交易状态, 交易订单号, 商家订单号, 备注
func (p *Parser) ParseAlipayCSV(data []byte, filename string) (*models.Statement, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	rows, err := readCSV(text)
	if err != nil {
		return nil, err
	}

	st := &models.Statement{
		Source: SourceAlipay,
		File:   filename,
		Start:  findDate(text, alipayStartPattern),
		End:    findDate(text, alipayEndPattern),
	}

	begin := false
	for _, r := range rows {
		if !begin {
			begin = len(r.Fields) >= 2 && r.Fields[0] == "交易时间" && r.Fields[1] == "交易分类"
			continue
		}
		if len(r.Fields) > 0 && strings.HasPrefix(r.Fields[0], "------") {
			break
		}
		if r.empty() {
			continue
		}
		if len(r.Fields) < 10 {
			return nil, importer.Malformed(SourceAlipay, r.Line, r.Fields, "expected at least 10 fields, got %d", len(r.Fields))
		}

		rec, err := p.alipayRecord(r)
		if err != nil {
			return nil, err
		}
		st.Records = append(st.Records, *rec)
	}
	if !begin {
		return nil, fmt.Errorf("no transaction table found in %s", filename)
	}

	p.logger.Info("alipay csv parsing complete", "file", filename, "records", len(st.Records), "rows", len(rows))
	return st, nil
}

func (p *Parser) alipayRecord(r csvRow) (*models.Record, error) {
	f := r.Fields
	category, payee, payeeAccount, narration, label := f[1], f[2], f[3], f[4], f[5]
	method, status, serial := f[7], f[8], f[9]

	date, err := parseDate(f[0])
	if err != nil {
		return nil, importer.Malformed(SourceAlipay, r.Line, f, "%v", err)
	}
	amount, err := parseAmount(f[6])
	if err != nil {
		return nil, importer.Malformed(SourceAlipay, r.Line, f, "%v", err)
	}

	rec := &models.Record{
		Line:      r.Line,
		Raw:       f,
		Date:      date,
		Amount:    amount.Abs(),
		Currency:  "CNY",
		Narration: narration,
		Payee:     payee,
		Method:    method,
		Status:    status,
		Category:  category,
		Tags:      models.NewTags(),
		Metadata: models.Metadata{
			"serial":            serial,
			"imported_category": category,
			"payment_method":    "支付宝",
			"time":              date.Format("15:04:05"),
		},
	}
	if payeeAccount != "" {
		rec.Metadata["payee_account"] = payeeAccount
	}
	if category == "亲友代付" || strings.Contains(narration, "亲情卡") {
		rec.Tags.Add(models.TagFamilyCard)
	}

	p.direction.Resolve(label, rec)

	if err := p.alipaySource(rec); err != nil {
		return nil, err
	}
	if err := p.alipayDestination(rec); err != nil {
		return nil, err
	}

	if strings.Contains(method, "&") {
		p.logger.Warn("multiple payment methods found, please confirm", "source", SourceAlipay, "line", r.Line, "method", method)
		rec.Tags.Add(models.TagConfirmationNeeded)
	}
	if !strings.Contains(status, "成功") {
		p.logger.Warn("transaction not successful, please confirm", "source", SourceAlipay, "line", r.Line, "status", status)
		rec.Tags.Add(models.TagConfirmationNeeded)
	}

	return rec, nil
}

func (p *Parser) alipaySource(rec *models.Record) error {
	cfg := p.cfg.Alipay
	method := rec.Method

	var err error
	switch tail := registry.CardTail(method); {
	case method == "余额宝":
		rec.SourceAccount, err = required(SourceAlipay, rec.Line, rec.Raw, "yuebao_account", cfg.YuEBaoAccount)
	case tail != "":
		rec.CardTail = tail
	case strings.Contains(method, "花呗"):
		rec.SourceAccount, err = required(SourceAlipay, rec.Line, rec.Raw, "huabei_account", cfg.HuabeiAccount)
	default:
		rec.SourceAccount, err = required(SourceAlipay, rec.Line, rec.Raw, "account", cfg.Account)
	}
	return err
}

// alipayDestination recognizes wallet movements, red packets and credit
// repayments. The account each one needs must be configured. Lines it leaves
// open fall back to the category mapping when no rule matches.
func (p *Parser) alipayDestination(rec *models.Record) error {
	cfg := p.cfg.Alipay
	narration, payee, category := rec.Narration, rec.Payee, rec.Category

	if account, ok := cfg.CategoryMapping[category]; ok {
		rec.CategoryDestination = account
	}

	var key, account string
	switch {
	case payee == "余额宝" && strings.Contains(narration, "自动转入"):
		key, account = "yuebao_account", cfg.YuEBaoAccount
	case category == "转账红包" && rec.Expense():
		key, account = "red_packet_expense_account", cfg.RedPacketExpenseAccount
	case category == "转账红包":
		key, account = "red_packet_income_account", cfg.RedPacketIncomeAccount
	case rec.Expense() && category == "信用借还" && strings.Contains(narration, "还款") && strings.Contains(payee, "花呗"):
		key, account = "huabei_account", cfg.HuabeiAccount
	case rec.Expense() && category == "信用借还" && strings.Contains(narration, "抖音月付"):
		key, account = "douyin_monthly_payment_account", cfg.DouyinMonthlyAccount
	default:
		return nil
	}

	dest, err := required(SourceAlipay, rec.Line, rec.Raw, key, account)
	if err != nil {
		return err
	}
	rec.Destination = dest
	return nil
}
