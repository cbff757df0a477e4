package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/extrame/xls"

	"github.com/yurifrl/cnbean/pkg/importer"
	"github.com/yurifrl/cnbean/pkg/models"
	"github.com/yurifrl/cnbean/pkg/registry"
)

var (
	ccbStartPattern = regexp.MustCompile(`起始日期:(\d+)`)
	ccbEndPattern   = regexp.MustCompile(`结束日期:(\d+)`)
	ccbCardPattern  = regexp.MustCompile(`卡号/账号:([0-9]{19})`)
)

const ccbMaxRows = 5000

// ParseCCBCSV parses a China Construction Bank debit card export.
func (p *Parser) ParseCCBCSV(data []byte, filename string) (*models.Statement, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	rows, err := readCSV(text)
	if err != nil {
		return nil, err
	}
	return p.parseCCB(filename, text, rows)
}

// ParseCCBXLS parses the same export saved as an Excel workbook.
func (p *Parser) ParseCCBXLS(data []byte, filename string) (*models.Statement, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("error creating workbook: %w", err)
	}

	cells := workbook.ReadAllCells(ccbMaxRows)
	if len(cells) == 0 {
		return nil, fmt.Errorf("no data found in sheet")
	}

	rows := make([]csvRow, 0, len(cells))
	lines := make([]string, 0, len(cells))
	for i, fields := range cells {
		for j := range fields {
			fields[j] = strings.TrimSpace(fields[j])
		}
		rows = append(rows, csvRow{Line: i + 1, Fields: fields})
		lines = append(lines, strings.Join(fields, ","))
	}
	return p.parseCCB(filename, strings.Join(lines, "\n"), rows)
}

// parseCCB reads rows with columns:
// 序号, 摘要, 币别, 钞汇, 交易日期, 交易金额, 账户余额, 交易地点/附言, 对方账号与户名
func (p *Parser) parseCCB(filename, text string, rows []csvRow) (*models.Statement, error) {
	m := ccbCardPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("invalid ccb statement %s: no card number found", filename)
	}
	tail := registry.Tail(m[1], 4)

	st := &models.Statement{
		Source: SourceCCB,
		File:   filename,
		Start:  findDate(text, ccbStartPattern),
		End:    findDate(text, ccbEndPattern),
	}

	begin := false
	for _, r := range rows {
		if len(r.Fields) <= 2 {
			continue
		}
		if !begin {
			begin = r.Fields[0] == "序号" && r.Fields[1] == "摘要"
			continue
		}
		if r.empty() {
			continue
		}
		if len(r.Fields) < 9 {
			return nil, importer.Malformed(SourceCCB, r.Line, r.Fields, "expected 9 fields, got %d", len(r.Fields))
		}

		rec, err := ccbRecord(r, tail)
		if err != nil {
			return nil, err
		}
		st.Records = append(st.Records, *rec)
	}
	if !begin {
		return nil, fmt.Errorf("no transaction table found in %s", filename)
	}

	p.logger.Info("ccb parsing complete", "file", filename, "card", tail, "records", len(st.Records))
	return st, nil
}

func ccbRecord(r csvRow, tail string) (*models.Record, error) {
	f := r.Fields
	narration, cash, cashType, attach, payee := f[1], f[2], f[3], f[7], f[8]

	date, err := parseDate(f[4])
	if err != nil {
		return nil, importer.Malformed(SourceCCB, r.Line, f, "%v", err)
	}
	amount, err := parseAmount(f[5])
	if err != nil {
		return nil, importer.Malformed(SourceCCB, r.Line, f, "%v", err)
	}
	currency, ok := models.CurrencyCode(cash)
	if !ok {
		currency, ok = models.CurrencyCode(strings.TrimSuffix(cash, "元"))
	}
	if !ok {
		return nil, importer.Malformed(SourceCCB, r.Line, f, "unknown currency %q", cash)
	}

	rec := &models.Record{
		Line:          r.Line,
		Raw:           f,
		Date:          date,
		Amount:        amount.Abs(),
		Currency:      currency,
		Narration:     narration,
		Payee:         payee,
		CardTail:      tail,
		Blacklistable: true,
		Tags:          models.NewTags(),
		Metadata:      models.Metadata{"attach": attach},
	}
	if cashType != "" {
		rec.Metadata["cash_type"] = cashType
	}
	if balance, err := parseAmount(f[6]); err == nil {
		rec.Metadata["balance"] = balance.String()
	}

	switch amount.Sign() {
	case -1:
		rec.Direction = models.DirectionExpense
	case 1:
		rec.Direction = models.DirectionIncome
	default:
		return nil, importer.Malformed(SourceCCB, r.Line, f, "zero amount")
	}
	return rec, nil
}
