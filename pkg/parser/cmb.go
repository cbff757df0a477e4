package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/yurifrl/cnbean/pkg/importer"
	"github.com/yurifrl/cnbean/pkg/models"
	"github.com/yurifrl/cnbean/pkg/registry"
)

var (
	cmbHolderPattern  = regexp.MustCompile(`名：\s*([\p{Han}A-Za-z]+)`)
	cmbCardPattern    = regexp.MustCompile(`[0-9]{16}`)
	cmbPeriodPattern  = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})\s*--\s*(\d{4}-\d{2}-\d{2})`)
	cmbPayeePattern   = regexp.MustCompile(`^(\D*)(\d+)$`)
	cmbPageEndPattern = regexp.MustCompile(`^(\d+/\d+|合并统计)$`)
)

// Columns of the CMB transaction table: 记账日期, 货币, 交易金额, 联机余额,
// 交易摘要, 对手信息, 客户摘要.
const (
	cmbDate = iota
	cmbCurrency
	cmbAmount
	cmbBalance
	cmbType
	cmbCounterParty
	cmbSummary
)

var cmbLayout = columnLayout{
	Offsets: []float64{30, 50, 100, 200, 280, 350, 400},
	Start: func(s string) bool {
		return strings.Contains(s, "Party")
	},
	End: func(s string) bool {
		return cmbPageEndPattern.MatchString(s) || strings.Contains(s, "————")
	},
}

// ParseCMBPDF parses a China Merchants Bank debit card transaction PDF.
func (p *Parser) ParseCMBPDF(data []byte, filename string) (*models.Statement, error) {
	words, err := p.pdfWords(data)
	if err != nil {
		return nil, err
	}
	return p.parseCMB(filename, words)
}

func (p *Parser) parseCMB(filename string, words []word) (*models.Statement, error) {
	text := pdfText(words)
	if !strings.Contains(strings.ReplaceAll(text, " ", ""), "招商银行交易流水") {
		return nil, fmt.Errorf("%s is not a cmb transaction statement", filename)
	}

	holder := ""
	if m := cmbHolderPattern.FindStringSubmatch(text); m != nil {
		holder = m[1]
	}
	card := cmbCardPattern.FindString(text)
	if card == "" {
		return nil, fmt.Errorf("invalid cmb statement %s: no card number found", filename)
	}

	st := &models.Statement{Source: SourceCMB, File: filename}
	if m := cmbPeriodPattern.FindStringSubmatch(text); m != nil {
		st.Start, _ = parseDate(m[1])
		st.End, _ = parseDate(m[2])
	}

	for i, tr := range assembleRows(words, cmbLayout) {
		if tr.Cells[cmbDate] == "" {
			p.logger.Debug("row without date, skipping", "page", tr.Page, "cells", tr.Cells)
			continue
		}
		rec, err := p.cmbRecord(i+1, tr.Cells, registry.Tail(card, 4), holder)
		if err != nil {
			return nil, err
		}
		st.Records = append(st.Records, *rec)
	}

	p.logger.Info("cmb pdf parsing complete", "file", filename, "records", len(st.Records))
	return st, nil
}

func (p *Parser) cmbRecord(line int, cells []string, tail, holder string) (*models.Record, error) {
	date, err := parseDate(cells[cmbDate])
	if err != nil {
		return nil, importer.Malformed(SourceCMB, line, cells, "%v", err)
	}
	amount, err := parseAmount(cells[cmbAmount])
	if err != nil {
		return nil, importer.Malformed(SourceCMB, line, cells, "%v", err)
	}

	currency := ""
	if code, ok := models.CurrencyCode(cells[cmbCurrency]); ok {
		currency = code
	}

	narration := cells[cmbSummary]
	if narration == "" {
		narration = cells[cmbType]
	}
	payee, payeeAccount := cells[cmbCounterParty], ""
	if m := cmbPayeePattern.FindStringSubmatch(payee); m != nil {
		payee, payeeAccount = strings.TrimSpace(m[1]), m[2]
	}

	rec := &models.Record{
		Line:          line,
		Raw:           cells,
		Date:          date,
		Amount:        amount.Abs(),
		Currency:      currency,
		Narration:     narration,
		Payee:         payee,
		Direction:     models.DirectionIncome,
		CardTail:      tail,
		Blacklistable: true,
		Tags:          models.NewTags(),
		Metadata:      models.Metadata{},
	}
	if amount.IsNegative() {
		rec.Direction = models.DirectionExpense
	}
	if balance, err := parseAmount(cells[cmbBalance]); err == nil {
		rec.Metadata["balance"] = balance.String()
	}
	if payeeAccount != "" {
		rec.Metadata["payee_account"] = payeeAccount
	}

	// Transfers between the holder's own cards.
	if holder != "" && payeeAccount != "" && strings.HasPrefix(payee, holder) {
		account, err := p.ownAccount(payeeAccount)
		switch {
		case err == nil:
			rec.Destination = account
		case !errors.Is(err, registry.ErrNotFound):
			return nil, &importer.LineError{Source: SourceCMB, Line: line, Row: cells, Err: err}
		}
	}
	return rec, nil
}

// ownAccount looks up a counter party account number, first as printed and
// then by its last four digits.
func (p *Parser) ownAccount(number string) (string, error) {
	account, err := p.cfg.Registry.Lookup(number)
	if err == nil {
		return account, nil
	}
	return p.cfg.Registry.Lookup(registry.Tail(number, 4))
}
