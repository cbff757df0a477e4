package parser

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yurifrl/cnbean/pkg/importer"
	"github.com/yurifrl/cnbean/pkg/models"
)

const hsbcPosted = "POSTED"

// hsbcColumns maps header names to field positions.
type hsbcColumns map[string]int

func (c hsbcColumns) get(fields []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(fields) {
		return ""
	}
	return fields[i]
}

// HSBCAccount returns the account configured for an HSBC HK export. Exports
// are named "<prefix>_<anything>.csv" and the prefix selects the account.
func (p *Parser) HSBCAccount(filename string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	prefix, _, _ := strings.Cut(stem, "_")
	account, ok := p.cfg.HSBC.AccountMapping[prefix]
	if !ok {
		return "", fmt.Errorf("no importers.hsbc_hk.account_mapping entry for %q", prefix)
	}
	return account, nil
}

// ParseHSBCCSV parses an HSBC HK credit card or debit account export. Credit
// card exports carry "Transaction date", debit exports carry "Date".
func (p *Parser) ParseHSBCCSV(data []byte, filename string) (*models.Statement, error) {
	account, err := p.HSBCAccount(filename)
	if err != nil {
		return nil, err
	}

	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	rows, err := readCSV(text)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv is empty")
	}

	cols := hsbcColumns{}
	for i, name := range rows[0].Fields {
		cols[name] = i
	}
	var credit bool
	dateField := "Date"
	if _, ok := cols["Transaction date"]; ok {
		credit = true
		dateField = "Transaction date"
	} else if _, ok := cols["Date"]; !ok {
		return nil, fmt.Errorf("unknown hsbc export format in %s", filename)
	}

	st := &models.Statement{Source: SourceHSBC, File: filename}
	for _, r := range rows[1:] {
		if r.empty() {
			continue
		}
		rec, err := p.hsbcRecord(r, cols, dateField, credit, account)
		if err != nil {
			return nil, err
		}
		st.Records = append(st.Records, *rec)
	}

	sort.SliceStable(st.Records, func(i, j int) bool {
		return st.Records[i].Date.Before(st.Records[j].Date)
	})
	if n := len(st.Records); n > 0 {
		st.Start = st.Records[0].Date
		st.End = st.Records[n-1].Date
	}

	p.logger.Info("hsbc csv parsing complete", "file", filename, "account", account, "credit", credit, "records", len(st.Records))
	return st, nil
}

func (p *Parser) hsbcRecord(r csvRow, cols hsbcColumns, dateField string, credit bool, account string) (*models.Record, error) {
	f := r.Fields

	date, err := parseDate(cols.get(f, dateField))
	if err != nil {
		return nil, importer.Malformed(SourceHSBC, r.Line, f, "%v", err)
	}
	amount, err := parseAmount(cols.get(f, "Billing amount"))
	if err != nil {
		return nil, importer.Malformed(SourceHSBC, r.Line, f, "%v", err)
	}
	currency := cols.get(f, "Billing currency")
	if currency == "CNY" && p.cfg.HSBC.UseCNH {
		currency = "CNH"
	}
	narration := cols.get(f, "Description")

	rec := &models.Record{
		Line:          r.Line,
		Raw:           f,
		Date:          date,
		Amount:        amount.Abs(),
		Currency:      currency,
		Narration:     narration,
		SourceAccount: account,
		Direction:     models.DirectionIncome,
		Tags:          models.NewTags(),
		Metadata:      models.Metadata{},
	}
	if amount.IsNegative() {
		rec.Direction = models.DirectionExpense
	}

	switch {
	case strings.Contains(narration, "UNIONPAY"):
		rec.Metadata["payment_method"] = "云闪付"
	case strings.Contains(narration, "APPLEPAY"):
		rec.Metadata["payment_method"] = "Apple Pay"
	}

	if credit {
		rec.Payee = cols.get(f, "Merchant name")
		rec.Status = cols.get(f, "Transaction status")
		if rec.Status != hsbcPosted {
			p.logger.Warn("unposted transaction, please confirm", "source", SourceHSBC, "line", r.Line, "status", rec.Status)
			rec.Tags.Add(models.TagConfirmationNeeded)
		}
		if posted, err := parseDate(cols.get(f, "Post date")); err == nil {
			rec.Metadata["post_date"] = posted.Format("2006-01-02")
		}
		if country := cols.get(f, "Country / region"); country != "" {
			rec.Metadata["country"] = country
		}
		if area := cols.get(f, "Area / district"); area != "" {
			rec.Metadata["area"] = area
		}
	} else if balance, err := parseAmount(cols.get(f, "Balance")); err == nil {
		rec.Metadata["balance_after"] = balance.String() + " " + currency
	}

	return rec, nil
}
