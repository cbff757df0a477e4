// Package importer turns normalized statement records into balanced
// transactions. Every adapter feeds the same pipeline: blacklist check,
// source account lookup, rule classification, fallback.
package importer

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/cnbean/pkg/classifier"
	"github.com/yurifrl/cnbean/pkg/config"
	"github.com/yurifrl/cnbean/pkg/models"
)

// Importer holds read-only state derived from the configuration and may be
// shared between goroutines importing different files.
type Importer struct {
	cfg        *config.Config
	classifier *classifier.Classifier
	fallback   classifier.Fallback
	filter     classifier.Filter
	logger     *log.Logger
}

// New returns an Importer for cfg.
func New(cfg *config.Config, logger *log.Logger) *Importer {
	return &Importer{
		cfg:        cfg,
		classifier: classifier.New(cfg.Rules, logger),
		fallback: classifier.Fallback{
			Expense: cfg.UnknownExpense,
			Income:  cfg.UnknownIncome,
		},
		filter: classifier.Filter{
			Whitelist: cfg.NarrationWhitelist,
			Blacklist: cfg.NarrationBlacklist,
		},
		logger: logger,
	}
}

// Classifier exposes the rule classifier built from the configuration.
func (i *Importer) Classifier() *classifier.Classifier {
	return i.classifier
}

// ImportStatement builds every record of st. The first fatal line error
// aborts the whole statement and no transactions are returned for it.
func (i *Importer) ImportStatement(st *models.Statement) ([]*models.Transaction, error) {
	txs := make([]*models.Transaction, 0, len(st.Records))
	for idx := range st.Records {
		tx, err := i.Build(st.Source, &st.Records[idx])
		if err != nil {
			return nil, fmt.Errorf("failed to import %s: %w", st.File, err)
		}
		if tx != nil {
			txs = append(txs, tx)
		}
	}
	i.logger.Debug("statement imported", "file", st.File, "source", st.Source, "records", len(st.Records), "transactions", len(txs))
	return txs, nil
}

// Build turns one record into a transaction. Blacklisted records yield a nil
// transaction and no error. Unknown card numbers and unbuildable records
// are returned as *LineError.
func (i *Importer) Build(source string, rec *models.Record) (*models.Transaction, error) {
	if rec.Blacklistable && i.filter.Blacklisted(rec.Narration) {
		i.logger.Debug("skipping blacklisted line", "source", source, "line", rec.Line, "narration", rec.Narration)
		return nil, nil
	}

	src, err := i.sourceAccount(source, rec)
	if err != nil {
		return nil, err
	}

	tags := models.NewTags()
	tags.Union(rec.Tags)
	meta := models.Metadata{}
	meta.Merge(rec.Metadata)

	if rec.Direction == models.DirectionUnknown {
		i.logger.Warn("transaction direction not recognized, please confirm", "source", source, "line", rec.Line, "narration", rec.Narration)
		tags.Add(models.TagConfirmationNeeded)
	}

	res := i.classifier.Classify(rec.Narration, rec.Payee)
	meta.Merge(res.Metadata)
	tags.Union(res.Tags)
	if len(res.Conflicts) > 0 {
		tags.Add(models.TagConfirmationNeeded)
	}

	currency := rec.Currency
	if currency == "" {
		currency = i.cfg.DefaultCurrency
	}

	dest := i.destination(source, currency, rec, res)

	amount := rec.Amount.Abs()
	if rec.Expense() {
		amount = amount.Neg()
	}

	tx, err := models.NewTransaction(rec.Narration).
		SetPayee(rec.Payee).
		SetDate(rec.Date).
		AddTags(tags).
		MergeMetadata(meta).
		SetSource(src, amount, currency).
		SetDestination(dest).
		Build()
	if err != nil {
		return nil, Malformed(source, rec.Line, rec.Raw, "%v", err)
	}
	return tx, nil
}

func (i *Importer) sourceAccount(source string, rec *models.Record) (string, error) {
	if rec.SourceAccount != "" {
		return rec.SourceAccount, nil
	}
	if rec.CardTail == "" {
		return "", Malformed(source, rec.Line, rec.Raw, "no source account")
	}
	account, err := i.cfg.Registry.Lookup(rec.CardTail)
	if err != nil {
		return "", &LineError{Source: source, Line: rec.Line, Row: rec.Raw, Err: err}
	}
	return account, nil
}

// destination picks, in order: the account the adapter recognized, the
// classifier's account, the adapter's category mapping, the fallback.
func (i *Importer) destination(source, currency string, rec *models.Record, res classifier.Result) string {
	switch {
	case rec.Destination != "":
		return rec.Destination
	case res.Resolved():
		return res.Account
	case rec.CategoryDestination != "":
		return rec.CategoryDestination
	default:
		return i.fallback.Account(rec.Expense(), config.Context{Source: source, Currency: currency})
	}
}
