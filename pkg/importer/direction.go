package importer

import (
	"strings"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/cnbean/pkg/models"
)

// Direction labels printed by payment apps.
const (
	LabelExpense    = "支出"
	LabelIncome     = "收入"
	LabelOther      = "其他"
	LabelNotCounted = "不计收支"
)

// ParseDirection maps an explicit direction label. Anything else is
// DirectionUnknown and left to the heuristics.
func ParseDirection(label string) models.Direction {
	switch strings.TrimSpace(label) {
	case LabelExpense:
		return models.DirectionExpense
	case LabelIncome:
		return models.DirectionIncome
	default:
		return models.DirectionUnknown
	}
}

// Heuristic decides the direction of a line whose label is ambiguous.
type Heuristic struct {
	Name      string
	Match     func(rec *models.Record) bool
	Direction models.Direction
	Tags      []string
}

// DefaultHeuristics recognizes refunds and the Yu'E Bao and Huabei
// transfers that Alipay reports as "其他" or "不计收支".
func DefaultHeuristics() []Heuristic {
	return []Heuristic{
		{
			Name: "refund",
			Match: func(rec *models.Record) bool {
				return strings.Contains(rec.Narration, "退款") || strings.Contains(rec.Status, "退款成功")
			},
			Direction: models.DirectionIncome,
			Tags:      []string{models.TagRefund},
		},
		{
			Name: "yuebao yield",
			Match: func(rec *models.Record) bool {
				return rec.Method == "余额宝" && strings.Contains(rec.Narration, "收益")
			},
			Direction: models.DirectionIncome,
		},
		{
			Name: "yuebao transfer in",
			Match: func(rec *models.Record) bool {
				return rec.Payee == "余额宝" && strings.Contains(rec.Narration, "转入")
			},
			Direction: models.DirectionExpense,
		},
		{
			Name: "huabei repayment",
			Match: func(rec *models.Record) bool {
				huabei := rec.Method == "花呗" || rec.Payee == "花呗"
				return huabei && strings.Contains(rec.Narration, "还款")
			},
			Direction: models.DirectionExpense,
		},
	}
}

// DirectionResolver reduces a source's direction label to an expense or
// income direction. Ambiguous lines are tagged for confirmation and treated
// as expenses instead of failing the statement.
type DirectionResolver struct {
	heuristics []Heuristic
	logger     *log.Logger
}

// NewDirectionResolver returns a resolver applying heuristics in order.
// When several fire, the last one decides the direction and all tags apply.
func NewDirectionResolver(logger *log.Logger, heuristics ...Heuristic) *DirectionResolver {
	return &DirectionResolver{heuristics: heuristics, logger: logger}
}

// Resolve sets rec.Direction from label, falling back to the heuristics.
func (d *DirectionResolver) Resolve(label string, rec *models.Record) {
	if rec.Tags == nil {
		rec.Tags = models.NewTags()
	}

	rec.Direction = ParseDirection(label)
	if rec.Direction != models.DirectionUnknown {
		return
	}

	for _, h := range d.heuristics {
		if !h.Match(rec) {
			continue
		}
		rec.Direction = h.Direction
		rec.Tags.Add(h.Tags...)
		d.logger.Debug("direction resolved by heuristic", "line", rec.Line, "heuristic", h.Name, "direction", h.Direction)
	}

	if rec.Direction == models.DirectionUnknown {
		d.logger.Warn("transaction type not recognized, please confirm", "line", rec.Line, "label", label, "narration", rec.Narration, "payee", rec.Payee)
		rec.Direction = models.DirectionExpense
		rec.Tags.Add(models.TagConfirmationNeeded)
	}
}
