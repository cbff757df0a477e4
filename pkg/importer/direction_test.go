package importer

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"

	"github.com/yurifrl/cnbean/pkg/models"
)

func TestDirectionResolver_Resolve(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		rec     models.Record
		want    models.Direction
		wantTag string
	}{
		{name: "explicit expense", label: "支出", want: models.DirectionExpense},
		{name: "explicit income", label: "收入", want: models.DirectionIncome},
		{
			name:    "refund by narration",
			label:   "不计收支",
			rec:     models.Record{Narration: "退款-商品退货"},
			want:    models.DirectionIncome,
			wantTag: models.TagRefund,
		},
		{
			name:    "refund by status",
			label:   "其他",
			rec:     models.Record{Narration: "商品", Status: "退款成功"},
			want:    models.DirectionIncome,
			wantTag: models.TagRefund,
		},
		{
			name:  "yuebao yield",
			label: "不计收支",
			rec:   models.Record{Narration: "余额宝-收益发放", Method: "余额宝"},
			want:  models.DirectionIncome,
		},
		{
			name:  "yuebao transfer in",
			label: "不计收支",
			rec:   models.Record{Narration: "余额宝-自动转入", Payee: "余额宝"},
			want:  models.DirectionExpense,
		},
		{
			name:  "huabei repayment",
			label: "不计收支",
			rec:   models.Record{Narration: "花呗主动还款", Payee: "花呗"},
			want:  models.DirectionExpense,
		},
		{
			name:    "nothing fires",
			label:   "不计收支",
			rec:     models.Record{Narration: "交易关闭"},
			want:    models.DirectionExpense,
			wantTag: models.TagConfirmationNeeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewDirectionResolver(log.New(&bytes.Buffer{}), DefaultHeuristics()...)
			rec := tt.rec
			r.Resolve(tt.label, &rec)
			assert.Equal(t, tt.want, rec.Direction)
			if tt.wantTag != "" {
				assert.True(t, rec.Tags.Has(tt.wantTag))
			} else {
				assert.Empty(t, rec.Tags)
			}
		})
	}
}

func TestDirectionResolver_LastHeuristicWins(t *testing.T) {
	r := NewDirectionResolver(log.New(&bytes.Buffer{}), DefaultHeuristics()...)
	rec := models.Record{Narration: "余额宝-转入-退款", Payee: "余额宝"}
	r.Resolve("其他", &rec)

	assert.Equal(t, models.DirectionExpense, rec.Direction)
	assert.True(t, rec.Tags.Has(models.TagRefund))
}
