// Package rules defines the declarative keyword rules used to pick a
// destination account and attach tags and metadata to a statement line.
package rules

import (
	"strings"

	"github.com/yurifrl/cnbean/pkg/models"
)

// MatchLogic combines the narration and payee keyword tests.
type MatchLogic string

const (
	LogicOr  MatchLogic = "OR"
	LogicAnd MatchLogic = "AND"
)

// PayeeKeywords is either an explicit keyword list or the marker that the
// narration keywords are reused for the payee.
type PayeeKeywords struct {
	Keywords        []string
	SameAsNarration bool
}

// Keywords builds an explicit payee keyword list.
func Keywords(keywords ...string) PayeeKeywords {
	return PayeeKeywords{Keywords: keywords}
}

// SameAsNarration reuses the narration keywords for the payee.
func SameAsNarration() PayeeKeywords {
	return PayeeKeywords{SameAsNarration: true}
}

// Rule is a single detail mapping. Rules are loaded once and never mutated.
type Rule struct {
	Name               string
	NarrationKeywords  []string
	PayeeKeywords      PayeeKeywords
	DestinationAccount string
	AdditionalTags     []string
	AdditionalMetadata models.Metadata
	Priority           int
	MatchLogic         MatchLogic
}

// Result is what a firing rule contributes to a classification.
// An empty Account means the rule only contributes tags and metadata.
type Result struct {
	Account  string
	Metadata models.Metadata
	Tags     models.Tags
	Priority int
}

// Logic returns the effective match logic; unset means OR.
func (r Rule) Logic() MatchLogic {
	if r.MatchLogic == "" {
		return LogicOr
	}
	return r.MatchLogic
}

// EffectivePayeeKeywords resolves the same-as-narration marker.
func (r Rule) EffectivePayeeKeywords() []string {
	if r.PayeeKeywords.SameAsNarration {
		return r.NarrationKeywords
	}
	return r.PayeeKeywords.Keywords
}

// Dead reports whether the rule can never fire.
func (r Rule) Dead() bool {
	narration := len(r.NarrationKeywords) > 0
	payee := len(r.EffectivePayeeKeywords()) > 0
	if r.Logic() == LogicAnd {
		return !narration || !payee
	}
	return !narration && !payee
}

// Match tests the rule against a narration and a payee. Matching is a
// case-sensitive, unanchored substring test. An empty narration or payee
// never matches. On a hit the returned Result holds copies of the rule's
// tags and metadata, so callers may merge into them freely.
func (r Rule) Match(narration, payee string) (Result, bool) {
	narrationMatch := containsAny(narration, r.NarrationKeywords)
	payeeMatch := containsAny(payee, r.EffectivePayeeKeywords())

	var fired bool
	switch r.Logic() {
	case LogicOr:
		fired = narrationMatch || payeeMatch
	case LogicAnd:
		fired = narrationMatch && payeeMatch
	}
	if !fired {
		return Result{}, false
	}
	return r.result(), true
}

func (r Rule) result() Result {
	meta := models.Metadata{}
	if r.AdditionalMetadata != nil {
		meta = r.AdditionalMetadata.Clone()
	}
	return Result{
		Account:  r.DestinationAccount,
		Metadata: meta,
		Tags:     models.NewTags(r.AdditionalTags...),
		Priority: r.Priority,
	}
}

func containsAny(text string, keywords []string) bool {
	if text == "" {
		return false
	}
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
