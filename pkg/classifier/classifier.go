// Package classifier resolves the destination account of a statement line
// from its narration and payee, merging the tags and metadata of every
// matching rule.
package classifier

import (
	"strings"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/cnbean/pkg/models"
	"github.com/yurifrl/cnbean/pkg/rules"
)

// Conflict records two equal-priority rules proposing unrelated accounts.
// The first-seen account is kept.
type Conflict struct {
	Narration    string
	Payee        string
	Kept         string
	KeptRule     string
	Rejected     string
	RejectedRule string
}

// Result is the merged outcome of all firing rules. Account is empty when
// no firing rule proposed one; callers then use the Fallback.
type Result struct {
	Account   string
	Metadata  models.Metadata
	Tags      models.Tags
	Conflicts []Conflict
}

// Resolved reports whether a rule picked an account.
func (r Result) Resolved() bool {
	return r.Account != ""
}

// Classifier evaluates an ordered, immutable rule set. It holds no mutable
// state and may be shared between goroutines.
type Classifier struct {
	rules  []rules.Rule
	logger *log.Logger
}

// New returns a classifier over a copy of rs, kept in the given order.
func New(rs []rules.Rule, logger *log.Logger) *Classifier {
	return &Classifier{
		rules:  append([]rules.Rule(nil), rs...),
		logger: logger,
	}
}

// Classify runs every rule in configured order. A rule with strictly higher
// priority than the current choice replaces it. At equal priority a more
// specific account (a descendant of the current one) replaces it, and an
// unrelated account is reported as a Conflict while the current one is
// kept. Metadata of later rules overwrites earlier keys; tags are unioned.
func (c *Classifier) Classify(narration, payee string) Result {
	res := Result{
		Metadata: models.Metadata{},
		Tags:     models.NewTags(),
	}

	var (
		priority int
		source   string
	)
	for _, rule := range c.rules {
		m, ok := rule.Match(narration, payee)
		if !ok {
			continue
		}

		switch {
		case res.Account == "" || m.Priority > priority:
			res.Account, priority, source = m.Account, m.Priority, rule.Name
		case m.Account != "" && m.Priority == priority:
			if Specializes(m.Account, res.Account) {
				res.Account, source = m.Account, rule.Name
			} else if !Specializes(res.Account, m.Account) {
				conflict := Conflict{
					Narration:    narration,
					Payee:        payee,
					Kept:         res.Account,
					KeptRule:     source,
					Rejected:     m.Account,
					RejectedRule: rule.Name,
				}
				res.Conflicts = append(res.Conflicts, conflict)
				c.logger.Warn("conflicting destination accounts",
					"narration", narration,
					"payee", payee,
					"kept", conflict.Kept,
					"kept_rule", conflict.KeptRule,
					"rejected", conflict.Rejected,
					"rejected_rule", conflict.RejectedRule,
				)
			}
		}

		res.Metadata.Merge(m.Metadata)
		res.Tags.Union(m.Tags)
	}

	return res
}

// Specializes reports whether account equals parent or lies below it in the
// colon-delimited hierarchy.
func Specializes(account, parent string) bool {
	if account == parent {
		return true
	}
	return strings.HasPrefix(account, parent+":")
}
