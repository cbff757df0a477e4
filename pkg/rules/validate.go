package rules

import (
	"fmt"
	"strings"
)

// ValidationError reports a rule that cannot be loaded.
type ValidationError struct {
	Rule   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("rule %q: %s", e.Rule, e.Reason)
}

// Validate checks a rule set. Malformed rules are returned as an error;
// rules that can never fire only produce warnings.
func Validate(rules []Rule) ([]string, error) {
	var warnings []string
	for _, r := range rules {
		if err := validateRule(r); err != nil {
			return warnings, err
		}
		if r.Dead() {
			warnings = append(warnings, fmt.Sprintf("rule %q can never fire: no keywords to match", r.Name))
		}
	}
	return warnings, nil
}

func validateRule(r Rule) error {
	switch r.Logic() {
	case LogicOr, LogicAnd:
	default:
		return &ValidationError{Rule: r.Name, Reason: fmt.Sprintf("unknown match logic %q", r.MatchLogic)}
	}
	for _, kw := range r.NarrationKeywords {
		if kw == "" {
			return &ValidationError{Rule: r.Name, Reason: "empty narration keyword"}
		}
	}
	for _, kw := range r.PayeeKeywords.Keywords {
		if kw == "" {
			return &ValidationError{Rule: r.Name, Reason: "empty payee keyword"}
		}
	}
	if r.PayeeKeywords.SameAsNarration && len(r.PayeeKeywords.Keywords) > 0 {
		return &ValidationError{Rule: r.Name, Reason: "payee keywords cannot be both a list and same as narration"}
	}
	if r.DestinationAccount != "" && !ValidAccount(r.DestinationAccount) {
		return &ValidationError{Rule: r.Name, Reason: fmt.Sprintf("malformed destination account %q", r.DestinationAccount)}
	}
	for _, tag := range r.AdditionalTags {
		if tag == "" || strings.ContainsAny(tag, " \t") {
			return &ValidationError{Rule: r.Name, Reason: fmt.Sprintf("malformed tag %q", tag)}
		}
	}
	return nil
}

// ValidAccount reports whether s is a colon-delimited account path with at
// least two non-empty segments and no whitespace.
func ValidAccount(s string) bool {
	segments := strings.Split(s, ":")
	if len(segments) < 2 {
		return false
	}
	for _, seg := range segments {
		if seg == "" || strings.ContainsAny(seg, " \t\n") {
			return false
		}
	}
	return true
}
