package classifier

import "strings"

// Filter drops bank card lines that duplicate a payment app line, such as a
// card debit routed through Alipay or WeChat Pay.
type Filter struct {
	Whitelist []string
	Blacklist []string
}

// Blacklisted reports whether narration names a blacklisted payment rail.
// Any whitelist keyword overrides the blacklist.
func (f Filter) Blacklisted(narration string) bool {
	for _, kw := range f.Whitelist {
		if strings.Contains(narration, kw) {
			return false
		}
	}
	for _, kw := range f.Blacklist {
		if strings.Contains(narration, kw) {
			return true
		}
	}
	return false
}
