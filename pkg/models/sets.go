package models

import "sort"

// Well-known tags attached by the importer and the adapters.
const (
	TagConfirmationNeeded = "confirmation-needed"
	TagRefund             = "refund"
	TagFamilyCard         = "family-card"
)

// Tags is an unordered set of transaction tags.
type Tags map[string]struct{}

// NewTags returns a set holding the given tags.
func NewTags(tags ...string) Tags {
	t := make(Tags, len(tags))
	t.Add(tags...)
	return t
}

func (t Tags) Add(tags ...string) {
	for _, tag := range tags {
		t[tag] = struct{}{}
	}
}

// Union adds every tag of other to t.
func (t Tags) Union(other Tags) {
	for tag := range other {
		t[tag] = struct{}{}
	}
}

func (t Tags) Has(tag string) bool {
	_, ok := t[tag]
	return ok
}

func (t Tags) Clone() Tags {
	out := make(Tags, len(t))
	out.Union(t)
	return out
}

// Sorted returns the tags in lexical order, for stable output.
func (t Tags) Sorted() []string {
	out := make([]string, 0, len(t))
	for tag := range t {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Metadata holds key/value pairs attached to a transaction.
type Metadata map[string]any

// Merge copies every entry of other into m. Existing keys are overwritten.
func (m Metadata) Merge(other Metadata) {
	for k, v := range other {
		m[k] = v
	}
}

func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	out.Merge(m)
	return out
}

// Keys returns the metadata keys in lexical order.
func (m Metadata) Keys() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
