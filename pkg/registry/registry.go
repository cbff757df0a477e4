// Package registry resolves card and account numbers to ledger account paths.
package registry

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrNotFound is returned when a card number is not configured.
var ErrNotFound = errors.New("card number not found")

// Table is the configured layout: account prefix -> bank -> card numbers.
type Table map[string]map[string][]string

// Entry is the location a card number was registered under.
type Entry struct {
	Prefix string
	Bank   string
}

// Account returns the fully qualified account for a card number.
func (e Entry) Account(number string) string {
	return fmt.Sprintf("%s:%s:%s", e.Prefix, e.Bank, number)
}

// CollisionError reports a card number configured under more than one
// (prefix, bank) pair.
type CollisionError struct {
	Number  string
	Entries []Entry
}

func (e *CollisionError) Error() string {
	places := make([]string, len(e.Entries))
	for i, entry := range e.Entries {
		places[i] = entry.Prefix + ":" + entry.Bank
	}
	return fmt.Sprintf("card number %s is registered under %s", e.Number, strings.Join(places, " and "))
}

// Registry maps card numbers to accounts. It is read-only after New and
// safe for concurrent use.
type Registry struct {
	entries map[string]Entry
}

// New builds a registry from a table. A number appearing under two
// different (prefix, bank) pairs is rejected.
func New(table Table) (*Registry, error) {
	r := &Registry{entries: make(map[string]Entry)}

	// Iterate in a fixed order so collision errors are reproducible.
	for _, prefix := range sortedKeys(table) {
		banks := table[prefix]
		for _, bank := range sortedKeys(banks) {
			for _, number := range banks[bank] {
				number = strings.TrimSpace(number)
				if number == "" {
					return nil, fmt.Errorf("empty card number under %s:%s", prefix, bank)
				}
				entry := Entry{Prefix: prefix, Bank: bank}
				if prev, ok := r.entries[number]; ok && prev != entry {
					return nil, &CollisionError{Number: number, Entries: []Entry{prev, entry}}
				}
				r.entries[number] = entry
			}
		}
	}
	return r, nil
}

// Lookup returns the account registered for number. The number must be
// given at the length used in the configuration, usually the last four
// digits.
func (r *Registry) Lookup(number string) (string, error) {
	number = strings.TrimSpace(number)
	entry, ok := r.entries[number]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, number)
	}
	return entry.Account(number), nil
}

// Len returns the number of registered card numbers.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Tail returns the last n characters of number, or number itself when it
// is shorter.
func Tail(number string, n int) string {
	number = strings.TrimSpace(number)
	if len(number) <= n {
		return number
	}
	return number[len(number)-n:]
}

var cardTailPattern = regexp.MustCompile(`.*银行.*\(([0-9]{4})\)`)

// CardTail extracts the last four digits from payment method strings such
// as "招商银行储蓄卡(1234)". It returns "" when s names no bank card.
func CardTail(s string) string {
	m := cardTailPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
