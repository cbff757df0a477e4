package config

import (
	"fmt"
	"strings"
	"text/template"
)

// Context carries what a computed value may depend on.
type Context struct {
	Source   string
	Expense  bool
	Currency string
}

// Value is either a literal string or a function computing one from a
// Context. The zero Value is an empty literal.
type Value struct {
	literal  string
	computed func(Context) string
}

// Literal returns a constant Value.
func Literal(s string) Value {
	return Value{literal: s}
}

// Computed returns a Value evaluated at each call site.
func Computed(fn func(Context) string) Value {
	return Value{computed: fn}
}

// ParseValue turns a configured string into a Value. Strings holding a
// template action ("{{") become computed values rendered against Context.
func ParseValue(s string) (Value, error) {
	if !strings.Contains(s, "{{") {
		return Literal(s), nil
	}
	tmpl, err := template.New("value").Option("missingkey=error").Parse(s)
	if err != nil {
		return Value{}, fmt.Errorf("invalid template %q: %w", s, err)
	}
	if err := tmpl.Execute(&strings.Builder{}, Context{}); err != nil {
		return Value{}, fmt.Errorf("invalid template %q: %w", s, err)
	}
	return Computed(func(ctx Context) string {
		var b strings.Builder
		if err := tmpl.Execute(&b, ctx); err != nil {
			return s
		}
		return b.String()
	}), nil
}

// IsComputed reports whether v depends on its Context.
func (v Value) IsComputed() bool {
	return v.computed != nil
}

// Eval returns the literal or the computed string for ctx.
func (v Value) Eval(ctx Context) string {
	if v.computed != nil {
		return v.computed(ctx)
	}
	return v.literal
}

// String returns the literal, or a placeholder for computed values.
func (v Value) String() string {
	if v.computed != nil {
		return "<computed>"
	}
	return v.literal
}
