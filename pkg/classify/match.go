package classify

import (
	"strings"
	"unicode"
)

// Matcher tests the aggregated, lower-cased text of a control.
type Matcher interface {
	Match(text string) bool
}

type matchFunc func(string) bool

func (f matchFunc) Match(text string) bool { return f(text) }

// has matches when text contains any of subs.
func has(subs ...string) Matcher {
	return matchFunc(func(text string) bool {
		for _, s := range subs {
			if strings.Contains(text, s) {
				return true
			}
		}
		return false
	})
}

// all matches when text contains every one of subs, in any order.
func all(subs ...string) Matcher {
	return matchFunc(func(text string) bool {
		for _, s := range subs {
			if !strings.Contains(text, s) {
				return false
			}
		}
		return true
	})
}

// seq matches when subs appear in text in the given order.
func seq(subs ...string) Matcher {
	return matchFunc(func(text string) bool {
		rest := text
		for _, s := range subs {
			i := strings.Index(rest, s)
			if i < 0 {
				return false
			}
			rest = rest[i+len(s):]
		}
		return true
	})
}

// word matches when w is one of the alphanumeric tokens of text.
func word(w string) Matcher {
	return matchFunc(func(text string) bool {
		for _, tok := range tokens(text) {
			if tok == w {
				return true
			}
		}
		return false
	})
}

// only matches when every token of text equals w, e.g. name="name" with a
// "Name" label.
func only(w string) Matcher {
	return matchFunc(func(text string) bool {
		toks := tokens(text)
		if len(toks) == 0 {
			return false
		}
		for _, tok := range toks {
			if tok != w {
				return false
			}
		}
		return true
	})
}

// oneOf matches when one of ms matches.
func oneOf(ms ...Matcher) Matcher {
	return matchFunc(func(text string) bool {
		for _, m := range ms {
			if m.Match(text) {
				return true
			}
		}
		return false
	})
}

func tokens(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// datePart matches the "<prefix> ... <unit>" family of labels for one part
// of a start or end date: "start month", "start_month", "startmonth",
// "start mm".
func datePart(prefix, unit, short string) Matcher {
	return oneOf(
		seq(prefix+" ", unit),
		seq(prefix+"_", unit),
		has(prefix+unit, prefix+" "+short),
	)
}
