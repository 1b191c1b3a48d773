// Package normalize expands profile values into the alternative spellings a
// form control may expect: degree abbreviations, month names and numbers,
// and ISO dates.
package normalize

import (
	"fmt"
	"strconv"
	"strings"
)

// degreeStems maps a recognised stem to the abbreviations it expands to.
// Order is significant: variants are returned in this order.
var degreeStems = []struct {
	stems    []string
	variants []string
}{
	{[]string{"bachelor"}, []string{"bachelor", "bachelors", "ba", "bs", "bsc"}},
	{[]string{"master"}, []string{"master", "masters", "ms", "msc"}},
	{[]string{"associate"}, []string{"associate", "associate's", "aa", "as"}},
	{[]string{"doctor", "phd"}, []string{"phd", "doctorate"}},
}

var degreeCleaner = strings.NewReplacer("‘", "", "’", "", "'", "", ".", "")

// DegreeVariants returns the deduplicated, ordered candidate substrings used
// to find a degree among select options by case-insensitive containment.
// The cleaned input always comes first.
func DegreeVariants(degree string) []string {
	cleaned := strings.TrimSpace(degreeCleaner.Replace(strings.ToLower(degree)))
	if cleaned == "" {
		return nil
	}

	var out []string
	seen := make(map[string]struct{})
	add := func(v string) {
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	add(cleaned)
	for _, d := range degreeStems {
		for _, stem := range d.stems {
			if strings.Contains(cleaned, stem) {
				for _, v := range d.variants {
					add(v)
				}
				break
			}
		}
	}
	add(strings.TrimSpace(strings.TrimSuffix(cleaned, "degree")))
	return out
}

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// MonthVariants returns {zero-padded, bare number, full name, 3-letter
// abbreviation} for a 1-12 month number, deduplicated. Anything else comes
// back unchanged as a single element; an empty input yields nil.
func MonthVariants(m string) []string {
	m = strings.TrimSpace(m)
	if m == "" {
		return nil
	}
	num, err := strconv.Atoi(m)
	if err != nil || num < 1 || num > 12 {
		return []string{m}
	}

	full := monthNames[num-1]
	candidates := []string{fmt.Sprintf("%02d", num), strconv.Itoa(num), full, full[:3]}
	out := candidates[:0]
	seen := make(map[string]struct{})
	for _, v := range candidates {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// MonthNumber parses a month given as a number or an English name or
// abbreviation. It returns 0 when m is not a month.
func MonthNumber(m string) int {
	m = strings.ToLower(strings.TrimSpace(m))
	if n, err := strconv.Atoi(m); err == nil {
		if n >= 1 && n <= 12 {
			return n
		}
		return 0
	}
	if len(m) < 3 {
		return 0
	}
	for i, name := range monthNames {
		if strings.HasPrefix(name, m) {
			return i + 1
		}
	}
	return 0
}

// MonthName returns the capitalised English name of a month, or m itself
// when it is not a month.
func MonthName(m string) string {
	n := MonthNumber(m)
	if n == 0 {
		return m
	}
	name := monthNames[n-1]
	return strings.ToUpper(name[:1]) + name[1:]
}

// ISODate composes a YYYY-MM-DD date. The day defaults to "01". It reports
// false when the year or month is missing or not a month.
func ISODate(year, month, day string) (string, bool) {
	year = strings.TrimSpace(year)
	mn := MonthNumber(month)
	if year == "" || mn == 0 {
		return "", false
	}
	d := 1
	if day = strings.TrimSpace(day); day != "" {
		if n, err := strconv.Atoi(day); err == nil && n >= 1 && n <= 31 {
			d = n
		}
	}
	return fmt.Sprintf("%s-%02d-%02d", year, mn, d), true
}
