package siteprefs

import (
	"strings"

	"github.com/jobease/jobfill/pkg/dom"
	"github.com/jobease/jobfill/pkg/label"
	"golang.org/x/net/html"
)

// labelKey is the normalized label a control is remembered under. Radios
// are remembered by the legend of their group since their own label is the
// option text.
func labelKey(c *dom.Control) string {
	if c.Kind() == dom.KindRadio {
		return label.Normalize(label.Legend(c))
	}
	return label.Normalize(label.Resolve(c))
}

// PageLabels is the sorted set of normalized labels of all controls on page.
func PageLabels(page *dom.Page) []string {
	e := &Entry{}
	for _, c := range page.Controls() {
		e.addLabel(label.Normalize(label.GroupLabel(c)))
	}
	return e.Labels
}

// Snapshot records the current state of every radio group, checkbox and
// select on page, plus non-empty text controls, both by name/id and by
// label. Controls listed in written hold values the engine derived from the
// profile and are left out, as are controls without a name, id or label.
func Snapshot(page *dom.Page, written map[*html.Node]bool) *Entry {
	host := page.Hostname()
	e := NewEntry(host)
	e.RootDomain = RootDomain(host)
	e.Vendor = DetectVendor(page)
	e.Labels = PageLabels(page)

	for _, c := range page.Controls() {
		if written[c.Node] {
			continue
		}
		record(e, c)
	}
	return e
}

// record stores the state of one control into e. It reports whether c is a
// kind that is remembered.
func record(e *Entry, c *dom.Control) bool {
	key := c.Key()
	lk := labelKey(c)

	switch c.Kind() {
	case dom.KindRadio:
		if !c.Checked() {
			return false
		}
		if c.Name() != "" {
			e.Radios[c.Name()] = c.Value()
		}
		if lk != "" {
			e.RadiosByLabel[lk] = c.Value()
		}
	case dom.KindCheckbox:
		if key != "" {
			e.Checkboxes[key] = c.Checked()
		}
		if lk != "" {
			e.CheckboxesByLabel[lk] = c.Checked()
		}
	case dom.KindSelect:
		v := c.Value()
		if key != "" {
			e.Selects[key] = v
		}
		if lk != "" {
			e.SelectsByLabel[lk] = v
		}
	case dom.KindText:
		v := c.Value()
		if strings.TrimSpace(v) == "" {
			return false
		}
		if key != "" {
			e.Texts[key] = v
		}
		if lk != "" {
			e.TextsByLabel[lk] = v
		}
	default:
		return false
	}
	return true
}
