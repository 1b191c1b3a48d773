package siteprefs

import (
	"fmt"
	"sort"

	"github.com/jobease/jobfill/pkg/dom"
	"github.com/jobease/jobfill/pkg/fill"
	"golang.org/x/net/html"
)

// Apply replays e on page. Name/id keyed answers go first; label keyed
// answers then fill controls the first round did not touch. Replays are
// traced on x but never count as filled. It returns the number of controls
// written.
func Apply(page *dom.Page, e *Entry, x *fill.Executor) int {
	if e == nil {
		return 0
	}
	done := map[*html.Node]bool{}
	n := 0
	replay := func(field string, c *dom.Control, fn func() error) {
		if c == nil || done[c.Node] {
			return
		}
		done[c.Node] = true
		if x.Trace(field, fn) {
			n++
		}
	}

	for _, key := range sortedKeys(e.Radios) {
		val := e.Radios[key]
		c := page.Find(func(c *dom.Control) bool {
			return c.Kind() == dom.KindRadio && c.Name() == key && c.Value() == val
		})
		replay("site-pref radio:"+key, c, checkRadio(c))
	}
	for _, key := range sortedKeys(e.Checkboxes) {
		c := byKey(page, dom.KindCheckbox, key)
		replay("site-pref checkbox:"+key, c, setCheckbox(c, e.Checkboxes[key]))
	}
	for _, key := range sortedKeys(e.Selects) {
		c := byKey(page, dom.KindSelect, key)
		replay("site-pref select:"+key, c, setSelect(c, e.Selects[key]))
	}
	for _, key := range sortedKeys(e.Texts) {
		c := textByKey(page, key)
		replay("site-pref text:"+key, c, setText(c, e.Texts[key]))
	}

	for _, lk := range sortedKeys(e.RadiosByLabel) {
		val := e.RadiosByLabel[lk]
		c := page.Find(func(c *dom.Control) bool {
			return c.Kind() == dom.KindRadio && c.Value() == val && labelKey(c) == lk
		})
		replay("site-pref radio label:"+lk, c, checkRadio(c))
	}
	for _, lk := range sortedKeys(e.CheckboxesByLabel) {
		c := byLabel(page, dom.KindCheckbox, lk, done)
		replay("site-pref checkbox label:"+lk, c, setCheckbox(c, e.CheckboxesByLabel[lk]))
	}
	for _, lk := range sortedKeys(e.SelectsByLabel) {
		c := byLabel(page, dom.KindSelect, lk, done)
		replay("site-pref select label:"+lk, c, setSelect(c, e.SelectsByLabel[lk]))
	}
	for _, lk := range sortedKeys(e.TextsByLabel) {
		c := byLabel(page, dom.KindText, lk, done)
		replay("site-pref text label:"+lk, c, setText(c, e.TextsByLabel[lk]))
	}
	return n
}

func checkRadio(c *dom.Control) func() error {
	return func() error {
		c.SetChecked(true)
		c.Notify(dom.EventChange)
		return nil
	}
}

func setCheckbox(c *dom.Control, on bool) func() error {
	return func() error {
		c.SetChecked(on)
		c.Notify(dom.EventChange)
		return nil
	}
}

// setSelect picks the option whose value equals val; otherwise the raw
// assignment leaves the select without a selection, as the DOM does.
func setSelect(c *dom.Control, val string) func() error {
	return func() error {
		c.SetValue(val)
		c.Notify(dom.EventChange)
		return nil
	}
}

func setText(c *dom.Control, val string) func() error {
	return func() error {
		if c.Kind() != dom.KindText {
			return fmt.Errorf("%s is not a text control", c.Describe())
		}
		c.SetValue(val)
		c.Notify(dom.EventInput)
		c.Notify(dom.EventChange)
		return nil
	}
}

// byKey finds a control of kind named key, falling back to the element
// with id key.
func byKey(page *dom.Page, kind dom.Kind, key string) *dom.Control {
	if c := page.Find(func(c *dom.Control) bool { return c.Kind() == kind && c.Name() == key }); c != nil {
		return c
	}
	if n := page.ElementByID(key); n != nil {
		if c := page.Control(n); c.Kind() == kind {
			return c
		}
	}
	return nil
}

// textByKey resolves input[name], #id, textarea[name] then textarea#id.
func textByKey(page *dom.Page, key string) *dom.Control {
	if c := page.Find(func(c *dom.Control) bool { return c.Tag() == "input" && c.Name() == key }); c != nil {
		return c
	}
	if n := page.ElementByID(key); n != nil {
		return page.Control(n)
	}
	return page.Find(func(c *dom.Control) bool { return c.Tag() == "textarea" && c.Name() == key })
}

func byLabel(page *dom.Page, kind dom.Kind, lk string, done map[*html.Node]bool) *dom.Control {
	return page.Find(func(c *dom.Control) bool {
		return c.Kind() == kind && !done[c.Node] && labelKey(c) == lk
	})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
