// Package fill applies values to form controls and keeps the per-field
// timing log of a fill pass.
package fill

import (
	"fmt"
	"strings"
	"time"

	"github.com/jobease/jobfill/pkg/dom"
	"github.com/sirupsen/logrus"
)

// Executor writes values into controls and records a Fill Event for every
// attempt. One Executor serves one fill pass.
type Executor struct {
	log    *logrus.Entry
	now    func() time.Time
	start  time.Time
	events []Event
	filled int
	files  int
}

// NewExecutor starts the clock of a fill pass.
func NewExecutor(log *logrus.Entry) *Executor {
	x := &Executor{log: log, now: time.Now}
	x.start = x.now()
	return x
}

// Record runs fn as one timed attempt labelled field and counts it as
// filled when it succeeds. Errors and panics are recorded as failed events.
func (x *Executor) Record(field string, fn func() error) bool {
	ok := x.track(field, fn)
	if ok {
		x.filled++
	}
	return ok
}

// Trace is Record without counting toward the filled total; site
// preference replays use it.
func (x *Executor) Trace(field string, fn func() error) bool {
	return x.track(field, fn)
}

// FileAttached notes a successful attachment.
func (x *Executor) FileAttached() { x.files++ }

// Files is the number of attachments so far.
func (x *Executor) Files() int { return x.files }

func (x *Executor) track(field string, fn func() error) (ok bool) {
	t0 := x.now()
	defer func() {
		if r := recover(); r != nil {
			x.log.Debugf("fill %s panicked: %v", field, r)
			ok = false
		}
		x.events = append(x.events, Event{Field: field, Ms: millis(x.now().Sub(t0)), OK: ok})
	}()
	if err := fn(); err != nil {
		x.log.Debugf("fill %s failed: %v", field, err)
		return false
	}
	return true
}

// SetValue writes value into c and dispatches the events a browser would.
// Selects match an option whose value equals value or whose text or value
// contains it (case-insensitive) and fall back to assigning value directly; a []string
// sets multi-select membership. Checkboxes and radios take the truthiness of
// value. Anything else gets the string form of value.
func (x *Executor) SetValue(c *dom.Control, value any, field string) bool {
	if field == "" {
		field = c.Describe()
	}
	return x.Record(field, func() error {
		return Apply(c, value)
	})
}

// Apply performs the write of SetValue without recording it.
func Apply(c *dom.Control, value any) error {
	if c == nil {
		return fmt.Errorf("no control")
	}
	switch c.Kind() {
	case dom.KindSelect:
		if c.Multiple() {
			if values, ok := value.([]string); ok {
				for _, o := range c.Options() {
					c.SetOptionSelected(o, contains(values, o.Value) || contains(values, o.Text))
				}
				c.Notify(dom.EventChange)
				return nil
			}
		}
		c.SetValue(optionFor(c, toString(value)))
		c.Notify(dom.EventChange)
	case dom.KindCheckbox, dom.KindRadio:
		c.SetChecked(truthy(value))
		c.Notify(dom.EventChange)
	case dom.KindFile:
		return fmt.Errorf("file inputs take attachments, not values")
	default:
		c.SetValue(toString(value))
		c.Notify(dom.EventInput)
		c.Notify(dom.EventChange)
	}
	return nil
}

// Result closes the pass. total is the number of controls enumerated.
func (x *Executor) Result(total int) *Result {
	end := x.now()
	return &Result{
		Filled:       x.filled,
		Total:        total,
		DurationMs:   millis(end.Sub(x.start)),
		FileAttached: x.files,
		Timestamp:    end.UnixMilli(),
		Events:       append([]Event(nil), x.events...),
	}
}

// optionFor returns the value of the option whose value is exactly v, else
// of the first option whose text or value contains v case-insensitively,
// else v itself.
func optionFor(c *dom.Control, v string) string {
	opts := c.Options()
	for _, o := range opts {
		if o.Value == v {
			return v
		}
	}
	want := strings.ToLower(v)
	for _, o := range opts {
		if strings.Contains(strings.ToLower(o.Text), want) || strings.Contains(strings.ToLower(o.Value), want) {
			return o.Value
		}
	}
	return v
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case []string:
		return strings.Join(t, ",")
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s != "" && s != "false" && s != "0" && s != "no" && s != "off"
	case nil:
		return false
	default:
		return true
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
