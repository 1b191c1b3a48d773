package dom

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// Event types dispatched by the engine and by user edits.
const (
	EventInput     = "input"
	EventChange    = "change"
	EventDragEnter = "dragenter"
	EventDragOver  = "dragover"
	EventDrop      = "drop"
)

// Event is a notification that a node changed. Synthetic events come from
// the engine; Trusted events come from user edits.
type Event struct {
	Type    string
	Target  *html.Node
	Bubbles bool
	Trusted bool
	Files   []File
}

// Listener observes dispatched events. Listeners see every event on the
// page, as a capture-phase document listener would.
type Listener func(p *Page, ev Event)

// Listen registers fn and returns a function that removes it.
func (p *Page) Listen(fn Listener) (cancel func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// Dispatch delivers ev to every listener in registration order.
func (p *Page) Dispatch(ev Event) {
	p.mu.Lock()
	ids := make([]int, 0, len(p.listeners))
	for id := range p.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, p.listeners[id])
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(p, ev)
	}
}

// Notify dispatches a bubbling synthetic event of type typ on c.
func (c *Control) Notify(typ string) {
	c.page.Dispatch(Event{Type: typ, Target: c.Node, Bubbles: true})
}

// UserEdit applies value to c as a person typing or clicking would and
// dispatches trusted events. Checkboxes read "true", "on" or "1" as checked;
// radios are always checked.
func UserEdit(c *Control, value string) {
	trusted := func(typ string) {
		c.page.Dispatch(Event{Type: typ, Target: c.Node, Bubbles: true, Trusted: true})
	}
	switch c.Kind() {
	case KindCheckbox:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "on", "1", "yes":
			c.SetChecked(true)
		default:
			c.SetChecked(false)
		}
		trusted(EventChange)
	case KindRadio:
		c.SetChecked(true)
		trusted(EventChange)
	case KindSelect:
		c.SetValue(value)
		trusted(EventChange)
	default:
		c.SetValue(value)
		trusted(EventInput)
		trusted(EventChange)
	}
}
