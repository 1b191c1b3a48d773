package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Kind is the coarse category of a form control.
type Kind int

const (
	KindOther Kind = iota
	KindText
	KindSelect
	KindCheckbox
	KindRadio
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindSelect:
		return "select"
	case KindCheckbox:
		return "checkbox"
	case KindRadio:
		return "radio"
	case KindFile:
		return "file"
	default:
		return "other"
	}
}

// textTypes are the input types filled as free text.
var textTypes = map[string]bool{
	"text":     true,
	"email":    true,
	"tel":      true,
	"date":     true,
	"number":   true,
	"url":      true,
	"textarea": true,
}

// Control is a live form control on a Page.
type Control struct {
	Node *html.Node
	page *Page
}

// Page returns the page owning c.
func (c *Control) Page() *Page { return c.page }

// Tag returns the lower-cased element name.
func (c *Control) Tag() string { return Tag(c.Node) }

// Attr returns attribute key, or "".
func (c *Control) Attr(key string) string { return Attr(c.Node, key) }

func (c *Control) Name() string        { return c.Attr("name") }
func (c *Control) ID() string          { return c.Attr("id") }
func (c *Control) Placeholder() string { return c.Attr("placeholder") }

// Type mirrors the DOM "type" property: inputs default to "text", selects
// report select-one or select-multiple.
func (c *Control) Type() string {
	switch c.Tag() {
	case "textarea":
		return "textarea"
	case "select":
		if c.Multiple() {
			return "select-multiple"
		}
		return "select-one"
	case "input":
		t := strings.ToLower(strings.TrimSpace(c.Attr("type")))
		if t == "" {
			return "text"
		}
		return t
	}
	return ""
}

// Kind classifies the control for the fill cascade.
func (c *Control) Kind() Kind {
	if c.Tag() == "select" {
		return KindSelect
	}
	t := c.Type()
	switch {
	case t == "checkbox":
		return KindCheckbox
	case t == "radio":
		return KindRadio
	case t == "file":
		return KindFile
	case textTypes[t]:
		return KindText
	}
	return KindOther
}

// Key is the name, falling back to the id, used to remember a control.
func (c *Control) Key() string {
	if n := c.Name(); n != "" {
		return n
	}
	return c.ID()
}

// Same reports whether c and o wrap the same node.
func (c *Control) Same(o *Control) bool {
	return o != nil && c.Node == o.Node
}

// Value returns the current value as the DOM "value" property would.
func (c *Control) Value() string {
	switch c.Tag() {
	case "textarea":
		var b strings.Builder
		for n := c.Node.FirstChild; n != nil; n = n.NextSibling {
			if n.Type == html.TextNode {
				b.WriteString(n.Data)
			}
		}
		return b.String()
	case "select":
		opts := c.Options()
		for _, o := range opts {
			if o.Selected {
				return o.Value
			}
		}
		if !c.Multiple() && len(opts) > 0 && !c.page.cleared(c.Node) {
			return opts[0].Value
		}
		return ""
	}
	if c.Kind() == KindCheckbox || c.Kind() == KindRadio {
		if HasAttr(c.Node, "value") {
			return c.Attr("value")
		}
		return "on"
	}
	return c.Attr("value")
}

// SetValue assigns v the way element.value = v does. For a select it picks
// the first option whose value equals v and clears the selection when none
// does; it reports whether an option matched.
func (c *Control) SetValue(v string) bool {
	switch c.Tag() {
	case "textarea":
		for n := c.Node.FirstChild; n != nil; {
			next := n.NextSibling
			c.Node.RemoveChild(n)
			n = next
		}
		c.Node.AppendChild(&html.Node{Type: html.TextNode, Data: v})
		return true
	case "select":
		matched := false
		for _, o := range c.Options() {
			sel := !matched && o.Value == v
			if sel {
				matched = true
			}
			o.setSelected(sel)
		}
		c.page.setCleared(c.Node, !matched)
		return matched
	}
	SetAttr(c.Node, "value", v)
	return true
}

// Checked reports the checked state of a checkbox or radio.
func (c *Control) Checked() bool { return HasAttr(c.Node, "checked") }

// SetChecked sets the checked state. Checking a radio unchecks the other
// radios of the same group.
func (c *Control) SetChecked(on bool) {
	if !on {
		RemoveAttr(c.Node, "checked")
		return
	}
	if c.Kind() == KindRadio && c.Name() != "" {
		for _, r := range c.RadioGroup() {
			if !r.Same(c) {
				RemoveAttr(r.Node, "checked")
			}
		}
	}
	SetAttr(c.Node, "checked", "")
}

// RadioGroup returns the radios sharing c's name within the same form.
func (c *Control) RadioGroup() []*Control {
	if c.Kind() != KindRadio || c.Name() == "" {
		return []*Control{c}
	}
	form := Closest(c.Node, "form")
	var out []*Control
	for _, o := range c.page.Controls() {
		if o.Kind() == KindRadio && o.Name() == c.Name() && Closest(o.Node, "form") == form {
			out = append(out, o)
		}
	}
	return out
}

// Multiple reports whether a select accepts several options.
func (c *Control) Multiple() bool { return HasAttr(c.Node, "multiple") }

// Option is one <option> of a select.
type Option struct {
	Node     *html.Node
	Text     string
	Value    string
	Selected bool
}

func (o Option) setSelected(on bool) {
	if on {
		SetAttr(o.Node, "selected", "")
	} else {
		RemoveAttr(o.Node, "selected")
	}
}

// Options lists the options of a select in document order.
func (c *Control) Options() []Option {
	if c.Tag() != "select" {
		return nil
	}
	var out []Option
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			switch Tag(ch) {
			case "option":
				text := optionText(ch)
				val := text
				if HasAttr(ch, "value") {
					val = Attr(ch, "value")
				}
				out = append(out, Option{Node: ch, Text: text, Value: val, Selected: HasAttr(ch, "selected")})
			case "optgroup":
				walk(ch)
			}
		}
	}
	walk(c.Node)
	return out
}

// SetOptionSelected toggles one option of a multi-select.
func (c *Control) SetOptionSelected(o Option, on bool) {
	o.setSelected(on)
	c.page.setCleared(c.Node, false)
}

func optionText(n *html.Node) string {
	var b strings.Builder
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type == html.TextNode {
			b.WriteString(ch.Data)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Files returns the files attached to a file input.
func (c *Control) Files() []File {
	c.page.mu.Lock()
	defer c.page.mu.Unlock()
	return append([]File(nil), c.page.files[c.Node]...)
}

// SetFiles replaces the file list of a file input. The names are mirrored
// into a data attribute so rendered output shows the attachment.
func (c *Control) SetFiles(files []File) {
	c.page.mu.Lock()
	c.page.files[c.Node] = append([]File(nil), files...)
	c.page.mu.Unlock()

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	if len(names) == 0 {
		RemoveAttr(c.Node, "data-jobfill-files")
		return
	}
	SetAttr(c.Node, "data-jobfill-files", strings.Join(names, ","))
}

// Describe returns a short identifier for logs and fill events.
func (c *Control) Describe() string {
	if v := c.Name(); v != "" {
		return v
	}
	if v := c.ID(); v != "" {
		return v
	}
	if v := c.Placeholder(); v != "" {
		return v
	}
	return "field"
}
