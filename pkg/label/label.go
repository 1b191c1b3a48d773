// Package label resolves a human-readable label for a form control by
// walking the DOM relationships a page author would use.
package label

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jobease/jobfill/internal/utils"
	"github.com/jobease/jobfill/pkg/dom"
	"golang.org/x/net/html"
)

// maxSiblingSteps bounds the preceding-sibling walk.
const maxSiblingSteps = 6

// Resolve returns the best-guess label of c, or "" when nothing is found.
// Attempts, first non-empty wins: label[for=id], wrapping label,
// aria-labelledby, preceding siblings, preceding siblings of the parent.
func Resolve(c *dom.Control) (text string) {
	defer func() {
		if r := recover(); r != nil {
			utils.Log.Debugf("label: traversal failed for %s: %v", c.Describe(), r)
			text = ""
		}
	}()

	p := c.Page()
	if id := c.ID(); id != "" {
		var found string
		p.Doc.Find("label[for]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if v, _ := s.Attr("for"); v == id {
				found = dom.Text(s.Nodes[0])
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}

	if wrap := p.Selection(c.Node).Closest("label"); wrap.Length() > 0 {
		if t := dom.Text(wrap.Nodes[0]); t != "" {
			return t
		}
	}

	if ids := strings.Fields(c.Attr("aria-labelledby")); len(ids) > 0 {
		var parts []string
		for _, id := range ids {
			if t := dom.Text(p.ElementByID(id)); t != "" {
				parts = append(parts, t)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}

	if t := precedingText(c.Node); t != "" {
		return t
	}
	return precedingText(dom.ParentElement(c.Node))
}

func precedingText(n *html.Node) string {
	prev := dom.PrevElement(n)
	for steps := 0; prev != nil && steps < maxSiblingSteps; steps++ {
		if t := dom.Text(prev); t != "" {
			return t
		}
		prev = dom.PrevElement(prev)
	}
	return ""
}

// GroupLabel labels a radio group: the legend of the enclosing fieldset when
// there is one, otherwise the per-control label.
func GroupLabel(c *dom.Control) string {
	if t := Legend(c); t != "" {
		return t
	}
	return Resolve(c)
}

// Legend is the text of the legend of the fieldset enclosing a radio, or "".
func Legend(c *dom.Control) string {
	if c.Kind() != dom.KindRadio {
		return ""
	}
	fs := c.Page().Selection(c.Node).Closest("fieldset")
	if legend := fs.ChildrenFiltered("legend"); legend.Length() > 0 {
		return dom.Text(legend.Nodes[0])
	}
	return ""
}

var punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

// Normalize lower-cases s, strips punctuation and collapses whitespace so
// that labels can be compared across visits.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = punctuation.ReplaceAllString(s, " ")
	return utils.CollapseSpaces(s)
}

// Signals joins the textual attributes of c with its resolved label into
// the lower-cased string the classifier matches against. Radios use the
// group label.
func Signals(c *dom.Control) string {
	parts := []string{
		c.Name(),
		c.ID(),
		c.Placeholder(),
		c.Attr("aria-label"),
		c.Attr("autocomplete"),
		GroupLabel(c),
	}
	var kept []string
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.ToLower(strings.Join(kept, " "))
}

// OptionText returns what a person reads next to a checkbox or radio: its
// own label, falling back to its value.
func OptionText(c *dom.Control) string {
	return utils.FirstNonEmpty(Resolve(c), c.Attr("value"))
}
