// Package dom is a small mutable model of an HTML page built on goquery.
// Form controls are mutated in place the way a browser would mutate them
// (value, checked and selected attributes, textarea contents, attached files)
// and every mutation can be announced to listeners through Dispatch.
package dom

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// UnknownHost is reported when the page URL carries no hostname.
const UnknownHost = "unknown-host"

// File is a binary attachment held by a file input.
type File struct {
	Name string
	MIME string
	Data []byte
}

// Page is one loaded document plus the state a browser keeps outside the
// markup: attached files and event listeners.
type Page struct {
	URL *url.URL
	Doc *goquery.Document

	mu        sync.Mutex
	files     map[*html.Node][]File
	unset     map[*html.Node]bool
	listeners map[int]Listener
	nextID    int
}

// Parse reads an HTML document served from pageURL.
func Parse(r io.Reader, pageURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return NewPage(doc, pageURL)
}

// NewPage wraps an already parsed document.
func NewPage(doc *goquery.Document, pageURL string) (*Page, error) {
	var u *url.URL
	if pageURL != "" {
		parsed, err := url.Parse(pageURL)
		if err != nil {
			return nil, fmt.Errorf("invalid page url %q: %w", pageURL, err)
		}
		u = parsed
	}
	return &Page{
		URL:       u,
		Doc:       doc,
		files:     make(map[*html.Node][]File),
		unset:     make(map[*html.Node]bool),
		listeners: make(map[int]Listener),
	}, nil
}

// Hostname returns the lower-cased host of the page URL, or UnknownHost.
func (p *Page) Hostname() string {
	if p.URL == nil || p.URL.Hostname() == "" {
		return UnknownHost
	}
	return strings.ToLower(p.URL.Hostname())
}

// Controls returns every input, textarea and select in document order.
func (p *Page) Controls() []*Control {
	var out []*Control
	p.Doc.Find("input, textarea, select").Each(func(_ int, s *goquery.Selection) {
		out = append(out, p.Control(s.Nodes[0]))
	})
	return out
}

// FileInputs returns every <input type=file> in document order.
func (p *Page) FileInputs() []*Control {
	var out []*Control
	for _, c := range p.Controls() {
		if c.Kind() == KindFile {
			out = append(out, c)
		}
	}
	return out
}

// Control wraps n. The node is expected to be a form control element.
func (p *Page) Control(n *html.Node) *Control {
	return &Control{Node: n, page: p}
}

// ElementByID returns the first element whose id attribute equals id.
func (p *Page) ElementByID(id string) *html.Node {
	if id == "" {
		return nil
	}
	var found *html.Node
	p.Doc.Find("[id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, _ := s.Attr("id"); v == id {
			found = s.Nodes[0]
			return false
		}
		return true
	})
	return found
}

// Find returns the first control matching keep, or nil.
func (p *Page) Find(keep func(*Control) bool) *Control {
	for _, c := range p.Controls() {
		if keep(c) {
			return c
		}
	}
	return nil
}

// Render writes the current document, including every mutation, to w.
func (p *Page) Render(w io.Writer) error {
	for _, n := range p.Doc.Nodes {
		if err := html.Render(w, n); err != nil {
			return err
		}
	}
	return nil
}

// HTML renders the current document to a string.
func (p *Page) HTML() (string, error) {
	var b strings.Builder
	if err := p.Render(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Text returns the rendered-ish text of n: text nodes joined with script,
// style and form-control contents skipped, whitespace collapsed.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "select", "option", "textarea", "template":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// Attr returns the value of attribute key on n, or "".
func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasAttr reports whether n carries attribute key.
func HasAttr(n *html.Node, key string) bool {
	if n == nil {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// SetAttr sets or adds attribute key on n.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes attribute key from n.
func RemoveAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}

// Tag returns the lower-cased element name of n, or "" for non-elements.
func Tag(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(n.Data)
}

// Closest walks up from n (inclusive) to the first element named tag.
func Closest(n *html.Node, tag string) *html.Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if Tag(cur) == tag {
			return cur
		}
	}
	return nil
}

// PrevElement returns the previous element sibling of n.
func PrevElement(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

// NextElement returns the next element sibling of n.
func NextElement(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

// ParentElement returns the closest element ancestor of n.
func ParentElement(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return p
		}
	}
	return nil
}

// cleared reports whether a select was assigned a value none of its options
// carry, which leaves it with no selection at all.
func (p *Page) cleared(n *html.Node) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unset[n]
}

func (p *Page) setCleared(n *html.Node, on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if on {
		p.unset[n] = true
	} else {
		delete(p.unset, n)
	}
}

// Selection wraps n for goquery traversal.
func (p *Page) Selection(n *html.Node) *goquery.Selection {
	return p.Doc.FindNodes(n)
}
