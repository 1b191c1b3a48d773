// Package diag renders the result of a fill pass, either as an overlay
// injected into the page or as a plain text report.
package diag

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jobease/jobfill/pkg/dom"
	"github.com/jobease/jobfill/pkg/fill"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// OverlayID is the id of the injected overlay element.
const OverlayID = "__jobease_diag"

const (
	maxRows       = 150
	maxFieldChars = 60
	topSlowest    = 5
)

var strict = bluemonday.StrictPolicy()

// Summary is the one line headline shared by the overlay and the report.
func Summary(r *fill.Result) string {
	s := fmt.Sprintf("Filled %d of %d fields in %dms (success %.1f%%)", r.Filled, r.Total, r.DurationMs, r.SuccessRate())
	if r.FileAttached > 0 {
		s += " • file attached"
	}
	return s
}

// Render replaces any previous overlay on page with one describing r.
func Render(page *dom.Page, r *fill.Result) error {
	if r == nil {
		return nil
	}
	Remove(page)

	root := page.Doc.Find("html")
	if root.Length() == 0 {
		return fmt.Errorf("page has no document element")
	}
	parent := root.Nodes[0]

	nodes, err := html.ParseFragment(strings.NewReader(markup(r)), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return fmt.Errorf("build overlay: %w", err)
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	return nil
}

func markup(r *fill.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div id="%s" style="position:fixed;top:10px;right:10px;z-index:999999;width:340px;max-height:70vh;overflow:auto;font-size:12px;background:rgba(17,24,39,0.95);color:#f8fafc;padding:10px">`, OverlayID)
	b.WriteString(`<div><strong>Diagnostics</strong><button id="__jobease_close">Close</button></div>`)
	fmt.Fprintf(&b, `<div class="summary">%s</div>`, strict.Sanitize(Summary(r)))

	b.WriteString(`<div class="events">`)
	events := r.Events
	if len(events) > maxRows {
		events = events[:maxRows]
	}
	for _, ev := range events {
		mark := "⚠️"
		if ev.OK {
			mark = "✅"
		}
		fmt.Fprintf(&b, `<div class="event"><span>%s</span><span class="field">%s</span><span class="ms">%dms</span></div>`,
			mark, strict.Sanitize(fieldName(ev.Field)), ev.Ms)
	}
	b.WriteString(`</div><button class="hide">Hide overlay</button></div>`)
	return b.String()
}

func fieldName(f string) string {
	if f == "" {
		f = "field"
	}
	if r := []rune(f); len(r) > maxFieldChars {
		f = string(r[:maxFieldChars])
	}
	return f
}

// Remove deletes the overlay from page if present.
func Remove(page *dom.Page) {
	page.Doc.Find("#" + OverlayID).Remove()
}

// Report writes r as a text table: the summary, the slowest fields, then
// every event in order.
func Report(w io.Writer, r *fill.Result) error {
	if r == nil {
		_, err := fmt.Fprintln(w, "no fill pass has run")
		return err
	}
	if _, err := fmt.Fprintln(w, Summary(r)); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if slow := r.Slowest(topSlowest); len(slow) > 0 {
		fmt.Fprintln(tw, "\nSLOWEST\tMS\t")
		for _, ev := range slow {
			fmt.Fprintf(tw, "%s\t%d\t\n", fieldName(ev.Field), ev.Ms)
		}
	}
	fmt.Fprintln(tw, "\nFIELD\tMS\tOK")
	for _, ev := range r.Events {
		fmt.Fprintf(tw, "%s\t%d\t%t\n", fieldName(ev.Field), ev.Ms, ev.OK)
	}
	return tw.Flush()
}
