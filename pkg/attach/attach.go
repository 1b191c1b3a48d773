// Package attach injects the stored resume or cover letter into file inputs
// and hunts for a usable file input when none is labelled as such.
package attach

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jobease/jobfill/pkg/dom"
	"github.com/jobease/jobfill/pkg/fill"
	"github.com/jobease/jobfill/pkg/label"
	"github.com/jobease/jobfill/pkg/profile"
	"golang.org/x/net/html"
)

var (
	coverPattern     = regexp.MustCompile(`cover`)
	dedicatedPattern = regexp.MustCompile(`resume|cv|curriculum|cover|upload|attach|application`)
	triggerPattern   = regexp.MustCompile(`(?i)resume|cv|attach|upload`)
	dropZonePattern  = regexp.MustCompile(`(?i)drop.?zone|drop-?area|file-?drop|dropzone|upload`)
)

// Attacher writes profile attachments into file inputs.
type Attacher struct {
	exec *fill.Executor
	// SimulateDrop also replays dragenter/dragover/drop on the nearest drop
	// zone ancestor for pages that only listen to drops.
	SimulateDrop bool
}

func New(exec *fill.Executor, simulateDrop bool) *Attacher {
	return &Attacher{exec: exec, SimulateDrop: simulateDrop}
}

// Attach picks the cover letter when text mentions "cover" and one is
// stored, the resume otherwise, and assigns it to c. It records one fill
// event and reports success; it never panics outward.
func (a *Attacher) Attach(c *dom.Control, p *profile.Profile, text string) bool {
	if p == nil || !p.HasAttachment() {
		return false
	}
	file, field, ok := pick(p, strings.ToLower(text))
	if !ok {
		return false
	}
	attached := a.exec.Record(field, func() error {
		f, err := DecodeDataURL(file.data, file.name)
		if err != nil {
			return err
		}
		c.SetFiles([]dom.File{f})
		c.Notify(dom.EventChange)
		if a.SimulateDrop {
			a.drop(c, f)
		}
		return nil
	})
	if attached {
		a.exec.FileAttached()
	}
	return attached
}

type payload struct {
	name string
	data string
}

func pick(p *profile.Profile, text string) (payload, string, bool) {
	resume := payload{name: p.ResumeName, data: p.ResumeData}
	if resume.name == "" {
		resume.name = "resume.pdf"
	}
	cover := payload{name: p.CoverName, data: p.CoverData}
	if cover.name == "" {
		cover.name = "cover.pdf"
	}

	switch {
	case coverPattern.MatchString(text) && cover.data != "":
		return cover, "cover letter", true
	case resume.data != "":
		return resume, "resume", true
	case cover.data != "":
		return cover, "cover letter", true
	}
	return payload{}, "", false
}

// drop replays a drag-and-drop of f on the closest drop zone around c.
func (a *Attacher) drop(c *dom.Control, f dom.File) {
	zone := dropZone(c)
	if zone == nil {
		return
	}
	for _, typ := range []string{dom.EventDragEnter, dom.EventDragOver, dom.EventDrop} {
		c.Page().Dispatch(dom.Event{Type: typ, Target: zone, Bubbles: true, Files: []dom.File{f}})
	}
}

func dropZone(c *dom.Control) *html.Node {
	for n := dom.ParentElement(c.Node); n != nil; n = dom.ParentElement(n) {
		if dom.Tag(n) == "form" || dom.Tag(n) == "body" {
			return nil
		}
		marker := dom.Attr(n, "class") + " " + dom.Attr(n, "id") + " " + dom.Attr(n, "data-testid")
		if dropZonePattern.MatchString(marker) {
			return n
		}
	}
	return nil
}

// Sweep is the fallback run after classification when nothing was attached
// by label: an input whose accept attribute implies documents, then an input
// near a resume/upload button, then the first input not yet attached.
// attempted holds the inputs the classifier already tried.
func (a *Attacher) Sweep(page *dom.Page, p *profile.Profile, attempted map[*html.Node]bool) bool {
	if p == nil || !p.HasAttachment() {
		return false
	}
	inputs := page.FileInputs()
	if len(inputs) == 0 {
		return false
	}
	strategies := []func() bool{
		func() bool { return a.byAccept(inputs, p, attempted) },
		func() bool { return a.byTrigger(page, p, attempted) },
		func() bool { return a.first(inputs, p, attempted) },
	}
	for _, try := range strategies {
		if try() {
			return true
		}
	}
	return false
}

func (a *Attacher) byAccept(inputs []*dom.Control, p *profile.Profile, attempted map[*html.Node]bool) bool {
	for _, fi := range inputs {
		if attempted[fi.Node] {
			continue
		}
		text := label.Signals(fi)
		if dedicatedPattern.MatchString(text) {
			continue
		}
		accept := strings.ToLower(fi.Attr("accept"))
		if strings.Contains(accept, "pdf") || strings.Contains(accept, "word") ||
			strings.Contains(accept, "application") || strings.Contains(accept, "doc") {
			attempted[fi.Node] = true
			if a.Attach(fi, p, text) {
				return true
			}
		}
	}
	return false
}

func (a *Attacher) byTrigger(page *dom.Page, p *profile.Profile, attempted map[*html.Node]bool) bool {
	found := false
	page.Doc.Find("button, a, input[type=button]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		n := s.Nodes[0]
		text := dom.Text(n)
		if text == "" {
			text = dom.Attr(n, "aria-label")
		}
		if text == "" {
			text = dom.Attr(n, "value")
		}
		if !triggerPattern.MatchString(text) {
			return true
		}
		cand := nearbyFileInput(page, s)
		if cand == nil || attempted[cand.Node] {
			return true
		}
		attempted[cand.Node] = true
		if a.Attach(cand, p, label.Signals(cand)) {
			found = true
			return false
		}
		return true
	})
	return found
}

// nearbyFileInput resolves the file input a trigger button controls: the
// first one in its form, then in its parent, then an adjacent sibling.
func nearbyFileInput(page *dom.Page, btn *goquery.Selection) *dom.Control {
	if form := btn.Closest("form"); form.Length() > 0 {
		if fi := form.Find("input[type=file]"); fi.Length() > 0 {
			return page.Control(fi.Nodes[0])
		}
	}
	if fi := btn.Parent().Find("input[type=file]"); fi.Length() > 0 {
		return page.Control(fi.Nodes[0])
	}
	for _, sib := range []*html.Node{dom.PrevElement(btn.Nodes[0]), dom.NextElement(btn.Nodes[0])} {
		if dom.Tag(sib) == "input" && strings.EqualFold(dom.Attr(sib, "type"), "file") {
			return page.Control(sib)
		}
	}
	return nil
}

func (a *Attacher) first(inputs []*dom.Control, p *profile.Profile, attempted map[*html.Node]bool) bool {
	for _, fi := range inputs {
		if attempted[fi.Node] {
			continue
		}
		attempted[fi.Node] = true
		return a.Attach(fi, p, label.Signals(fi))
	}
	return false
}
