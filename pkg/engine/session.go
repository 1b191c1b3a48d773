// Package engine runs fill passes against one loaded page. A Session is
// created when a page loads and closed when the page goes away; it owns the
// state that lives between passes (last result, diagnostics visibility,
// the capture observer).
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jobease/jobfill/internal/utils"
	"github.com/jobease/jobfill/pkg/attach"
	"github.com/jobease/jobfill/pkg/classify"
	"github.com/jobease/jobfill/pkg/diag"
	"github.com/jobease/jobfill/pkg/dom"
	"github.com/jobease/jobfill/pkg/fill"
	"github.com/jobease/jobfill/pkg/label"
	"github.com/jobease/jobfill/pkg/profile"
	"github.com/jobease/jobfill/pkg/siteprefs"
	"github.com/jobease/jobfill/pkg/storage"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// Config tunes a Session.
type Config struct {
	// Overlap is the label overlap needed to reuse another host's
	// preferences of the same vendor.
	Overlap int
	// CaptureDelay separates the end of a pass from the capture window.
	CaptureDelay time.Duration
	// SimulateDrop replays drag-and-drop after attaching files.
	SimulateDrop bool
	// Diagnostics renders the overlay after every pass.
	Diagnostics bool
}

func DefaultConfig() Config {
	return Config{
		Overlap:      siteprefs.DefaultOverlap,
		CaptureDelay: siteprefs.DefaultCaptureDelay,
		SimulateDrop: true,
	}
}

// ErrNoControl is returned by Edit when the page has no matching control.
var ErrNoControl = errors.New("no such control")

// Session is the engine bound to one page.
type Session struct {
	ID string

	page  *dom.Page
	kv    storage.Store
	prefs *siteprefs.Store
	cfg   Config
	log   *logrus.Entry

	// dom serializes everything that reads or mutates the page tree.
	dom sync.Mutex

	mu          sync.Mutex
	observer    *siteprefs.Observer
	diagnostics bool
	last        *fill.Result
	closed      bool
}

// New starts a session on page. A nil kv falls back to an in-memory store
// and a nil log to the process logger; a zero capture delay means the
// default.
func New(page *dom.Page, kv storage.Store, cfg Config, log *logrus.Logger) *Session {
	if kv == nil {
		kv = storage.NewMemory()
	}
	if log == nil {
		log = utils.Log
	}
	if cfg.CaptureDelay <= 0 {
		cfg.CaptureDelay = siteprefs.DefaultCaptureDelay
	}
	id := uuid.NewString()
	return &Session{
		ID:          id,
		page:        page,
		kv:          kv,
		prefs:       siteprefs.NewStore(kv, cfg.Overlap),
		cfg:         cfg,
		diagnostics: cfg.Diagnostics,
		log: log.WithFields(logrus.Fields{
			"session": id[:8],
			"host":    page.Hostname(),
		}),
	}
}

// Page is the document the session fills.
func (s *Session) Page() *dom.Page { return s.page }

// Host reports the hostname of the page.
func (s *Session) Host() string { return s.page.Hostname() }

// Prefs is the preference store the session learns into.
func (s *Session) Prefs() *siteprefs.Store { return s.prefs }

// LastResult is the result of the most recent pass, or nil.
func (s *Session) LastResult() *fill.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Run performs one fill pass. A nil p is loaded from the store; when none
// is stored the pass does nothing and returns an empty result. Answers
// learned for the site are replayed before the profile is applied. Failures
// of single fields or subsystems are logged and never abort the pass.
func (s *Session) Run(ctx context.Context, p *profile.Profile) (*fill.Result, error) {
	s.dom.Lock()
	defer s.dom.Unlock()

	x := fill.NewExecutor(s.log)

	if p == nil {
		loaded, err := profile.Load(ctx, s.kv)
		if err != nil {
			if !errors.Is(err, profile.ErrNoProfile) {
				s.log.Warnf("could not load profile: %v", err)
			}
			return x.Result(0), nil
		}
		p = loaded
	}

	host := s.page.Hostname()
	enabled, err := s.prefs.Enabled(ctx)
	if err != nil {
		s.log.Warnf("site preferences unavailable: %v", err)
	}
	var candidate *siteprefs.Entry
	if enabled {
		candidate, err = s.prefs.Candidate(ctx, host, siteprefs.DetectVendor(s.page), siteprefs.PageLabels(s.page))
		if err != nil {
			s.log.Warnf("could not read site preferences: %v", err)
		}
	}

	if candidate != nil {
		n := siteprefs.Apply(s.page, candidate, x)
		s.log.Debugf("replayed %d answers learned on %s", n, candidate.Host)
	}

	controls := s.page.Controls()
	attempted := map[*html.Node]bool{}
	written := map[*html.Node]bool{}
	att := attach.New(x, s.cfg.SimulateDrop)
	for _, c := range controls {
		s.fillControl(c, p, x, att, attempted, written)
	}

	if x.Files() == 0 {
		att.Sweep(s.page, p, attempted)
	}

	if enabled {
		if err := s.prefs.Save(ctx, host, siteprefs.Snapshot(s.page, written)); err != nil {
			s.log.Warnf("could not save site preferences: %v", err)
		}
		s.armObserver()
	}

	res := x.Result(len(controls))
	s.mu.Lock()
	s.last = res
	show := s.diagnostics
	s.mu.Unlock()
	if show {
		if err := diag.Render(s.page, res); err != nil {
			s.log.Debugf("diagnostics overlay: %v", err)
		}
	}
	s.log.Infof("filled %d of %d fields in %dms", res.Filled, res.Total, res.DurationMs)
	return res, nil
}

// fillControl classifies one control and writes the matching profile value.
// A matched rule with an absent value is a skip.
func (s *Session) fillControl(c *dom.Control, p *profile.Profile, x *fill.Executor, att *attach.Attacher, attempted, written map[*html.Node]bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Debugf("skipping %s: %v", c.Describe(), r)
		}
	}()

	text := label.Signals(c)
	rule, ok := classify.Classify(classify.Signals{Kind: c.Kind(), Text: text, YesNo: isYesNo(c)})
	if !ok {
		return
	}
	field := rule.Field
	name := field.String()

	switch {
	case field == classify.FieldAttachment:
		attempted[c.Node] = true
		att.Attach(c, p, text)

	case rule.Category == classify.CategoryYesNo:
		want := boolFor(p, field)
		if want == nil {
			return
		}
		if v, ok := yesNoValue(c, *want); ok && x.SetValue(c, v, name) {
			written[c.Node] = true
		}

	case field.Boolean():
		want := boolFor(p, field)
		if want == nil {
			return
		}
		if checked, ok := choiceValue(c, *want); ok && x.SetValue(c, checked, name) {
			written[c.Node] = true
		}

	default:
		v := strings.TrimSpace(textFor(p, field))
		if v == "" {
			return
		}
		switch field {
		case classify.FieldDegree:
			v = degreeValue(c, v)
		case classify.FieldStartMonth, classify.FieldEndMonth:
			v = monthValue(c, v)
		}
		if x.SetValue(c, v, name) {
			written[c.Node] = true
		}
	}
}

func (s *Session) armObserver() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.observer == nil {
		s.observer = siteprefs.NewObserver(context.Background(), s.page, s.prefs, s.cfg.CaptureDelay, s.log)
	}
	s.observer.Arm()
}

// Edit changes the control keyed key as a person would. Radios are picked
// by key and value together. Edits made while the capture window is open
// are learned.
func (s *Session) Edit(key, value string) (*dom.Control, error) {
	s.dom.Lock()
	defer s.dom.Unlock()

	c := s.page.Find(func(c *dom.Control) bool {
		return c.Key() == key && (c.Kind() != dom.KindRadio || c.Value() == value)
	})
	if c == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoControl, key)
	}
	dom.UserEdit(c, value)
	return c, nil
}

// Render writes the current document to w.
func (s *Session) Render(w io.Writer) error {
	s.dom.Lock()
	defer s.dom.Unlock()
	return s.page.Render(w)
}

// Capturing reports whether user edits are currently merged into the
// site preferences.
func (s *Session) Capturing() bool {
	s.mu.Lock()
	o := s.observer
	s.mu.Unlock()
	return o != nil && o.Armed()
}

// ToggleDiagnostics shows or hides the overlay. Showing it re-renders the
// last result.
func (s *Session) ToggleDiagnostics(enabled bool) error {
	s.dom.Lock()
	defer s.dom.Unlock()

	s.mu.Lock()
	s.diagnostics = enabled
	last := s.last
	s.mu.Unlock()

	if !enabled {
		diag.Remove(s.page)
		return nil
	}
	return diag.Render(s.page, last)
}

// Diagnostics reports whether the overlay is enabled.
func (s *Session) Diagnostics() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diagnostics
}

// Close tears the session down: the capture window is cancelled, its
// listener removed and the overlay taken off the page.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	o := s.observer
	s.mu.Unlock()
	if o != nil {
		o.Close()
	}
	s.dom.Lock()
	defer s.dom.Unlock()
	diag.Remove(s.page)
}
