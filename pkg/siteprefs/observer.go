package siteprefs

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jobease/jobfill/pkg/dom"
	"github.com/sirupsen/logrus"
)

// DefaultCaptureDelay separates the end of a fill pass from the start of the
// capture window so the engine's own events are not taken for user edits.
const DefaultCaptureDelay = 600 * time.Millisecond

// Observer merges user edits made after a fill pass into the stored entry
// of the page's hostname. One Observer serves one page session; its
// listener is installed at most once.
type Observer struct {
	ctx   context.Context
	page  *dom.Page
	store *Store
	host  string
	delay time.Duration
	log   *logrus.Entry

	armed     atomic.Bool
	mu        sync.Mutex
	timer     *time.Timer
	installed bool
	cancel    func()
	closed    bool
}

func NewObserver(ctx context.Context, page *dom.Page, store *Store, delay time.Duration, log *logrus.Entry) *Observer {
	if delay < 0 {
		delay = DefaultCaptureDelay
	}
	return &Observer{
		ctx:   ctx,
		page:  page,
		store: store,
		host:  page.Hostname(),
		delay: delay,
		log:   log,
	}
}

// Arm closes the capture window and reopens it after the delay. Call it at
// the end of every fill pass.
func (o *Observer) Arm() {
	o.armed.Store(false)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	if o.timer != nil {
		o.timer.Stop()
	}
	o.timer = time.AfterFunc(o.delay, o.open)
}

func (o *Observer) open() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	if !o.installed {
		o.cancel = o.page.Listen(o.handle)
		o.installed = true
	}
	o.armed.Store(true)
}

// Armed reports whether user edits are currently being captured.
func (o *Observer) Armed() bool { return o.armed.Load() }

// Close stops the timer and removes the listener.
func (o *Observer) Close() {
	o.armed.Store(false)
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	if o.timer != nil {
		o.timer.Stop()
	}
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}

func (o *Observer) handle(p *dom.Page, ev dom.Event) {
	if !o.armed.Load() || !ev.Trusted || ev.Target == nil {
		return
	}
	if ev.Type != dom.EventInput && ev.Type != dom.EventChange {
		return
	}
	c := p.Control(ev.Target)
	if c.Key() == "" {
		return
	}

	err := o.store.Merge(o.ctx, o.host, func(e *Entry) {
		if record(e, c) {
			e.addLabel(labelKey(c))
		}
	})
	if err != nil {
		o.log.Warnf("could not save edit of %s: %v", c.Describe(), err)
		return
	}
	o.log.Debugf("captured edit of %s on %s", c.Describe(), o.host)
}
