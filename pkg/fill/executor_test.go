package fill

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jobease/jobfill/pkg/dom"
	"github.com/sirupsen/logrus"
)

func newPage(t *testing.T, body string) *dom.Page {
	t.Helper()
	p, err := dom.Parse(strings.NewReader("<html><body><form>"+body+"</form></body></html>"), "https://jobs.example.com/")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return p
}

func newExecutor() *Executor {
	return NewExecutor(logrus.NewEntry(logrus.New()))
}

func TestSetValueDispatchesEvents(t *testing.T) {
	p := newPage(t, `<input name="first"><select name="deg"><option value="">--</option><option value="bs">Bachelor of Science</option></select><input type="checkbox" name="ok">`)
	var events []string
	p.Listen(func(_ *dom.Page, ev dom.Event) {
		if !ev.Bubbles || ev.Trusted {
			t.Errorf("engine events must bubble and be synthetic")
		}
		events = append(events, ev.Type+":"+dom.Attr(ev.Target, "name"))
	})

	x := newExecutor()
	ctrls := p.Controls()
	if !x.SetValue(ctrls[0], "Ada", "first name") {
		t.Fatalf("text write failed")
	}
	if !x.SetValue(ctrls[1], "bachelor", "degree") {
		t.Fatalf("select write failed")
	}
	if !x.SetValue(ctrls[2], true, "") {
		t.Fatalf("checkbox write failed")
	}

	if ctrls[0].Value() != "Ada" || ctrls[1].Value() != "bs" || !ctrls[2].Checked() {
		t.Fatalf("values not applied")
	}
	want := "input:first,change:first,change:deg,change:ok"
	if strings.Join(events, ",") != want {
		t.Fatalf("events %v, want %s", events, want)
	}

	res := x.Result(3)
	if res.Filled != 3 || res.Total != 3 || len(res.Events) != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Events[2].Field != "ok" {
		t.Fatalf("empty label should fall back to control name, got %q", res.Events[2].Field)
	}
}

func TestSelectFallsBackToRawValue(t *testing.T) {
	p := newPage(t, `<select name="s"><option>Red</option><option>Blue</option></select>`)
	x := newExecutor()
	c := p.Controls()[0]
	if !x.SetValue(c, "Green", "colour") {
		t.Fatalf("raw assignment still counts as a write")
	}
	if c.Value() != "" {
		t.Fatalf("unmatched raw assignment should leave no selection, got %q", c.Value())
	}
}

func TestMultiSelect(t *testing.T) {
	p := newPage(t, `<select name="langs" multiple><option value="go">Go</option><option value="rs">Rust</option><option value="py">Python</option></select>`)
	c := p.Controls()[0]
	x := newExecutor()
	x.SetValue(c, []string{"go", "Python"}, "languages")

	var selected []string
	for _, o := range c.Options() {
		if o.Selected {
			selected = append(selected, o.Value)
		}
	}
	if strings.Join(selected, ",") != "go,py" {
		t.Fatalf("unexpected selection %v", selected)
	}
}

func TestFailuresAreRecordedNotRaised(t *testing.T) {
	x := newExecutor()
	if x.Record("boom", func() error { panic("bad selector") }) {
		t.Fatalf("panic should be a failed attempt")
	}
	if x.Record("err", func() error { return errors.New("nope") }) {
		t.Fatalf("error should be a failed attempt")
	}
	if x.SetValue(nil, "x", "nil control") {
		t.Fatalf("nil control should fail")
	}
	x.Trace("site-pref radio:x", func() error { return nil })

	res := x.Result(0)
	if res.Filled != 0 {
		t.Fatalf("failed and traced attempts must not count, got %d", res.Filled)
	}
	if len(res.Events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(res.Events))
	}
	for i, ok := range []bool{false, false, false, true} {
		if res.Events[i].OK != ok {
			t.Fatalf("event %d ok=%v", i, res.Events[i].OK)
		}
	}
}

func TestTiming(t *testing.T) {
	x := newExecutor()
	base := time.Unix(1700000000, 0)
	tick := 0
	x.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick*5) * time.Millisecond)
	}
	x.start = base
	x.Record("slow", func() error { return nil })
	res := x.Result(1)
	if res.Events[0].Ms != 5 {
		t.Fatalf("expected 5ms, got %d", res.Events[0].Ms)
	}
	if res.DurationMs != 15 {
		t.Fatalf("expected 15ms duration, got %d", res.DurationMs)
	}
}

func TestResultHelpers(t *testing.T) {
	r := &Result{Filled: 1, Total: 4, Events: []Event{{"a", 1, true}, {"b", 9, true}, {"c", 4, false}}}
	if r.SuccessRate() != 25 {
		t.Fatalf("unexpected rate %v", r.SuccessRate())
	}
	slow := r.Slowest(2)
	if len(slow) != 2 || slow[0].Field != "b" || slow[1].Field != "c" {
		t.Fatalf("unexpected slowest %v", slow)
	}
	if (&Result{}).SuccessRate() != 0 {
		t.Fatalf("empty result rate should be 0")
	}
}
