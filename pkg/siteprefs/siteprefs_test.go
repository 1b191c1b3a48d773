package siteprefs

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jobease/jobfill/pkg/dom"
	"github.com/jobease/jobfill/pkg/fill"
	"github.com/jobease/jobfill/pkg/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func page(t *testing.T, url, body string) *dom.Page {
	t.Helper()
	p, err := dom.Parse(strings.NewReader("<html><body>"+body+"</body></html>"), url)
	require.NoError(t, err)
	return p
}

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

func TestRootDomain(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"jobs.example.com", "example.com"},
		{"apply.example.com", "example.com"},
		{"careers.acme.co.uk", "acme.co.uk"},
		{"example.com", "example.com"},
		{"localhost", "localhost"},
		{"127.0.0.1", "127.0.0.1"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := RootDomain(tc.host); got != tc.want {
			t.Errorf("RootDomain(%q) = %q, want %q", tc.host, got, tc.want)
		}
	}
}

func TestDetectVendor(t *testing.T) {
	tests := []struct {
		url  string
		body string
		want string
	}{
		{"https://boards.greenhouse.io/acme/jobs/1", "", "greenhouse"},
		{"https://jobs.lever.co/acme/123", "", "lever"},
		{"https://acme.wd5.myworkdayjobs.com/en-US/careers", "", "workday"},
		{"https://careers.acme.com/apply", `<script src="https://cdn.ashbyhq.com/embed.js"></script>`, "ashby"},
		{"https://careers.acme.com/apply", `<form action="https://acme.bamboohr.com/careers/submit"></form>`, "bamboohr"},
		{"https://careers.acme.com/apply", `<p>Apply now</p>`, ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, DetectVendor(page(t, tc.url, tc.body)), tc.url)
	}
}

func TestEnabledFlag(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemory(), 0)

	on, err := s.Enabled(ctx)
	require.NoError(t, err)
	assert.False(t, on, "missing flag is off")

	require.NoError(t, s.SetEnabled(ctx, true))
	on, err = s.Enabled(ctx)
	require.NoError(t, err)
	assert.True(t, on)
}

func TestSaveLoadClear(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemory(), 0)

	e := NewEntry("")
	e.Checkboxes["remote_ok"] = true
	require.NoError(t, s.Save(ctx, "jobs.example.com", e))

	got, err := s.Load(ctx, "jobs.example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, Version, got.Version)
	assert.Equal(t, "jobs.example.com", got.Host)
	assert.True(t, got.Checkboxes["remote_ok"])

	// Save replaces, it does not merge.
	require.NoError(t, s.Save(ctx, "jobs.example.com", NewEntry("")))
	got, err = s.Load(ctx, "jobs.example.com")
	require.NoError(t, err)
	assert.Empty(t, got.Checkboxes)

	require.NoError(t, s.Clear(ctx, "jobs.example.com"))
	got, err = s.Load(ctx, "jobs.example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCandidate(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemory(), 2)

	apply := NewEntry("")
	apply.RootDomain = "example.com"
	apply.Selects["country"] = "US"
	require.NoError(t, s.Save(ctx, "apply.example.com", apply))

	t.Run("root domain fallback", func(t *testing.T) {
		got, err := s.Candidate(ctx, "jobs.example.com", "", nil)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "apply.example.com", got.Host)
	})

	t.Run("exact host wins", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "jobs.example.com", NewEntry("")))
		got, err := s.Candidate(ctx, "jobs.example.com", "", nil)
		require.NoError(t, err)
		assert.Equal(t, "jobs.example.com", got.Host)
		require.NoError(t, s.Clear(ctx, "jobs.example.com"))
	})

	t.Run("vendor needs overlap", func(t *testing.T) {
		gh := NewEntry("")
		gh.Vendor = "greenhouse"
		gh.Labels = []string{"are you legally authorized", "linkedin profile", "pronouns"}
		require.NoError(t, s.Save(ctx, "boards.greenhouse.io", gh))

		got, err := s.Candidate(ctx, "careers.foo.com", "greenhouse", []string{"pronouns", "website"})
		require.NoError(t, err)
		assert.Nil(t, got, "one shared label is below the threshold")

		got, err = s.Candidate(ctx, "careers.acme.com", "greenhouse", []string{"linkedin profile", "pronouns"})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "boards.greenhouse.io", got.Host)
	})

	t.Run("none", func(t *testing.T) {
		got, err := s.Candidate(ctx, "careers.other.org", "", nil)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

const form = `
<form>
  <label><input type="checkbox" name="remote_ok"> Open to remote</label>
  <fieldset><legend>Preferred office</legend>
    <label><input type="radio" name="office" value="nyc"> New York</label>
    <label><input type="radio" name="office" value="sf" checked> San Francisco</label>
  </fieldset>
  <label for="pronouns">Pronouns</label>
  <select id="pronouns"><option value="">Choose</option><option value="she">she/her</option><option value="they">they/them</option></select>
  <label for="why">Why us?</label><textarea id="why">Because</textarea>
  <label for="first">First name</label><input id="first" name="first" value="Ada">
</form>`

func TestSnapshot(t *testing.T) {
	p := page(t, "https://jobs.example.com/apply", form)
	first := p.Find(func(c *dom.Control) bool { return c.Name() == "first" })

	e := Snapshot(p, map[*html.Node]bool{first.Node: true})

	assert.Equal(t, "jobs.example.com", e.Host)
	assert.Equal(t, "example.com", e.RootDomain)
	assert.Equal(t, map[string]string{"office": "sf"}, e.Radios)
	assert.Equal(t, map[string]bool{"remote_ok": false}, e.Checkboxes)
	assert.Equal(t, map[string]string{"pronouns": ""}, e.Selects)
	assert.Equal(t, map[string]string{"why": "Because"}, e.Texts, "classifier written texts are left out")
	assert.Equal(t, "sf", e.RadiosByLabel["preferred office"])
	assert.Equal(t, "Because", e.TextsByLabel["why us"])
	assert.Contains(t, e.Labels, "pronouns")
}

func TestSnapshotSkipsWrittenChoices(t *testing.T) {
	p := page(t, "https://jobs.example.com/apply", form)
	pronouns := p.Find(func(c *dom.Control) bool { return c.Key() == "pronouns" })
	sf := p.Find(func(c *dom.Control) bool { return c.Name() == "office" && c.Value() == "sf" })

	e := Snapshot(p, map[*html.Node]bool{pronouns.Node: true, sf.Node: true})

	assert.Empty(t, e.Selects)
	assert.Empty(t, e.SelectsByLabel)
	assert.Empty(t, e.Radios)
	assert.Equal(t, map[string]bool{"remote_ok": false}, e.Checkboxes)
}

func TestConcurrentMergesKeepEveryHost(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	hosts := []string{"a.example.com", "b.example.com", "c.example.com", "d.example.com"}

	var wg sync.WaitGroup
	for _, host := range hosts {
		wg.Add(1)
		go func(host string) {
			defer wg.Done()
			s := NewStore(kv, 0)
			for i := 0; i < 10; i++ {
				err := s.Merge(ctx, host, func(e *Entry) { e.Checkboxes["n"+strconv.Itoa(i)] = true })
				assert.NoError(t, err)
			}
		}(host)
	}
	wg.Wait()

	all, err := NewStore(kv, 0).All(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(hosts))
	for _, host := range hosts {
		assert.Len(t, all[host].Checkboxes, 10, host)
	}
}

func TestApply(t *testing.T) {
	p := page(t, "https://jobs.example.com/apply", form)
	x := fill.NewExecutor(testLog())

	e := NewEntry("jobs.example.com")
	e.Checkboxes["remote_ok"] = true
	e.Radios["office"] = "nyc"
	e.SelectsByLabel["pronouns"] = "they"
	e.Texts["why"] = "Mission"

	n := Apply(p, e, x)
	assert.Equal(t, 4, n)

	get := func(name string) *dom.Control {
		return p.Find(func(c *dom.Control) bool { return c.Key() == name && (c.Kind() != dom.KindRadio || c.Checked()) })
	}
	assert.True(t, get("remote_ok").Checked())
	assert.Equal(t, "nyc", get("office").Value())
	assert.Equal(t, "they", get("pronouns").Value())
	assert.Equal(t, "Mission", get("why").Value())

	res := x.Result(0)
	assert.Equal(t, 0, res.Filled, "replays never count as filled")
	assert.Len(t, res.Events, 4)
	assert.Equal(t, "site-pref radio:office", res.Events[0].Field)
}

func TestApplyByLabelSkipsControlsAlreadySet(t *testing.T) {
	p := page(t, "https://jobs.example.com/apply", form)
	x := fill.NewExecutor(testLog())

	e := NewEntry("jobs.example.com")
	e.Selects["pronouns"] = "she"
	e.SelectsByLabel["pronouns"] = "they"

	Apply(p, e, x)
	sel := p.Find(func(c *dom.Control) bool { return c.ID() == "pronouns" })
	assert.Equal(t, "she", sel.Value(), "name/id answers win over label answers")
}

func TestObserverCapturesUserEdits(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemory(), 0)
	require.NoError(t, s.SetEnabled(ctx, true))

	p := page(t, "https://jobs.example.com/apply", form)
	o := NewObserver(ctx, p, s, 50*time.Millisecond, testLog())
	defer o.Close()

	remote := p.Find(func(c *dom.Control) bool { return c.Name() == "remote_ok" })

	o.Arm()
	dom.UserEdit(remote, "on")
	e, err := s.Load(ctx, "jobs.example.com")
	require.NoError(t, err)
	assert.Nil(t, e, "edits before the window opens are ignored")

	require.Eventually(t, o.Armed, time.Second, 5*time.Millisecond)

	// Synthetic events are the engine's own.
	remote.Notify(dom.EventChange)
	e, err = s.Load(ctx, "jobs.example.com")
	require.NoError(t, err)
	assert.Nil(t, e)

	dom.UserEdit(remote, "on")
	e, err = s.Load(ctx, "jobs.example.com")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.True(t, e.Checkboxes["remote_ok"])
	assert.True(t, e.CheckboxesByLabel["open to remote"])
	assert.Equal(t, "example.com", e.RootDomain)

	o.Close()
	dom.UserEdit(remote, "off")
	e, err = s.Load(ctx, "jobs.example.com")
	require.NoError(t, err)
	assert.True(t, e.Checkboxes["remote_ok"], "closed observer stops capturing")
}
