package engine

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jobease/jobfill/pkg/attach"
	"github.com/jobease/jobfill/pkg/diag"
	"github.com/jobease/jobfill/pkg/dom"
	"github.com/jobease/jobfill/pkg/profile"
	"github.com/jobease/jobfill/pkg/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newSession(t *testing.T, kv storage.Store, url, body string) *Session {
	t.Helper()
	page, err := dom.Parse(strings.NewReader("<html><body><form>"+body+"</form></body></html>"), url)
	require.NoError(t, err)
	cfg := DefaultConfig()
	cfg.CaptureDelay = 20 * time.Millisecond
	s := New(page, kv, cfg, quietLogger())
	t.Cleanup(s.Close)
	return s
}

func control(s *Session, key string) *dom.Control {
	return s.Page().Find(func(c *dom.Control) bool { return c.Key() == key })
}

func TestRunFillsLabelledInputs(t *testing.T) {
	s := newSession(t, nil, "https://jobs.example.com/apply", `
		<label>First Name <input name="a"></label>
		<label>Last Name <input name="b"></label>
		<label>Email Address <input name="c" type="email"></label>`)

	var seen []string
	s.Page().Listen(func(_ *dom.Page, ev dom.Event) { seen = append(seen, ev.Type) })

	p := &profile.Profile{FirstName: "Ada", LastName: "Lovelace", Email: "ada@x.com"}
	res, err := s.Run(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Filled)
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Events, 3)
	for _, ev := range res.Events {
		assert.True(t, ev.OK, ev.Field)
	}
	assert.Equal(t, "Ada", control(s, "a").Value())
	assert.Equal(t, "Lovelace", control(s, "b").Value())
	assert.Equal(t, "ada@x.com", control(s, "c").Value())
	assert.Equal(t, []string{"input", "change", "input", "change", "input", "change"}, seen)
	assert.Same(t, res, s.LastResult())
}

func TestRunYesNoSelect(t *testing.T) {
	s := newSession(t, nil, "https://jobs.example.com/apply", `
		<label for="q7">Will you now or in the future require sponsorship?</label>
		<select id="q7"><option value="">Select...</option><option>Yes</option><option>No</option></select>`)

	res, err := s.Run(context.Background(), &profile.Profile{RequireVisa: profile.Bool(false)})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Filled)
	assert.Equal(t, "No", control(s, "q7").Value())
}

func TestRunLeavesUnmatchedAndEmptyAlone(t *testing.T) {
	s := newSession(t, nil, "https://jobs.example.com/apply", `
		<label>Favourite colour <input name="color" value="blue"></label>
		<label>Email <input name="email" value="keep@x.com"></label>
		<label><input type="checkbox" name="remote_ok"> Open to remote work</label>
		<input type="hidden" name="token" value="t">`)

	var seen int
	s.Page().Listen(func(*dom.Page, dom.Event) { seen++ })

	res, err := s.Run(context.Background(), &profile.Profile{FirstName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Filled)
	assert.Equal(t, 4, res.Total)
	assert.Empty(t, res.Events)
	assert.Zero(t, seen)
	assert.Equal(t, "blue", control(s, "color").Value())
	assert.Equal(t, "keep@x.com", control(s, "email").Value())
	assert.False(t, control(s, "remote_ok").Checked())
}

func TestRunNormalizesValues(t *testing.T) {
	s := newSession(t, nil, "https://jobs.example.com/apply", `
		<label for="deg">Degree</label>
		<select id="deg"><option value="hs">High School</option><option value="bs">BS - Bachelor's Degree</option><option value="ms">MS</option></select>
		<label for="sm">Start month</label>
		<select id="sm"><option value="">--</option><option value="1">January</option><option value="2">February</option><option value="3">March</option></select>
		<label>End month <input name="em"></label>
		<label>Start month number <input name="smn" type="number"></label>
		<label>Start date <input name="sd" type="date"></label>
		<label>End date <input name="ed" type="date"></label>`)

	p := &profile.Profile{Degree: "Bachelor of Science", StartMonth: "03", StartYear: "2021", EndMonth: "11"}
	res, err := s.Run(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, "bs", control(s, "deg").Value())
	assert.Equal(t, "3", control(s, "sm").Value())
	assert.Equal(t, "November", control(s, "em").Value())
	assert.Equal(t, "3", control(s, "smn").Value())
	assert.Equal(t, "2021-03-01", control(s, "sd").Value())
	assert.Equal(t, "", control(s, "ed").Value(), "end date needs a year")
	assert.Equal(t, 5, res.Filled)
}

func TestRunRadioAndCheckboxAnswers(t *testing.T) {
	s := newSession(t, nil, "https://jobs.example.com/apply", `
		<fieldset><legend>Are you a US citizen?</legend>
			<label><input type="radio" name="citizen" value="y"> Yes</label>
			<label><input type="radio" name="citizen" value="n"> No</label>
		</fieldset>
		<label><input type="checkbox" name="vet"> I am a protected veteran</label>`)

	p := &profile.Profile{AuthorizedToWork: profile.Bool(true), Veteran: profile.Bool(true)}
	res, err := s.Run(context.Background(), p)
	require.NoError(t, err)

	radios := control(s, "citizen").RadioGroup()
	require.Len(t, radios, 2)
	assert.True(t, radios[0].Checked())
	assert.False(t, radios[1].Checked())
	assert.True(t, control(s, "vet").Checked())
	assert.Equal(t, 2, res.Filled)
}

func TestRunAttachesCoverLetter(t *testing.T) {
	s := newSession(t, nil, "https://jobs.example.com/apply", `
		<label for="cl">Upload Cover Letter</label><input type="file" id="cl">`)

	p := &profile.Profile{CoverName: "cover.pdf", CoverData: attach.EncodeDataURL("application/pdf", []byte("cover"))}
	res, err := s.Run(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FileAttached)

	files := control(s, "cl").Files()
	require.Len(t, files, 1)
	assert.Equal(t, "cover", string(files[0].Data))
}

func TestRunSweepsUnlabelledFileInput(t *testing.T) {
	s := newSession(t, nil, "https://jobs.example.com/apply", `
		<input type="file" name="f1" accept=".pdf,.docx">`)

	p := &profile.Profile{ResumeData: attach.EncodeDataURL("application/pdf", []byte("cv"))}
	res, err := s.Run(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FileAttached)
	assert.Equal(t, 1, res.Filled)
}

func TestRunLoadsStoredProfile(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s := newSession(t, kv, "https://jobs.example.com/apply", `<label>First name <input name="fn"></label>`)

	res, err := s.Run(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Filled, "no profile stored yet")
	assert.Empty(t, control(s, "fn").Value())

	require.NoError(t, profile.Save(ctx, kv, &profile.Profile{FirstName: "Grace"}))
	res, err = s.Run(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Filled)
	assert.Equal(t, "Grace", control(s, "fn").Value())
}

func TestSitePreferencesLearnAndReplay(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	body := `<label>First name <input name="fn"></label>
		<label><input type="checkbox" name="remote_ok"> Open to remote work</label>`
	p := &profile.Profile{FirstName: "Ada"}

	s := newSession(t, kv, "https://jobs.example.com/apply", body)
	require.NoError(t, s.Prefs().SetEnabled(ctx, true))

	_, err := s.Run(ctx, p)
	require.NoError(t, err)
	require.Eventually(t, s.Capturing, time.Second, 5*time.Millisecond)

	dom.UserEdit(control(s, "remote_ok"), "on")

	e, err := s.Prefs().Load(ctx, "jobs.example.com")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.True(t, e.Checkboxes["remote_ok"])
	assert.NotContains(t, e.Texts, "fn", "values written by the classifier are not learned")

	// A later visit to a sibling host replays the answer.
	next := newSession(t, kv, "https://apply.example.com/apply", body)
	res, err := next.Run(ctx, p)
	require.NoError(t, err)
	assert.True(t, control(next, "remote_ok").Checked())
	assert.Equal(t, 1, res.Filled, "replayed answers are not counted")
	assert.Equal(t, "site-pref checkbox:remote_ok", res.Events[0].Field, "learned answers go first")
}

func TestProfileChangeReachesLearnedSite(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	body := `<label for="q7">Will you now or in the future require sponsorship?</label>
		<select id="q7"><option value="">Select...</option><option>Yes</option><option>No</option></select>`

	first := newSession(t, kv, "https://jobs.example.com/apply", body)
	require.NoError(t, first.Prefs().SetEnabled(ctx, true))
	_, err := first.Run(ctx, &profile.Profile{RequireVisa: profile.Bool(true)})
	require.NoError(t, err)
	assert.Equal(t, "Yes", control(first, "q7").Value())

	e, err := first.Prefs().Load(ctx, "jobs.example.com")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.NotContains(t, e.Selects, "q7", "the engine's own answer is not learned")

	second := newSession(t, kv, "https://jobs.example.com/apply", body)
	res, err := second.Run(ctx, &profile.Profile{RequireVisa: profile.Bool(false)})
	require.NoError(t, err)
	assert.Equal(t, "No", control(second, "q7").Value())
	for _, ev := range res.Events {
		assert.NotContains(t, ev.Field, "site-pref")
	}
}

func TestLearnedAnswerForUnmatchedSelect(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	body := `<label for="shirt">T-shirt size</label>
		<select id="shirt"><option value="">-</option><option>S</option><option>M</option></select>
		<label>Email <input name="email"></label>`
	p := &profile.Profile{Email: "ada@x.com"}

	s := newSession(t, kv, "https://jobs.example.com/apply", body)
	require.NoError(t, s.Prefs().SetEnabled(ctx, true))
	_, err := s.Run(ctx, p)
	require.NoError(t, err)
	require.Eventually(t, s.Capturing, time.Second, 5*time.Millisecond)
	_, err = s.Edit("shirt", "M")
	require.NoError(t, err)

	next := newSession(t, kv, "https://jobs.example.com/apply", body)
	_, err = next.Run(ctx, &profile.Profile{Email: "grace@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "M", control(next, "shirt").Value())
	assert.Equal(t, "grace@x.com", control(next, "email").Value())
}

func TestEditUnknownControl(t *testing.T) {
	s := newSession(t, nil, "https://jobs.example.com/apply", `<label>Email <input name="email"></label>`)
	_, err := s.Edit("nope", "x")
	assert.ErrorIs(t, err, ErrNoControl)
}

func TestRunAndEditAreSerialized(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, storage.NewMemory(), "https://jobs.example.com/apply", `
		<label>First name <input name="fn"></label>
		<label><input type="checkbox" name="remote_ok"> Open to remote work</label>`)
	require.NoError(t, s.Prefs().SetEnabled(ctx, true))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.Run(ctx, &profile.Profile{FirstName: "Ada"})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := s.Edit("remote_ok", "on")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var buf strings.Builder
	require.NoError(t, s.Render(&buf))
	assert.Contains(t, buf.String(), `value="Ada"`)
}

func TestDiagnosticsLifecycle(t *testing.T) {
	s := newSession(t, nil, "https://jobs.example.com/apply", `<label>Email <input name="email"></label>`)
	overlay := func() int { return s.Page().Doc.Find("#" + diag.OverlayID).Length() }

	require.NoError(t, s.ToggleDiagnostics(true))
	assert.Zero(t, overlay(), "nothing to show before the first pass")

	_, err := s.Run(context.Background(), &profile.Profile{Email: "ada@x.com"})
	require.NoError(t, err)
	assert.Equal(t, 1, overlay())

	require.NoError(t, s.ToggleDiagnostics(false))
	assert.Zero(t, overlay())

	require.NoError(t, s.ToggleDiagnostics(true))
	assert.Equal(t, 1, overlay())

	s.Close()
	assert.Zero(t, overlay())
	assert.Equal(t, "jobs.example.com", s.Host())
}
