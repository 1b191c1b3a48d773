package attach

import (
	"errors"
	"strings"
	"testing"

	"github.com/jobease/jobfill/pkg/dom"
	"github.com/jobease/jobfill/pkg/fill"
	"github.com/jobease/jobfill/pkg/label"
	"github.com/jobease/jobfill/pkg/profile"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

var (
	resumeURL = EncodeDataURL("application/pdf", []byte("%PDF resume"))
	coverURL  = EncodeDataURL("application/pdf", []byte("%PDF cover"))
)

func setup(t *testing.T, body string) (*dom.Page, *fill.Executor) {
	t.Helper()
	p, err := dom.Parse(strings.NewReader("<html><body>"+body+"</body></html>"), "https://jobs.example.com/")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return p, fill.NewExecutor(logrus.NewEntry(logrus.New()))
}

func TestDecodeDataURL(t *testing.T) {
	f, err := DecodeDataURL(resumeURL, "cv.pdf")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Name != "cv.pdf" || f.MIME != "application/pdf" || string(f.Data) != "%PDF resume" {
		t.Fatalf("unexpected file %+v", f)
	}

	f, err = DecodeDataURL("data:,hello%20world", "note.txt")
	if err != nil || string(f.Data) != "hello world" || f.MIME != "application/octet-stream" {
		t.Fatalf("plain data url: %+v %v", f, err)
	}

	for _, bad := range []string{"", "not a url", "data:application/pdf;base64,@@@", "http://x/y,z"} {
		if _, err := DecodeDataURL(bad, "x"); !errors.Is(err, ErrBadDataURL) {
			t.Errorf("%q: expected ErrBadDataURL, got %v", bad, err)
		}
	}
}

func TestAttachCoverOnly(t *testing.T) {
	page, x := setup(t, `<label for="cl">Upload Cover Letter</label><input type="file" id="cl">`)
	p := &profile.Profile{CoverName: "letter.pdf", CoverData: coverURL}
	a := New(x, false)

	fi := page.FileInputs()[0]
	if !a.Attach(fi, p, label.Signals(fi)) {
		t.Fatalf("attach failed")
	}
	files := fi.Files()
	if len(files) != 1 || files[0].Name != "letter.pdf" || string(files[0].Data) != "%PDF cover" {
		t.Fatalf("expected cover payload, got %+v", files)
	}
	if x.Files() != 1 {
		t.Fatalf("expected one attachment, got %d", x.Files())
	}
}

func TestAttachPrefersResumeUnlessCover(t *testing.T) {
	page, x := setup(t, `<input type="file" name="resume"><input type="file" name="cover_letter">`)
	p := &profile.Profile{ResumeData: resumeURL, CoverData: coverURL}
	a := New(x, false)

	inputs := page.FileInputs()
	a.Attach(inputs[0], p, label.Signals(inputs[0]))
	a.Attach(inputs[1], p, label.Signals(inputs[1]))

	if got := inputs[0].Files()[0].Name; got != "resume.pdf" {
		t.Fatalf("expected default resume name, got %q", got)
	}
	if got := string(inputs[1].Files()[0].Data); got != "%PDF cover" {
		t.Fatalf("expected cover data, got %q", got)
	}
}

func TestAttachFailures(t *testing.T) {
	page, x := setup(t, `<input type="file" name="resume">`)
	a := New(x, false)
	fi := page.FileInputs()[0]

	if a.Attach(fi, &profile.Profile{}, "resume") {
		t.Fatalf("no payload should not attach")
	}
	if a.Attach(fi, &profile.Profile{ResumeData: "garbage"}, "resume") {
		t.Fatalf("bad payload should not attach")
	}
	res := x.Result(1)
	if res.FileAttached != 0 || res.Filled != 0 {
		t.Fatalf("failures must not count: %+v", res)
	}
	if len(res.Events) != 1 || res.Events[0].OK {
		t.Fatalf("decode failure should be one failed event: %+v", res.Events)
	}
}

func TestDropSimulation(t *testing.T) {
	page, x := setup(t, `<form><div class="file-dropzone"><input type="file" name="resume"></div></form>`)
	var got []string
	page.Listen(func(_ *dom.Page, ev dom.Event) {
		got = append(got, ev.Type)
		if ev.Type == dom.EventDrop && len(ev.Files) != 1 {
			t.Errorf("drop should carry the file")
		}
	})
	a := New(x, true)
	fi := page.FileInputs()[0]
	if !a.Attach(fi, &profile.Profile{ResumeData: resumeURL}, "resume") {
		t.Fatalf("attach failed")
	}
	if strings.Join(got, ",") != "change,dragenter,dragover,drop" {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestSweep(t *testing.T) {
	p := &profile.Profile{ResumeData: resumeURL}

	tests := []struct {
		name string
		body string
		want string // name of the input that should receive the file
	}{
		{
			name: "accept attribute",
			body: `<input type="file" name="photo" accept="image/*"><input type="file" name="docs" accept=".pdf,.doc">`,
			want: "docs",
		},
		{
			name: "trigger button in form",
			body: `<input type="file" name="avatar" accept="image/png"><form><input type="file" name="hidden_input" style="display:none"><button type="button">Attach résumé</button></form>`,
			want: "hidden_input",
		},
		{
			name: "trigger sibling",
			body: `<input type="file" name="first" accept="image/png"><div><a>Upload</a><input type="file" name="near"></div>`,
			want: "near",
		},
		{
			name: "first unattached",
			body: `<input type="file" name="one" accept="image/png"><input type="file" name="two">`,
			want: "one",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			page, x := setup(t, tc.body)
			a := New(x, false)
			if !a.Sweep(page, p, map[*html.Node]bool{}) {
				t.Fatalf("sweep attached nothing")
			}
			for _, fi := range page.FileInputs() {
				attached := len(fi.Files()) > 0
				if attached != (fi.Name() == tc.want) {
					t.Fatalf("input %s attached=%v, want only %s", fi.Name(), attached, tc.want)
				}
			}
		})
	}
}

func TestSweepSkipsAttempted(t *testing.T) {
	page, x := setup(t, `<input type="file" name="resume"><input type="file" name="other">`)
	attempted := map[*html.Node]bool{page.FileInputs()[0].Node: true}
	a := New(x, false)
	if !a.Sweep(page, &profile.Profile{ResumeData: resumeURL}, attempted) {
		t.Fatalf("sweep attached nothing")
	}
	if len(page.FileInputs()[0].Files()) != 0 || len(page.FileInputs()[1].Files()) != 1 {
		t.Fatalf("sweep should skip inputs the classifier already tried")
	}
}
