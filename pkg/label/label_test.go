package label

import (
	"strings"
	"testing"

	"github.com/jobease/jobfill/pkg/dom"
)

func page(t *testing.T, body string) *dom.Page {
	t.Helper()
	p, err := dom.Parse(strings.NewReader("<html><body>"+body+"</body></html>"), "https://jobs.example.com/")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return p
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "label for id",
			body: `<label for="fn">First Name</label><div><input id="fn"></div>`,
			want: "First Name",
		},
		{
			name: "wrapping label",
			body: `<label>Email <input name="e"></label>`,
			want: "Email",
		},
		{
			name: "aria-labelledby list",
			body: `<span id="a">Start</span><span id="b">Month</span><div><input aria-labelledby="a b"></div>`,
			want: "Start Month",
		},
		{
			name: "preceding sibling skips empty elements",
			body: `<div><span>Phone</span><i></i><input name="x"></div>`,
			want: "Phone",
		},
		{
			name: "parent preceding sibling",
			body: `<p>City</p><div><input name="x"></div>`,
			want: "City",
		},
		{
			name: "sibling walk is bounded",
			body: `<div><b>Far</b><i></i><i></i><i></i><i></i><i></i><i></i><input name="x"></div>`,
			want: "",
		},
		{
			name: "for lookup wins over wrapping label",
			body: `<label for="q">Outer</label><label>Inner <input id="q"></label>`,
			want: "Outer",
		},
		{
			name: "nothing",
			body: `<input name="x">`,
			want: "",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			p := page(t, tc.body)
			ctrls := p.Controls()
			if len(ctrls) == 0 {
				t.Fatalf("no controls")
			}
			if got := Resolve(ctrls[0]); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestGroupLabelUsesLegend(t *testing.T) {
	p := page(t, `<fieldset><legend>Will you require visa sponsorship?</legend>
		<label><input type="radio" name="visa" value="y"> Yes</label>
		<label><input type="radio" name="visa" value="n"> No</label></fieldset>`)
	ctrls := p.Controls()
	if got := GroupLabel(ctrls[1]); got != "Will you require visa sponsorship?" {
		t.Fatalf("unexpected group label %q", got)
	}
	if got := OptionText(ctrls[1]); got != "No" {
		t.Fatalf("unexpected option text %q", got)
	}
}

func TestSignals(t *testing.T) {
	p := page(t, `<label for="ln">Last Name</label><input id="ln" name="lname" placeholder="Smith" autocomplete="family-name">`)
	got := Signals(p.Controls()[0])
	if got != "lname ln smith family-name last name" {
		t.Fatalf("unexpected signals %q", got)
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  Are you OK   with\tremote work?! "); got != "are you ok with remote work" {
		t.Fatalf("unexpected %q", got)
	}
}
