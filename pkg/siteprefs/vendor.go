package siteprefs

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jobease/jobfill/pkg/dom"
)

type signature struct {
	vendor  string
	markers []string
}

// vendors are the applicant tracking systems recognized by DetectVendor,
// checked in order.
var vendors = []signature{
	{"greenhouse", []string{"greenhouse.io", "grnh.se", "greenhouse"}},
	{"lever", []string{"lever.co", "jobs.lever"}},
	{"workday", []string{"myworkdayjobs", "workday.com", "wd1.myworkday", "wd5.myworkday"}},
	{"ashby", []string{"ashbyhq"}},
	{"smartrecruiters", []string{"smartrecruiters"}},
	{"icims", []string{"icims.com", "icims"}},
	{"jobvite", []string{"jobvite"}},
	{"bamboohr", []string{"bamboohr"}},
	{"taleo", []string{"taleo.net", "taleo"}},
	{"workable", []string{"workable.com", "workable"}},
	{"recruitee", []string{"recruitee"}},
	{"breezy", []string{"breezy.hr", "breezyhr"}},
}

// markupSources are the attributes that reveal which platform hosts a form.
var markupSources = []struct{ selector, attr string }{
	{"script[src]", "src"},
	{"link[href]", "href"},
	{"iframe[src]", "src"},
	{"form[action]", "action"},
	{"meta[name=generator]", "content"},
}

// DetectVendor names the applicant tracking system behind page, looking at
// the hostname, then the full URL, then the page markup. It returns "" when
// nothing matches.
func DetectVendor(page *dom.Page) string {
	if v := match(page.Hostname()); v != "" {
		return v
	}
	if page.URL != nil {
		if v := match(page.URL.String()); v != "" {
			return v
		}
	}
	if page.Doc == nil {
		return ""
	}

	var refs []string
	for _, src := range markupSources {
		page.Doc.Find(src.selector).Each(func(_ int, s *goquery.Selection) {
			if v, ok := s.Attr(src.attr); ok {
				refs = append(refs, v)
			}
		})
	}
	return match(strings.Join(refs, " "))
}

func match(haystack string) string {
	haystack = strings.ToLower(haystack)
	if haystack == "" {
		return ""
	}
	for _, sig := range vendors {
		for _, m := range sig.markers {
			if strings.Contains(haystack, m) {
				return sig.vendor
			}
		}
	}
	return ""
}
