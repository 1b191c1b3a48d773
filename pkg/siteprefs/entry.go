// Package siteprefs learns the answers a person gives to page-specific
// questions and replays them on the next visit to the same site.
package siteprefs

import "sort"

// Version is the format written by Snapshot and merges.
const Version = 4

// Entry is everything remembered about one hostname. Name/id keyed maps are
// replayed first; the label keyed maps cover pages whose control names are
// generated per visit.
type Entry struct {
	Version    int    `json:"version"`
	UpdatedAt  int64  `json:"updatedAt"`
	Host       string `json:"host"`
	RootDomain string `json:"rootDomain,omitempty"`
	Vendor     string `json:"vendor,omitempty"`
	// Labels is the sorted set of normalized labels seen on the page; it
	// decides whether an entry from another host of the same vendor fits.
	Labels []string `json:"labels,omitempty"`

	Radios     map[string]string `json:"radios"`
	Checkboxes map[string]bool   `json:"checkboxes"`
	Selects    map[string]string `json:"selects"`
	Texts      map[string]string `json:"texts"`

	RadiosByLabel     map[string]string `json:"radiosByLabel,omitempty"`
	CheckboxesByLabel map[string]bool   `json:"checkboxesByLabel,omitempty"`
	SelectsByLabel    map[string]string `json:"selectsByLabel,omitempty"`
	TextsByLabel      map[string]string `json:"textsByLabel,omitempty"`
}

// NewEntry returns an empty entry for host.
func NewEntry(host string) *Entry {
	e := &Entry{Version: Version, Host: host}
	e.init()
	return e
}

// init allocates the maps an older or partial entry may lack.
func (e *Entry) init() {
	if e.Radios == nil {
		e.Radios = map[string]string{}
	}
	if e.Checkboxes == nil {
		e.Checkboxes = map[string]bool{}
	}
	if e.Selects == nil {
		e.Selects = map[string]string{}
	}
	if e.Texts == nil {
		e.Texts = map[string]string{}
	}
	if e.RadiosByLabel == nil {
		e.RadiosByLabel = map[string]string{}
	}
	if e.CheckboxesByLabel == nil {
		e.CheckboxesByLabel = map[string]bool{}
	}
	if e.SelectsByLabel == nil {
		e.SelectsByLabel = map[string]string{}
	}
	if e.TextsByLabel == nil {
		e.TextsByLabel = map[string]string{}
	}
}

// Empty reports whether e holds no answers.
func (e *Entry) Empty() bool {
	return len(e.Radios)+len(e.Checkboxes)+len(e.Selects)+len(e.Texts)+
		len(e.RadiosByLabel)+len(e.CheckboxesByLabel)+len(e.SelectsByLabel)+len(e.TextsByLabel) == 0
}

// addLabel inserts l into the sorted label set.
func (e *Entry) addLabel(l string) {
	if l == "" {
		return
	}
	i := sort.SearchStrings(e.Labels, l)
	if i < len(e.Labels) && e.Labels[i] == l {
		return
	}
	e.Labels = append(e.Labels, "")
	copy(e.Labels[i+1:], e.Labels[i:])
	e.Labels[i] = l
}

// Overlap counts the labels e shares with labels, which must be sorted.
func (e *Entry) Overlap(labels []string) int {
	n := 0
	i, j := 0, 0
	for i < len(e.Labels) && j < len(labels) {
		switch {
		case e.Labels[i] == labels[j]:
			n++
			i++
			j++
		case e.Labels[i] < labels[j]:
			i++
		default:
			j++
		}
	}
	return n
}
