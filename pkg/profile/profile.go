// Package profile holds the job-application profile record and its lenient
// JSON decoding.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jobease/jobfill/pkg/storage"
	"github.com/tidwall/gjson"
)

// Profile is the flat record the engine fills forms from. Every field is
// optional: an empty string or a nil boolean is treated as absent and is
// never written to a page.
type Profile struct {
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
	LocationCity string `json:"locationCity,omitempty"`

	Github   string `json:"github,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`

	School     string `json:"school,omitempty"`
	Degree     string `json:"degree,omitempty"`
	Discipline string `json:"discipline,omitempty"`

	CompanyName       string `json:"companyName,omitempty"`
	JobTitle          string `json:"jobTitle,omitempty"`
	StartMonth        string `json:"startMonth,omitempty"`
	StartDay          string `json:"startDay,omitempty"`
	StartYear         string `json:"startYear,omitempty"`
	EndMonth          string `json:"endMonth,omitempty"`
	EndDay            string `json:"endDay,omitempty"`
	EndYear           string `json:"endYear,omitempty"`
	CurrentlyEmployed *bool  `json:"currentlyEmployed,omitempty"`

	ResumeName string `json:"resumeName,omitempty"`
	ResumeData string `json:"resumeData,omitempty"`
	CoverName  string `json:"coverName,omitempty"`
	CoverData  string `json:"coverData,omitempty"`

	AgeOver18           *bool `json:"ageOver18,omitempty"`
	ConsentAI           *bool `json:"consentAI,omitempty"`
	AuthorizedToWork    *bool `json:"authorizedToWork,omitempty"`
	RequireVisa         *bool `json:"requireVisa,omitempty"`
	GovOfficial         *bool `json:"govOfficial,omitempty"`
	RelativeGovOfficial *bool `json:"relativeGovOfficial,omitempty"`
	Disability          *bool `json:"disability,omitempty"`
	Veteran             *bool `json:"veteran,omitempty"`

	HowHeard string `json:"howHeard,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// ErrNoProfile is returned by Load when nothing has been stored yet.
var ErrNoProfile = errors.New("no profile stored")

// Bool returns a pointer to b, for building profiles in code.
func Bool(b bool) *bool { return &b }

// FullName joins the first and last name, skipping blanks.
func (p *Profile) FullName() string {
	var parts []string
	for _, s := range []string{p.FirstName, p.LastName} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// HasAttachment reports whether a resume or cover letter payload is stored.
func (p *Profile) HasAttachment() bool {
	return p.ResumeData != "" || p.CoverData != ""
}

// Parse decodes a profile document. Decoding is lenient: numbers are
// accepted where strings are expected (months, days, years) and booleans may
// be given as "true"/"yes"/"1" strings, matching what the web app exports.
func Parse(data []byte) (*Profile, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid profile json")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("profile must be a json object")
	}

	str := func(key string) string {
		v := root.Get(key)
		switch v.Type {
		case gjson.String, gjson.Number:
			return strings.TrimSpace(v.String())
		default:
			return ""
		}
	}
	flag := func(key string) *bool {
		v := root.Get(key)
		switch v.Type {
		case gjson.True:
			return Bool(true)
		case gjson.False:
			return Bool(false)
		case gjson.Number:
			return Bool(v.Int() != 0)
		case gjson.String:
			switch strings.ToLower(strings.TrimSpace(v.Str)) {
			case "true", "yes", "y", "1":
				return Bool(true)
			case "false", "no", "n", "0":
				return Bool(false)
			}
		}
		return nil
	}

	return &Profile{
		FirstName:           str("firstName"),
		LastName:            str("lastName"),
		Email:               str("email"),
		Phone:               str("phone"),
		Address:             str("address"),
		LocationCity:        str("locationCity"),
		Github:              str("github"),
		LinkedIn:            str("linkedin"),
		School:              str("school"),
		Degree:              str("degree"),
		Discipline:          str("discipline"),
		CompanyName:         str("companyName"),
		JobTitle:            str("jobTitle"),
		StartMonth:          str("startMonth"),
		StartDay:            str("startDay"),
		StartYear:           str("startYear"),
		EndMonth:            str("endMonth"),
		EndDay:              str("endDay"),
		EndYear:             str("endYear"),
		CurrentlyEmployed:   flag("currentlyEmployed"),
		ResumeName:          str("resumeName"),
		ResumeData:          str("resumeData"),
		CoverName:           str("coverName"),
		CoverData:           str("coverData"),
		AgeOver18:           flag("ageOver18"),
		ConsentAI:           flag("consentAI"),
		AuthorizedToWork:    flag("authorizedToWork"),
		RequireVisa:         flag("requireVisa"),
		GovOfficial:         flag("govOfficial"),
		RelativeGovOfficial: flag("relativeGovOfficial"),
		Disability:          flag("disability"),
		Veteran:             flag("veteran"),
		HowHeard:            str("howHeard"),
		Notes:               str("notes"),
	}, nil
}

// Load reads the stored profile from the persistence collaborator.
func Load(ctx context.Context, s storage.Store) (*Profile, error) {
	data, err := s.Get(ctx, storage.KeyProfile)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoProfile
	}
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Save writes p under the profile key, replacing any previous profile.
func Save(ctx context.Context, s storage.Store, p *Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.Set(ctx, storage.KeyProfile, data)
}
