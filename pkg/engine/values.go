package engine

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jobease/jobfill/pkg/classify"
	"github.com/jobease/jobfill/pkg/dom"
	"github.com/jobease/jobfill/pkg/label"
	"github.com/jobease/jobfill/pkg/normalize"
	"github.com/jobease/jobfill/pkg/profile"
)

var yesNoOption = regexp.MustCompile(`(?i)^(yes|no)$`)

// isYesNo reports whether a select offers a literal "Yes" or "No" option.
func isYesNo(c *dom.Control) bool {
	if c.Kind() != dom.KindSelect {
		return false
	}
	for _, o := range c.Options() {
		if yesNoOption.MatchString(strings.TrimSpace(o.Text)) {
			return true
		}
	}
	return false
}

// boolFor returns the profile answer of a boolean field, nil when absent.
func boolFor(p *profile.Profile, f classify.Field) *bool {
	switch f {
	case classify.FieldDisability:
		return p.Disability
	case classify.FieldVeteran:
		return p.Veteran
	case classify.FieldWorkAuth:
		return p.AuthorizedToWork
	case classify.FieldRequireVisa:
		return p.RequireVisa
	case classify.FieldAgeOver18:
		return p.AgeOver18
	case classify.FieldConsentAI:
		return p.ConsentAI
	case classify.FieldGovOfficial:
		return p.GovOfficial
	case classify.FieldRelativeGovOfficial:
		return p.RelativeGovOfficial
	case classify.FieldCurrentlyEmployed:
		return p.CurrentlyEmployed
	}
	return nil
}

// textFor returns the raw profile string for a text field.
func textFor(p *profile.Profile, f classify.Field) string {
	switch f {
	case classify.FieldHowHeard:
		return p.HowHeard
	case classify.FieldFullName:
		return p.FullName()
	case classify.FieldFirstName:
		return p.FirstName
	case classify.FieldLastName:
		return p.LastName
	case classify.FieldEmail:
		return p.Email
	case classify.FieldGithub:
		return p.Github
	case classify.FieldSchool:
		return p.School
	case classify.FieldDegree:
		return p.Degree
	case classify.FieldDiscipline:
		return p.Discipline
	case classify.FieldLinkedIn:
		return p.LinkedIn
	case classify.FieldCity:
		return p.LocationCity
	case classify.FieldCompany:
		return p.CompanyName
	case classify.FieldTitle:
		return p.JobTitle
	case classify.FieldStartMonth:
		return p.StartMonth
	case classify.FieldStartYear:
		return p.StartYear
	case classify.FieldStartDay:
		return p.StartDay
	case classify.FieldEndMonth:
		return p.EndMonth
	case classify.FieldEndYear:
		return p.EndYear
	case classify.FieldEndDay:
		return p.EndDay
	case classify.FieldStartDate:
		iso, _ := normalize.ISODate(p.StartYear, p.StartMonth, p.StartDay)
		return iso
	case classify.FieldEndDate:
		iso, _ := normalize.ISODate(p.EndYear, p.EndMonth, p.EndDay)
		return iso
	case classify.FieldPhone:
		return p.Phone
	case classify.FieldAddress:
		return p.Address
	}
	return ""
}

// yesNoValue picks the option of a yes/no select that answers want.
func yesNoValue(c *dom.Control, want bool) (string, bool) {
	word := "no"
	if want {
		word = "yes"
	}
	opts := c.Options()
	for _, o := range opts {
		if strings.EqualFold(strings.TrimSpace(o.Text), word) {
			return o.Value, true
		}
	}
	for _, o := range opts {
		if strings.Contains(strings.ToLower(o.Text), word) {
			return o.Value, true
		}
	}
	return "", false
}

// choiceValue resolves a checkbox or radio. A radio whose own option reads
// "yes" or "no" is only checked when that option agrees with want; any
// other choice takes want directly.
func choiceValue(c *dom.Control, want bool) (bool, bool) {
	if c.Kind() == dom.KindRadio {
		switch label.Normalize(label.OptionText(c)) {
		case "yes":
			return true, want
		case "no":
			return true, !want
		}
	}
	return want, true
}

// degreeValue finds the select option matching one of the degree variants,
// falling back to the raw degree.
func degreeValue(c *dom.Control, degree string) string {
	if c.Kind() != dom.KindSelect {
		return degree
	}
	variants := normalize.DegreeVariants(degree)
	for _, o := range c.Options() {
		text, val := strings.ToLower(o.Text), strings.ToLower(o.Value)
		for _, v := range variants {
			if strings.Contains(text, v) || strings.Contains(val, v) {
				return o.Value
			}
		}
	}
	return degree
}

// monthValue adapts a month to the control: selects match an option by
// name or number (exact first, then by name containment), number inputs
// get the bare integer and other text controls the month name.
func monthValue(c *dom.Control, month string) string {
	variants := normalize.MonthVariants(month)
	if n := normalize.MonthNumber(month); n > 0 {
		variants = normalize.MonthVariants(strconv.Itoa(n))
	}
	if len(variants) == 0 {
		return month
	}

	switch {
	case c.Kind() == dom.KindSelect:
		opts := c.Options()
		for _, o := range opts {
			text, val := strings.ToLower(strings.TrimSpace(o.Text)), strings.ToLower(o.Value)
			for _, v := range variants {
				if text == v || val == v {
					return o.Value
				}
			}
		}
		for _, o := range opts {
			text := strings.ToLower(o.Text)
			for _, v := range variants {
				if len(v) >= 3 && strings.Contains(text, v) {
					return o.Value
				}
			}
		}
		return variants[0]
	case c.Type() == "number":
		if n := normalize.MonthNumber(month); n > 0 {
			return strconv.Itoa(n)
		}
		return month
	default:
		return normalize.MonthName(month)
	}
}
