package classify

import "github.com/jobease/jobfill/pkg/dom"

// Category groups rules by the kind of control they target. Categories are
// evaluated in declaration order.
type Category int

const (
	CategoryFile Category = iota + 1
	CategoryChoice
	CategoryYesNo
	CategoryHowHeard
	CategoryText
)

// Rule maps controls of the given kinds whose text matches to a Field.
type Rule struct {
	Category Category
	Field    Field
	Kinds    []dom.Kind
	Match    Matcher
}

func (r Rule) accepts(k dom.Kind) bool {
	for _, rk := range r.Kinds {
		if rk == k {
			return true
		}
	}
	return false
}

var (
	fileKinds   = []dom.Kind{dom.KindFile}
	choiceKinds = []dom.Kind{dom.KindCheckbox, dom.KindRadio}
	selectKinds = []dom.Kind{dom.KindSelect}
	textKinds   = []dom.Kind{dom.KindText, dom.KindSelect}
)

// Rules is the ordered cascade. Earlier rules shadow later ones.
var Rules = []Rule{
	{CategoryFile, FieldAttachment, fileKinds, has("resume", "cv", "curriculum", "cover", "upload")},

	{CategoryChoice, FieldDisability, choiceKinds, has("disabil", "access")},
	{CategoryChoice, FieldVeteran, choiceKinds, has("veteran", "military")},
	{CategoryChoice, FieldWorkAuth, choiceKinds, has("authorized to work")},
	{CategoryChoice, FieldWorkAuth, choiceKinds, has("citizen")},
	{CategoryChoice, FieldRequireVisa, choiceKinds, has("visa", "sponsor")},

	{CategoryYesNo, FieldAgeOver18, selectKinds, has("at least 18", "over 18", "age 18")},
	{CategoryYesNo, FieldConsentAI, selectKinds, has("use ai", "ai tools", "consent ai")},
	{CategoryYesNo, FieldWorkAuth, selectKinds, has("authorized to work", "work authorization", "citizen")},
	{CategoryYesNo, FieldRequireVisa, selectKinds, has("require visa", "sponsor", "sponsorship", "work visa")},
	{CategoryYesNo, FieldGovOfficial, selectKinds, has("government official", "gov official")},
	{CategoryYesNo, FieldRelativeGovOfficial, selectKinds, has("relative", "close relative government")},
	{CategoryYesNo, FieldCurrentlyEmployed, selectKinds, has("currently employed")},

	{CategoryHowHeard, FieldHowHeard, selectKinds, has("how did", "how heard", "hear about", "source")},
	{CategoryHowHeard, FieldHowHeard, textKinds, has("how did you hear", "how heard", "hear about")},

	{CategoryText, FieldFullName, textKinds, oneOf(all("full", "name"), only("name"), has("your name"))},
	{CategoryText, FieldFirstName, textKinds, has("first", "given-name")},
	{CategoryText, FieldLastName, textKinds, has("last", "surname", "family")},
	{CategoryText, FieldEmail, textKinds, has("email")},
	{CategoryText, FieldGithub, textKinds, has("github")},
	{CategoryText, FieldSchool, textKinds, has("school", "university", "college")},
	{CategoryText, FieldDegree, textKinds, has("degree")},
	{CategoryText, FieldDiscipline, textKinds, has("discipline", "major")},
	{CategoryText, FieldLinkedIn, textKinds, has("linkedin")},
	{CategoryText, FieldCity, textKinds, has("location", "city")},
	{CategoryText, FieldCompany, textKinds, has("company", "employer")},
	{CategoryText, FieldTitle, textKinds, has("title", "position")},
	{CategoryText, FieldStartMonth, textKinds, oneOf(datePart("start", "month", "mm"), only("mm"))},
	{CategoryText, FieldStartYear, textKinds, datePart("start", "year", "yyyy")},
	{CategoryText, FieldStartDay, textKinds, datePart("start", "day", "dd")},
	{CategoryText, FieldEndMonth, textKinds, datePart("end", "month", "mm")},
	{CategoryText, FieldEndYear, textKinds, datePart("end", "year", "yyyy")},
	{CategoryText, FieldEndDay, textKinds, datePart("end", "day", "dd")},
	{CategoryText, FieldStartDate, textKinds, all("date", "start")},
	{CategoryText, FieldEndDate, textKinds, all("date", "end")},
	{CategoryText, FieldPhone, textKinds, has("phone", "mobile", "tel")},
	{CategoryText, FieldAddress, textKinds, has("address")},
}

// Signals is what the classifier knows about one control.
type Signals struct {
	Kind dom.Kind
	// Text is the aggregated lower-cased name/id/placeholder/aria-label/
	// autocomplete/label string.
	Text string
	// YesNo is set for selects offering literal "Yes" and "No" options.
	YesNo bool
}

// Classify returns the first rule matching s. Yes/no rules only apply to
// yes/no selects, and yes/no selects are never treated as free text.
func Classify(s Signals) (Rule, bool) {
	for _, r := range Rules {
		if !r.accepts(s.Kind) {
			continue
		}
		if s.Kind == dom.KindSelect {
			if r.Category == CategoryYesNo && !s.YesNo {
				continue
			}
			if r.Category == CategoryText && s.YesNo {
				continue
			}
		}
		if r.Match.Match(s.Text) {
			return r, true
		}
	}
	return Rule{}, false
}
