// Package classify maps the aggregated text of a form control to the profile
// attribute it asks for. Rules are ordered data; the first rule whose kind
// and pattern match wins.
package classify

// Field is the semantic slot a control was classified as.
type Field int

const (
	FieldNone Field = iota
	FieldAttachment

	FieldDisability
	FieldVeteran
	FieldWorkAuth
	FieldRequireVisa
	FieldAgeOver18
	FieldConsentAI
	FieldGovOfficial
	FieldRelativeGovOfficial
	FieldCurrentlyEmployed

	FieldHowHeard

	FieldFullName
	FieldFirstName
	FieldLastName
	FieldEmail
	FieldGithub
	FieldSchool
	FieldDegree
	FieldDiscipline
	FieldLinkedIn
	FieldCity
	FieldCompany
	FieldTitle
	FieldStartMonth
	FieldStartYear
	FieldStartDay
	FieldEndMonth
	FieldEndYear
	FieldEndDay
	FieldStartDate
	FieldEndDate
	FieldPhone
	FieldAddress
)

var fieldNames = map[Field]string{
	FieldNone:                "none",
	FieldAttachment:          "attachment",
	FieldDisability:          "disability",
	FieldVeteran:             "veteran",
	FieldWorkAuth:            "work authorization",
	FieldRequireVisa:         "visa",
	FieldAgeOver18:           "age over 18",
	FieldConsentAI:           "ai consent",
	FieldGovOfficial:         "government official",
	FieldRelativeGovOfficial: "relative of government official",
	FieldCurrentlyEmployed:   "currently employed",
	FieldHowHeard:            "how heard",
	FieldFullName:            "full name",
	FieldFirstName:           "first name",
	FieldLastName:            "last name",
	FieldEmail:               "email",
	FieldGithub:              "github",
	FieldSchool:              "school",
	FieldDegree:              "degree",
	FieldDiscipline:          "discipline",
	FieldLinkedIn:            "linkedin",
	FieldCity:                "city",
	FieldCompany:             "company",
	FieldTitle:               "title",
	FieldStartMonth:          "start month",
	FieldStartYear:           "start year",
	FieldStartDay:            "start day",
	FieldEndMonth:            "end month",
	FieldEndYear:             "end year",
	FieldEndDay:              "end day",
	FieldStartDate:           "start date",
	FieldEndDate:             "end date",
	FieldPhone:               "phone",
	FieldAddress:             "address",
}

// String returns the label used in fill events and logs.
func (f Field) String() string {
	if s, ok := fieldNames[f]; ok {
		return s
	}
	return "unknown"
}

// Boolean reports whether f is answered with a yes/no profile attribute.
func (f Field) Boolean() bool {
	return f >= FieldDisability && f <= FieldCurrentlyEmployed
}
