package processes

import (
	"github.com/kingrea/waypoint/internal/applicant"
	"github.com/kingrea/waypoint/internal/catalog"
)

var sexOptions = []catalog.Option{
	{Value: "F", Label: "Female"},
	{Value: "M", Label: "Male"},
	{Value: "X", Label: "Non-binary / unspecified"},
}

var stateOptions = []catalog.Option{
	{Value: "MI", Label: "Michigan"},
	{Value: "OTHER", Label: "Another state or country"},
}

// Fields is the applicant field catalog shared by every jurisdiction.
func Fields() []catalog.Field {
	changing := catalog.IsTrue(applicant.PathChangingName)
	return []catalog.Field{
		{Name: "first-name", Path: applicant.PathNameFirst, Title: "Current legal first name", Kind: catalog.KindText, Rules: "max=64", Covers: []string{applicant.PathFullName}},
		{Name: "middle-name", Path: applicant.PathNameMiddle, Title: "Current legal middle name", Kind: catalog.KindText, Rules: "max=64", Covers: []string{applicant.PathFullName}},
		{Name: "last-name", Path: applicant.PathNameLast, Title: "Current legal last name", Kind: catalog.KindText, Rules: "max=64", Covers: []string{applicant.PathFullName}},
		{Name: "name-suffix", Path: applicant.PathNameSuffix, Title: "Name suffix (Jr., III)", Kind: catalog.KindText, Rules: "max=8", Covers: []string{applicant.PathFullName}},
		{Name: "changing-name", Path: applicant.PathChangingName, Title: "Are you changing your legal name?", Kind: catalog.KindCheckbox, Default: false},
		{Name: "new-first-name", Path: applicant.PathNewNameFirst, Title: "New first name", Kind: catalog.KindText, Rules: "max=64", Visible: changing, Covers: []string{applicant.PathNewFullName}},
		{Name: "new-middle-name", Path: applicant.PathNewNameMiddle, Title: "New middle name", Kind: catalog.KindText, Rules: "max=64", Visible: changing, Covers: []string{applicant.PathNewFullName}},
		{Name: "new-last-name", Path: applicant.PathNewNameLast, Title: "New last name", Kind: catalog.KindText, Rules: "max=64", Visible: changing, Covers: []string{applicant.PathNewFullName}},
		{Name: "birthdate", Path: applicant.PathBirthdate, Title: "Date of birth", Help: "YYYY-MM-DD", Kind: catalog.KindDate, Covers: []string{applicant.PathAge, applicant.PathMinor}},
		{Name: "birth-city", Path: applicant.PathBirthCity, Title: "City of birth", Kind: catalog.KindText, Rules: "max=64"},
		{Name: "birth-state", Path: applicant.PathBirthState, Title: "State of birth", Kind: catalog.KindSelect, Options: stateOptions, Default: "MI"},
		{Name: "sex-assigned", Path: applicant.PathSexAssigned, Title: "Sex currently on your documents", Kind: catalog.KindSelect, Options: sexOptions},
		{Name: "sex-requested", Path: applicant.PathSexRequested, Title: "Sex designation you are requesting", Kind: catalog.KindSelect, Options: sexOptions},
		{Name: "street", Path: applicant.PathStreet, Title: "Street address", Kind: catalog.KindText, Rules: "max=128"},
		{Name: "city", Path: applicant.PathCity, Title: "City", Kind: catalog.KindText, Rules: "max=64"},
		{Name: "state", Path: applicant.PathState, Title: "State", Kind: catalog.KindText, Default: "MI", Rules: "len=2,alpha"},
		{Name: "zip", Path: applicant.PathZip, Title: "ZIP code", Kind: catalog.KindText, Rules: "numeric,len=5"},
		{Name: "county", Path: applicant.PathCounty, Title: "County of residence", Kind: catalog.KindText, Rules: "max=64"},
		{Name: "phone", Path: applicant.PathPhone, Title: "Phone number", Kind: catalog.KindPhone, Rules: "max=20"},
		{Name: "email", Path: applicant.PathEmail, Title: "Email address", Kind: catalog.KindEmail, Rules: "email"},
		{Name: "has-passport", Path: applicant.PathPassportHas, Title: "Do you have a U.S. passport?", Kind: catalog.KindCheckbox, Default: false},
		{Name: "passport-issued", Path: applicant.PathPassportIssued, Title: "Passport issue date", Help: "YYYY-MM-DD", Kind: catalog.KindDate, Visible: catalog.IsTrue(applicant.PathPassportHas)},
		{Name: "passport-number", Path: applicant.PathPassportNumber, Title: "Passport number", Kind: catalog.KindText, Rules: "alphanum,max=12", Visible: catalog.IsTrue(applicant.PathPassportHas)},
		{Name: "ssn", Path: applicant.PathSSN, Title: "Social Security number", Kind: catalog.KindText, Rules: "max=11"},
		{Name: "criminal-record", Path: applicant.PathCriminalRecord, Title: "Do you have a criminal record?", Kind: catalog.KindCheckbox, Default: false},
		{Name: "publication-waive", Path: applicant.PathPublicationWaive, Title: "Ask the court not to publish your name change?", Help: "Available when publication would put you at risk.", Kind: catalog.KindCheckbox, Default: false},
		{Name: "parent-name", Path: applicant.PathParentName, Title: "Parent or guardian filing on your behalf", Kind: catalog.KindText, Rules: "max=128", Visible: catalog.Minor},
	}
}
