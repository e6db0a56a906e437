// Package michigan registers the Michigan probate court and Secretary of State
// processes.
package michigan

import (
	"embed"
	"io/fs"
	"path"
	"strings"

	"github.com/kingrea/waypoint/internal/applicant"
	"github.com/kingrea/waypoint/internal/catalog"
)

//go:embed guides/*.md
var guideFS embed.FS

const (
	guideNameChange   = "mi-name-change"
	guidePublication  = "mi-publication"
	guideFingerprints = "mi-fingerprints"
	guideStateID      = "mi-state-id"
	guideBirthCert    = "mi-birth-certificate"
)

// fingerprintAge is the age at which the court requires fingerprints with a
// name change petition.
const fingerprintAge = 22

// Register installs the Michigan processes and their guides.
func Register(reg *catalog.Registry) {
	if reg == nil {
		return
	}
	registerGuides(reg)
	reg.MustRegister(NameChange())
	reg.MustRegister(Fingerprints())
	reg.MustRegister(StateID())
	reg.MustRegister(BirthCertificate())
}

func registerGuides(reg *catalog.Registry) {
	entries, err := fs.ReadDir(guideFS, "guides")
	if err != nil {
		panic(err)
	}
	for _, entry := range entries {
		data, err := guideFS.ReadFile(path.Join("guides", entry.Name()))
		if err != nil {
			panic(err)
		}
		reg.RegisterGuide(strings.TrimSuffix(entry.Name(), ".md"), string(data))
	}
}

var (
	changingName = catalog.IsTrue(applicant.PathChangingName)
	waivesNotice = catalog.IsTrue(applicant.PathPublicationWaive)
	bornHere     = catalog.Equals(applicant.PathBirthState, string(catalog.JurisdictionMichigan))
)

func petitionerFills() []catalog.Formfill {
	return []catalog.Formfill{
		catalog.Text("petitioner_name", func(r applicant.Reader) string { return r.String(applicant.PathFullName) }),
		catalog.Text("new_name", func(r applicant.Reader) string { return r.String(applicant.PathNewFullName) }),
		catalog.Answer("address", applicant.PathStreet),
		catalog.Text("city_state_zip", cityStateZip),
		catalog.Answer("county", applicant.PathCounty),
		catalog.Answer("phone", applicant.PathPhone),
		catalog.Answer("birthdate", applicant.PathBirthdate),
		catalog.Check("has_record", catalog.IsTrue(applicant.PathCriminalRecord)),
		catalog.Check("no_record", catalog.Not(catalog.IsTrue(applicant.PathCriminalRecord))),
	}
}

// NameChange is the probate court petition to change a legal name.
func NameChange() *catalog.Process {
	minorFills := append(petitionerFills(),
		catalog.Answer("parent_name", applicant.PathParentName),
		catalog.Text("minor_age", func(r applicant.Reader) string { return r.String(applicant.PathAge) }),
	)
	return &catalog.Process{
		Target:       catalog.TargetNameChange,
		Jurisdiction: catalog.JurisdictionMichigan,
		Title:        "Legal name change (Michigan probate court)",
		Summary:      "Petition the probate court in your county of residence for an order changing your name.",
		Depends:      []catalog.Target{catalog.TargetFingerprints},
		Documents: []catalog.Document{
			{
				ID:       "pc51",
				Name:     "Petition to Change Name (PC 51)",
				Template: "mi-pc51",
				Guide:    guideNameChange,
				Include:  catalog.Not(catalog.Minor),
				Fills:    petitionerFills(),
			},
			{
				ID:       "pc51-minor",
				Name:     "Petition to Change Name of a Minor (PC 51)",
				Template: "mi-pc51",
				Guide:    guideNameChange,
				Include:  catalog.Minor,
				Fills:    minorFills,
			},
			{
				ID:       "mc97",
				Name:     "Protected Personal Identifying Information (MC 97)",
				Template: "mi-mc97",
				Fills: []catalog.Formfill{
					catalog.Text("name", func(r applicant.Reader) string { return r.String(applicant.PathFullName) }),
					catalog.Answer("birthdate", applicant.PathBirthdate),
					catalog.Answer("ssn", applicant.PathSSN),
				},
			},
			{
				ID:      "publication-notice",
				Name:    "Publication of Notice of Hearing",
				Guide:   guidePublication,
				Include: catalog.Not(waivesNotice),
			},
			{
				ID:       "nonpublication-motion",
				Name:     "Ex Parte Motion for Nonpublication (PC 51a)",
				Template: "mi-pc51a",
				Guide:    guidePublication,
				Include:  waivesNotice,
				Fills: []catalog.Formfill{
					catalog.Text("petitioner_name", func(r applicant.Reader) string { return r.String(applicant.PathFullName) }),
					catalog.Answer("county", applicant.PathCounty),
					catalog.Check("safety", waivesNotice),
				},
			},
		},
	}
}

// Fingerprints is filed alongside the name change petition; each depends on
// the other because the court will not schedule one without the other.
func Fingerprints() *catalog.Process {
	return &catalog.Process{
		Target:       catalog.TargetFingerprints,
		Jurisdiction: catalog.JurisdictionMichigan,
		Title:        "Fingerprinting for name change (Michigan State Police)",
		Summary:      "Petitioners 22 and older submit fingerprints for a criminal history check.",
		Depends:      []catalog.Target{catalog.TargetNameChange},
		Documents: []catalog.Document{
			{
				ID:       "ri-030",
				Name:     "Applicant Fingerprint Card (RI-030)",
				Template: "mi-ri030",
				Guide:    guideFingerprints,
				Include:  catalog.AgeAtLeast(fingerprintAge),
				Fills: []catalog.Formfill{
					catalog.Answer("last_name", applicant.PathNameLast),
					catalog.Answer("first_name", applicant.PathNameFirst),
					catalog.Answer("middle_name", applicant.PathNameMiddle),
					catalog.Answer("birthdate", applicant.PathBirthdate),
					catalog.Choose("sex", []string{"F", "M", "X"}, func(r applicant.Reader) string { return r.String(applicant.PathSexAssigned) }),
					catalog.Text("reason", func(applicant.Reader) string { return "Name change petition" }),
				},
			},
		},
	}
}

// StateID updates the sex designation and, after a court order, the name on a
// Michigan driver's license or state ID.
func StateID() *catalog.Process {
	return &catalog.Process{
		Target:       catalog.TargetStateID,
		Jurisdiction: catalog.JurisdictionMichigan,
		Title:        "Driver's license or state ID (Michigan Secretary of State)",
		Summary:      "Request a new sex designation and, with a court order, a new name on your license or ID.",
		Documents: []catalog.Document{
			{
				ID:       "sex-designation",
				Name:     "Sex Designation Change Request",
				Template: "mi-sos-sex",
				Guide:    guideStateID,
				Include: func(r applicant.Reader) bool {
					return r.String(applicant.PathSexRequested) != "" &&
						r.String(applicant.PathSexRequested) != r.String(applicant.PathSexAssigned)
				},
				Fills: []catalog.Formfill{
					catalog.Text("name", func(r applicant.Reader) string { return r.String(applicant.PathFullName) }),
					catalog.Answer("birthdate", applicant.PathBirthdate),
					catalog.Text("address", fullAddress),
					catalog.Choose("requested_sex", []string{"F", "M", "X"}, func(r applicant.Reader) string { return r.String(applicant.PathSexRequested) }),
				},
			},
			{
				ID:      "name-update",
				Name:    "Name update at a Secretary of State office",
				Guide:   guideStateID,
				Include: changingName,
			},
		},
	}
}

// BirthCertificate amends a Michigan birth record.
func BirthCertificate() *catalog.Process {
	return &catalog.Process{
		Target:       catalog.TargetBirthCertificate,
		Jurisdiction: catalog.JurisdictionMichigan,
		Title:        "Birth certificate amendment (Michigan Vital Records)",
		Summary:      "Amend the sex and, with a court order, the name on a Michigan birth record.",
		Documents: []catalog.Document{
			{
				ID:       "birth-amendment",
				Name:     "Application to Correct or Change a Michigan Birth Record",
				Template: "mi-birth-amendment",
				Guide:    guideBirthCert,
				Include:  bornHere,
				Fills: []catalog.Formfill{
					catalog.Text("name_at_birth", func(r applicant.Reader) string { return r.String(applicant.PathFullName) }),
					catalog.Answer("birthdate", applicant.PathBirthdate),
					catalog.Answer("birth_city", applicant.PathBirthCity),
					catalog.Check("change_sex", func(r applicant.Reader) bool {
						return r.String(applicant.PathSexRequested) != r.String(applicant.PathSexAssigned)
					}),
					catalog.Check("change_name", changingName),
					catalog.Text("new_name", func(r applicant.Reader) string {
						if !r.Bool(applicant.PathChangingName) {
							return ""
						}
						return r.String(applicant.PathNewFullName)
					}),
					catalog.Text("mailing_address", fullAddress),
				},
			},
			{
				ID:      "birth-out-of-state",
				Name:    "Birth record held by another state",
				Guide:   guideBirthCert,
				Include: catalog.Not(bornHere),
			},
		},
	}
}

func cityStateZip(r applicant.Reader) string {
	city := strings.TrimSpace(r.String(applicant.PathCity))
	state := strings.TrimSpace(r.String(applicant.PathState))
	zip := strings.TrimSpace(r.String(applicant.PathZip))
	out := city
	if state != "" {
		if out != "" {
			out += ", "
		}
		out += state
	}
	if zip != "" {
		out = strings.TrimSpace(out + " " + zip)
	}
	return out
}

func fullAddress(r applicant.Reader) string {
	street := strings.TrimSpace(r.String(applicant.PathStreet))
	rest := cityStateZip(r)
	switch {
	case street == "":
		return rest
	case rest == "":
		return street
	default:
		return street + ", " + rest
	}
}
