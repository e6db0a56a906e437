// Package federal registers the U.S. passport and Social Security processes.
package federal

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
	guidePassport       = "us-passport"
	guideSocialSecurity = "us-social-security"
)

var sexChoices = []string{"F", "M", "X"}

// Register installs the federal processes and their guides.
func Register(reg *catalog.Registry) {
	if reg == nil {
		return
	}
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
	reg.MustRegister(Passport())
	reg.MustRegister(SocialSecurity())
}

// currentName is the name the applicant will carry once every process in the
// packet is complete.
func currentName(r applicant.Reader) string {
	if r.Bool(applicant.PathChangingName) {
		if name := r.String(applicant.PathNewFullName); name != "" {
			return name
		}
	}
	return r.String(applicant.PathFullName)
}

func requestedSex(r applicant.Reader) string {
	return r.String(applicant.PathSexRequested)
}

// renewsByMail reports DS-82 eligibility: an adult holding a prior passport.
var renewsByMail = catalog.All(catalog.IsTrue(applicant.PathPassportHas), catalog.Not(catalog.Minor))

func passportFills(extra ...catalog.Formfill) []catalog.Formfill {
	fills := []catalog.Formfill{
		catalog.Text("name", currentName),
		catalog.Answer("birthdate", applicant.PathBirthdate),
		catalog.Text("birthplace", func(r applicant.Reader) string {
			city := r.String(applicant.PathBirthCity)
			state := r.String(applicant.PathBirthState)
			if state == "" || state == "OTHER" {
				return city
			}
			return city + ", " + state
		}),
		catalog.Choose("sex", sexChoices, requestedSex),
		catalog.Answer("ssn", applicant.PathSSN),
		catalog.Answer("email", applicant.PathEmail),
		catalog.Answer("phone", applicant.PathPhone),
		catalog.Answer("street", applicant.PathStreet),
		catalog.Answer("city", applicant.PathCity),
		catalog.Answer("state", applicant.PathState),
		catalog.Answer("zip", applicant.PathZip),
	}
	return append(fills, extra...)
}

// Passport applies for or renews a U.S. passport with the requested sex
// designation and current name.
func Passport() *catalog.Process {
	return &catalog.Process{
		Target:       catalog.TargetPassport,
		Jurisdiction: catalog.JurisdictionFederal,
		Title:        "U.S. passport",
		Summary:      "Renew by mail with DS-82 or apply in person with DS-11.",
		Documents: []catalog.Document{
			{
				ID:       "ds-82",
				Name:     "U.S. Passport Renewal Application (DS-82)",
				Template: "us-ds82",
				Guide:    guidePassport,
				Include:  renewsByMail,
				Fills: passportFills(
					catalog.Answer("passport_number", applicant.PathPassportNumber),
					catalog.Answer("passport_issued", applicant.PathPassportIssued),
					catalog.Text("name_on_passport", func(r applicant.Reader) string { return r.String(applicant.PathFullName) }),
				),
			},
			{
				ID:       "ds-11",
				Name:     "Application for a U.S. Passport (DS-11)",
				Template: "us-ds11",
				Guide:    guidePassport,
				Include:  catalog.Not(renewsByMail),
				Fills: passportFills(
					catalog.Text("parent_name", func(r applicant.Reader) string {
						if !catalog.Minor(r) {
							return ""
						}
						return r.String(applicant.PathParentName)
					}),
				),
			},
		},
	}
}

// SocialSecurity updates the name on a Social Security record. Identity is
// proven with a state ID, so the state ID update is filed first.
func SocialSecurity() *catalog.Process {
	return &catalog.Process{
		Target:       catalog.TargetSocialSecurity,
		Jurisdiction: catalog.JurisdictionFederal,
		Title:        "Social Security record",
		Summary:      "Request a corrected Social Security card after your name change.",
		Depends:      []catalog.Target{catalog.TargetStateID},
		Documents: []catalog.Document{
			{
				ID:       "ss-5",
				Name:     "Application for a Social Security Card (SS-5)",
				Template: "us-ss5",
				Guide:    guideSocialSecurity,
				Fills: []catalog.Formfill{
					catalog.Text("name_on_card", currentName),
					catalog.Text("name_at_birth", func(r applicant.Reader) string { return r.String(applicant.PathFullName) }),
					catalog.Answer("ssn", applicant.PathSSN),
					catalog.Text("birthplace", func(r applicant.Reader) string { return r.String(applicant.PathBirthCity) }),
					catalog.Answer("birthdate", applicant.PathBirthdate),
					catalog.Text("mailing_address", func(r applicant.Reader) string {
						return strings.TrimSpace(r.String(applicant.PathStreet) + " " + r.String(applicant.PathCity) + " " + r.String(applicant.PathState) + " " + r.String(applicant.PathZip))
					}),
					catalog.Answer("phone", applicant.PathPhone),
					catalog.Check("minor_applicant", catalog.Minor),
				},
			},
		},
	}
}
