package applicant

import (
	"strings"
	"time"
)

// Paths the record computes or that the derived values read from.
const (
	PathBirthdate = "birthdate"
	PathName      = "name"
	PathNewName   = "new-name"

	PathAge         = "age"
	PathMinor       = "minor"
	PathFullName    = "name:full"
	PathNewFullName = "new-name:full"
)

// AdultAge is the age at which a person files on their own behalf.
const AdultAge = 18

var nameParts = []string{"first", "middle", "last", "suffix"}

// Finalize computes derived answers. It is safe to call repeatedly; derived
// values are recomputed from the source answers each time.
func (p *Person) Finalize(now time.Time) {
	if birth, ok := p.Date(PathBirthdate); ok {
		age := AgeOn(birth, now)
		p.Set(PathAge, age)
		p.Set(PathMinor, age < AdultAge)
	} else {
		p.Delete(PathAge)
		p.Delete(PathMinor)
	}
	p.setFullName(PathName, PathFullName)
	p.setFullName(PathNewName, PathNewFullName)
}

func (p *Person) setFullName(base, target string) {
	full := FullName(p.Sub(base))
	if full == "" {
		p.Delete(target)
		return
	}
	p.Set(target, full)
}

// FullName joins the name parts of a name record.
func FullName(r Reader) string {
	parts := make([]string, 0, len(nameParts))
	for _, part := range nameParts {
		if value := strings.TrimSpace(r.String(part)); value != "" {
			parts = append(parts, value)
		}
	}
	return strings.Join(parts, " ")
}

// AgeOn returns the number of whole years between birth and now.
func AgeOn(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
