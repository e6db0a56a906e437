package catalog

import (
	"strings"

	"github.com/kingrea/waypoint/internal/applicant"
)

// IsTrue reports whether the answer at path is truthy.
func IsTrue(path string) Predicate {
	return func(r applicant.Reader) bool { return r.Bool(path) }
}

// Equals reports whether the answer at path matches value, ignoring case.
func Equals(path, value string) Predicate {
	return func(r applicant.Reader) bool {
		return strings.EqualFold(strings.TrimSpace(r.String(path)), value)
	}
}

// Not negates p.
func Not(p Predicate) Predicate {
	return func(r applicant.Reader) bool { return !p(r) }
}

// All reports true when every predicate does. Evaluation stops at the first
// false, so later predicates are only consulted when earlier ones pass.
func All(ps ...Predicate) Predicate {
	return func(r applicant.Reader) bool {
		for _, p := range ps {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// Any reports true when some predicate does, stopping at the first true.
func Any(ps ...Predicate) Predicate {
	return func(r applicant.Reader) bool {
		for _, p := range ps {
			if p(r) {
				return true
			}
		}
		return false
	}
}

// Minor reports whether the finalized applicant is under the adult age. An
// unknown age counts as adult.
func Minor(r applicant.Reader) bool {
	age, ok := r.Int(applicant.PathAge)
	return ok && age < applicant.AdultAge
}

// AgeAtLeast reports whether the applicant's known age is at least years.
func AgeAtLeast(years int) Predicate {
	return func(r applicant.Reader) bool {
		age, ok := r.Int(applicant.PathAge)
		return ok && age >= years
	}
}
