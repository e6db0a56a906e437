package applicant

import "time"

// sampleAsOf pins the derived answers of the sample so scans are stable.
var sampleAsOf = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Sample returns a representative record used as the scanning fixture. It
// describes an adult Michigan-born applicant who holds a passport and is
// changing both name and sex designation, which takes the widest set of
// branches through the catalog hooks.
func Sample() *Person {
	p := FromMap(map[string]any{
		"name": map[string]any{
			"first":  "Alex",
			"middle": "Jordan",
			"last":   "Rivera",
		},
		"new-name": map[string]any{
			"first":  "Avery",
			"middle": "Jordan",
			"last":   "Rivera",
		},
		"changing-name": true,
		"birthdate":     "1990-04-12",
		"birthplace": map[string]any{
			"city":  "Lansing",
			"state": "MI",
		},
		"sex": map[string]any{
			"assigned":  "M",
			"requested": "F",
		},
		"address": map[string]any{
			"street": "100 Main St",
			"city":   "Lansing",
			"state":  "MI",
			"zip":    "48933",
		},
		"county": "Ingham",
		"phone":  "517-555-0100",
		"email":  "alex@example.com",
		"passport": map[string]any{
			"has":    true,
			"issued": "2016-05-01",
			"number": "X12345678",
		},
		"ssn": "000-00-0000",
		"criminal": map[string]any{
			"record": false,
		},
		"publication": map[string]any{
			"waive": false,
		},
	})
	p.Finalize(sampleAsOf)
	return p
}
