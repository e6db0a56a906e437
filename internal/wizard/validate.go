package wizard

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kingrea/waypoint/internal/applicant"
	"github.com/kingrea/waypoint/internal/catalog"
)

// ErrInvalidField marks an answer that failed its field's rules.
var ErrInvalidField = errors.New("wizard: invalid field")

// FieldError reports one rejected answer.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("wizard: %s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidField
}

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ().-]{6,18}[0-9]$`)

var answerValidate *validator.Validate

func init() {
	answerValidate = validator.New()
	_ = answerValidate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
}

// ParseAnswer converts raw form input into the value stored on the applicant
// record. An empty input yields nil, meaning the answer is cleared.
func ParseAnswer(field catalog.Field, raw string) (any, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	fail := func(reason string) (any, error) {
		return nil, &FieldError{Field: field.Name, Reason: reason}
	}
	var parsed any = value
	switch field.Kind {
	case catalog.KindCheckbox:
		b, err := parseBool(value)
		if err != nil {
			return fail("expected yes or no")
		}
		return b, nil
	case catalog.KindDate:
		t, err := time.Parse(applicant.DateLayout, value)
		if err != nil {
			return fail("expected a date like 1990-04-12")
		}
		parsed = t.Format(applicant.DateLayout)
	case catalog.KindSelect:
		match := ""
		for _, opt := range field.OptionValues() {
			if strings.EqualFold(opt, value) {
				match = opt
			}
		}
		if match == "" {
			return fail("expected one of " + strings.Join(field.OptionValues(), ", "))
		}
		parsed = match
	case catalog.KindEmail:
		if err := answerValidate.Var(value, "email"); err != nil {
			return fail("expected an email address")
		}
	case catalog.KindPhone:
		if err := answerValidate.Var(value, "phone"); err != nil {
			return fail("expected a phone number")
		}
	}
	if field.Rules != "" {
		if err := answerValidate.Var(value, field.Rules); err != nil {
			return fail(describe(err))
		}
	}
	return parsed, nil
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "y", "yes", "on":
		return true, nil
	case "n", "no", "off":
		return false, nil
	}
	return strconv.ParseBool(value)
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "numeric":
		return "must contain only digits"
	case "alpha":
		return "must contain only letters"
	case "alphanum":
		return "must contain only letters and digits"
	case "email":
		return "expected an email address"
	default:
		return "failed " + fe.Tag()
	}
}
