package profile

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pkordes/voyager-portal/internal/domain"
)

const dateLayout = "2006-01-02"

var phonePattern = regexp.MustCompile(`^\d{10}$`)

// Values is the editable form. Email is displayed but never edited: it is
// always overwritten with the session user's address.
type Values struct {
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	Gender      string `json:"gender" validate:"omitempty,oneof=male female other"`
	DateOfBirth string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02,notfuture"`
	PhoneNumber string `json:"phoneNumber" validate:"required,phone10"`
	Email       string `json:"email"`
	Country     string `json:"country"`
}

func (v Values) normalized() Values {
	v.FirstName = strings.TrimSpace(v.FirstName)
	v.LastName = strings.TrimSpace(v.LastName)
	v.Gender = strings.ToLower(strings.TrimSpace(v.Gender))
	v.DateOfBirth = strings.TrimSpace(v.DateOfBirth)
	v.PhoneNumber = strings.TrimSpace(v.PhoneNumber)
	v.Country = strings.TrimSpace(v.Country)
	return v
}

// valuesFrom builds the form baseline from a user profile.
func valuesFrom(u domain.User) Values {
	v := Values{
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Gender:      u.Gender,
		PhoneNumber: u.Phone,
		Email:       u.Email,
		Country:     u.Country,
	}
	if u.DateOfBirth != nil && !u.DateOfBirth.IsZero() {
		v.DateOfBirth = u.DateOfBirth.Format(dateLayout)
	}
	return v
}

// patch returns the fields of v that differ from base.
func patch(base, v Values) domain.ProfilePatch {
	var p domain.ProfilePatch
	diff := func(a, b string) *string {
		if a == b {
			return nil
		}
		s := b
		return &s
	}
	p.FirstName = diff(base.FirstName, v.FirstName)
	p.LastName = diff(base.LastName, v.LastName)
	p.Gender = diff(base.Gender, v.Gender)
	p.DateOfBirth = diff(base.DateOfBirth, v.DateOfBirth)
	p.Country = diff(base.Country, v.Country)
	p.Phone = diff(base.PhoneNumber, v.PhoneNumber)
	return p
}

// FieldErrors maps form fields to their validation message.
type FieldErrors struct {
	Fields map[string]string
}

func (e *FieldErrors) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid profile: " + strings.Join(parts, "; ")
}

func (e *FieldErrors) Unwrap() error { return domain.ErrValidation }

var messages = map[string]string{
	"firstName/required":    "First name is required",
	"lastName/required":     "Last name is required",
	"phoneNumber/required":  "Phone number is required",
	"phoneNumber/phone10":   "Phone number must be 10 digits",
	"dateOfBirth/datetime":  "Date of birth must be a valid date",
	"dateOfBirth/notfuture": "Date of birth cannot be in the future",
	"gender/oneof":          "Gender must be one of male, female, other",
}

// formValidator checks Values. today decides the latest accepted birth date.
type formValidator struct {
	v *validator.Validate
}

func newFormValidator(today func() time.Time) *formValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		d, err := time.Parse(dateLayout, fl.Field().String())
		if err != nil {
			return false
		}
		y, m, day := today().Date()
		return !d.After(time.Date(y, m, day, 0, 0, 0, 0, time.UTC))
	})
	return &formValidator{v: v}
}

// check returns nil or a *FieldErrors with one message per failing field.
func (f *formValidator) check(vals Values) error {
	err := f.v.Struct(vals)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("profile.validate: %w", err)
	}
	fe := &FieldErrors{Fields: make(map[string]string, len(verrs))}
	for _, ve := range verrs {
		msg, ok := messages[ve.Field()+"/"+ve.Tag()]
		if !ok {
			msg = fmt.Sprintf("%s is invalid", ve.Field())
		}
		fe.Fields[ve.Field()] = msg
	}
	return fe
}
