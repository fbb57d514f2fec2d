package client

import (
	"errors"
	"math"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

const (
	// MinimumAge is the minimum age accepted at sign-up.
	MinimumAge = 18
	// MinimumPasswordLength is the minimum password length accepted at sign-up.
	MinimumPasswordLength = 6
)

// Validator runs the local form checks before any network call.
type Validator struct {
	// PhoneRegion is the region used to parse numbers without a leading "+".
	// Empty means numbers must be in international format.
	PhoneRegion string
}

type check struct {
	signUpOnly bool
	value      any
	rules      []validation.Rule
}

// Validate checks state against the rules for its mode. Rules run in a
// fixed order and the first failure is returned.
func (v Validator) Validate(state FormState) error {
	checks := []check{
		{
			signUpOnly: true,
			value:      strings.TrimSpace(state.Name),
			rules:      []validation.Rule{validation.Required.Error(MsgNameRequired)},
		},
		{
			signUpOnly: true,
			value:      strings.TrimSpace(state.Age),
			rules: []validation.Rule{
				validation.Required.Error(MsgAgeRequirement),
				validation.By(minimumAge(MinimumAge)),
			},
		},
		{
			signUpOnly: true,
			value:      strings.TrimSpace(state.Phone),
			rules: []validation.Rule{
				validation.Required.Error(MsgInvalidPhone),
				validation.By(validPhone(v.PhoneRegion)),
			},
		},
		{
			value: state.Email,
			rules: []validation.Rule{
				validation.Required.Error(MsgInvalidEmail),
				is.Email.Error(MsgInvalidEmail),
			},
		},
		{
			signUpOnly: true,
			value:      state.Password,
			rules: []validation.Rule{
				validation.Required.Error(MsgPasswordTooShort),
				validation.RuneLength(MinimumPasswordLength, 0).Error(MsgPasswordTooShort),
			},
		},
		{
			signUpOnly: true,
			value:      state.Agreed,
			rules:      []validation.Rule{validation.Required.Error(MsgTermsRequired)},
		},
	}

	signUp := state.Mode == ModeSignUp
	for _, c := range checks {
		if c.signUpOnly && !signUp {
			continue
		}
		if err := validation.Validate(c.value, c.rules...); err != nil {
			return newAuthError(KindValidation, err.Error(), err)
		}
	}

	return nil
}

// Validate runs the default Validator.
func Validate(state FormState) error {
	return Validator{}.Validate(state)
}

// ParseAge converts the age field into whole years. Decimal and exponent
// forms are accepted and truncated; non-finite values are rejected.
func ParseAge(raw string) (int, bool) {
	age, ok := parseAgeNumber(raw)
	if !ok {
		return 0, false
	}
	return int(math.Trunc(age)), true
}

func parseAgeNumber(raw string) (float64, bool) {
	age, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(age) || math.IsInf(age, 0) {
		return 0, false
	}
	return age, true
}

func minimumAge(min int) validation.RuleFunc {
	return func(value interface{}) error {
		raw, _ := value.(string)
		age, ok := parseAgeNumber(raw)
		if !ok || age < float64(min) {
			return errors.New(MsgAgeRequirement)
		}
		return nil
	}
}

func validPhone(region string) validation.RuleFunc {
	return func(value interface{}) error {
		raw, _ := value.(string)
		if !IsValidPhone(raw, region) {
			return errors.New(MsgInvalidPhone)
		}
		return nil
	}
}

// IsValidPhone reports whether raw is a dialable number. Numbers without a
// leading "+" are parsed for region.
func IsValidPhone(raw, region string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	if region == "" && !strings.HasPrefix(raw, "+") {
		return false
	}
	num, err := phonenumbers.Parse(raw, strings.ToUpper(region))
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(num)
}
