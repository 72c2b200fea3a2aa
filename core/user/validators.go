package user

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/mwalimu/alama/core"
)

var (
	allRolesTag  = "allroles"
	allRolesText = "invalid roles"

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = "password must contain at least 8 characters"

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"
)

func init() {
	// register validators
	_ = core.Validate.RegisterValidation(allRolesTag, allRolesValidation)
	core.RegisterCustomTranslation(allRolesTag, allRolesText)

	_ = core.Validate.RegisterValidation(pwdMinLenTag, pwdMinLenValidation)
	core.RegisterCustomTranslation(pwdMinLenTag, pwdMinLenText)

	_ = core.Validate.RegisterValidation(pwdNoSpaceTag, pwdNoSpaceValidation)
	core.RegisterCustomTranslation(pwdNoSpaceTag, pwdNoSpaceText)

	_ = core.Validate.RegisterValidation(pwdNotAllNumTag, pwdNotAllNumValidation)
	core.RegisterCustomTranslation(pwdNotAllNumTag, pwdNotAllNumText)

	_ = core.Validate.RegisterValidation(pwdAttrSimTag, pwdAttrSimValidation)
	core.RegisterCustomTranslation(pwdAttrSimTag, pwdAttrSimText)
}

// allRolesValidation checks that all provided roles are known.
func allRolesValidation(fl validator.FieldLevel) bool {
	roles, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	for _, role := range roles {
		var known bool
		for _, r := range AllRoles {
			if role == r {
				known = true
				break
			}
		}
		if !known {
			return false
		}
	}
	return true
}

func pwdMinLenValidation(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) >= pwdMinLen
}

func pwdNoSpaceValidation(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func pwdNotAllNumValidation(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// pwdAttrSimValidation rejects passwords too similar to the user's name,
// username or email.
func pwdAttrSimValidation(fl validator.FieldLevel) bool {
	pwd := strings.ToLower(fl.Field().String())

	var attrs []string
	switch parent := fl.Parent().Interface().(type) {
	case NewUser:
		attrs = []string{parent.Name, parent.Username, parent.Email}
	case UpdateUser:
		attrs = []string{parent.Name, parent.Username, parent.Email}
	default:
		return true
	}

	for _, attr := range attrs {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if attr == "" {
			continue
		}
		matcher := difflib.NewMatcher(explode(pwd), explode(attr))
		if matcher.Ratio() > pwdMaxSim {
			return false
		}
	}
	return true
}

func explode(s string) []string {
	parts := make([]string, 0, len(s))
	for _, r := range s {
		parts = append(parts, string(r))
	}
	return parts
}
