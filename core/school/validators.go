package school

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/noodle/core"
)

var (
	pwdMinLength     = 8
	pwdMinLengthTag  = "pwdminlen"
	pwdMinLengthText = "password is too short"

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotNumericTag  = "pwdnotnum"
	pwdNotNumericText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"
)

func init() {
	core.Validate.RegisterStructValidation(passwordStructValidation, RegisterUser{})
	core.Validate.RegisterStructValidation(passwordStructValidation, ChangePassword{})
	core.RegisterCustomTranslation(core.Validate, core.Translator, pwdMinLengthTag, pwdMinLengthText)
	core.RegisterCustomTranslation(core.Validate, core.Translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(core.Validate, core.Translator, pwdNotNumericTag, pwdNotNumericText)
	core.RegisterCustomTranslation(core.Validate, core.Translator, pwdAttrSimTag, pwdAttrSimText)
}

// passwordStructValidation applies the password policy:
// - minimum length
// - no whitespace
// - not entirely numeric
// - no similarity to user attributes
func passwordStructValidation(sl validator.StructLevel) {
	switch data := sl.Current().Interface().(type) {
	case RegisterUser:
		validatePassword(data.Password, sl, data.Username, data.Fullname, data.Mail)
	case ChangePassword:
		validatePassword(data.Password, sl, data.Username)
	}
}

func validatePassword(pwd string, sl validator.StructLevel, usrAttrs ...string) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	if len(pwd) < pwdMinLength {
		reportErr(pwdMinLengthTag)
		return
	}

	allNumeric := true
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		if !unicode.IsDigit(char) {
			allNumeric = false
		}
	}
	if allNumeric {
		reportErr(pwdNotNumericTag)
		return
	}

	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(usrAttr, "")).QuickRatio()
	}
	for _, attr := range usrAttrs {
		if getRatio(pwd, attr) >= pwdMaxSim {
			reportErr(pwdAttrSimTag)
			return
		}
	}
}
