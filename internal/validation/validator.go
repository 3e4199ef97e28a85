package validation

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// FieldError is a single violation reported back to API clients.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Message
}

// messages overrides the generic translations for the registration fields.
// Keys are "<json field>.<tag>".
var messages = map[string]string{
	"username.required":  "Username is required",
	"username.min":       "Username must have at least 5 characters",
	"username.max":       "Username must have at most 50 characters",
	"password.required":  "Password is required",
	"password.min":       "Password must be at least 6 characters",
	"password.maxbytes":  "Password must be at most 72 bytes",
	"password.password":  "Password must contain at least one uppercase letter and one number",
	"email.required":     "Email is required",
	"email.email":        "Email should be valid",
	"firstname.required": "Firstname is required",
	"lastname.required":  "Lastname is required",
}

// Validator wraps go-playground/validator with English messages and json
// field names.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// New builds a Validator with the custom "password" and "maxbytes" tags.
func New() (*Validator, error) {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	uni := ut.New(english, english)
	trans, found := uni.GetTranslator("en")
	if !found {
		return nil, fmt.Errorf("translator %q not found", "en")
	}
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("failed to register translations: %w", err)
	}

	if err := validate.RegisterValidation("password", passwordComplexity); err != nil {
		return nil, err
	}
	if err := validate.RegisterValidation("maxbytes", maxBytes); err != nil {
		return nil, err
	}

	register := func(tag, msg string) error {
		return validate.RegisterTranslation(tag, trans, func(ut ut.Translator) error {
			return ut.Add(tag, msg, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fe.Field(), fe.Param())
			return t
		})
	}
	if err := register("password", "{0} must contain at least one uppercase letter and one number"); err != nil {
		return nil, err
	}
	if err := register("maxbytes", "{0} must be at most {1} bytes"); err != nil {
		return nil, err
	}

	return &Validator{validate: validate, trans: trans}, nil
}

// Struct validates s and returns every violation, or nil when s is valid.
// At most one violation is reported per field.
func (v *Validator) Struct(s interface{}) []FieldError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !asValidationErrors(err, &validationErrors) {
		return []FieldError{{Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		out = append(out, FieldError{Field: fe.Field(), Message: v.message(fe.Field(), fe.Tag(), fe)})
	}
	return out
}

// Field validates a single value against tag, reporting it under name.
func (v *Validator) Field(name string, value interface{}, tag string) *FieldError {
	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !asValidationErrors(err, &validationErrors) || len(validationErrors) == 0 {
		return &FieldError{Field: name, Message: err.Error()}
	}
	fe := validationErrors[0]
	if msg, ok := messages[name+"."+fe.Tag()]; ok {
		return &FieldError{Field: name, Message: msg}
	}
	return &FieldError{Field: name, Message: name + " " + strings.TrimPrefix(fe.Translate(v.trans), " ")}
}

func (v *Validator) message(field, tag string, fe validator.FieldError) string {
	if msg, ok := messages[field+"."+tag]; ok {
		return msg
	}
	return fe.Translate(v.trans)
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	ve, ok := err.(validator.ValidationErrors)
	if ok {
		*target = ve
	}
	return ok
}

// passwordComplexity requires at least one uppercase letter and one digit.
func passwordComplexity(fl validator.FieldLevel) bool {
	var upper, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && digit
}

// maxBytes limits the byte length of a string; bcrypt ignores input past 72 bytes.
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}
