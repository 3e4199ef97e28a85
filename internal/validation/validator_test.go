package validation_test

import (
	"strings"
	"testing"

	"imgstore/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Username string `json:"username" validate:"required,min=5,max=50"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72,password"`
	Email    string `json:"email" validate:"required,email"`
	Nickname string `json:"nickname" validate:"omitempty,min=3"`
}

func newValidator(t *testing.T) *validation.Validator {
	t.Helper()
	v, err := validation.New()
	require.NoError(t, err)
	return v
}

func TestValidator_Valid(t *testing.T) {
	v := newValidator(t)
	errs := v.Struct(signup{Username: "validUser", Password: "Test1234", Email: "valid@example.com"})
	assert.Empty(t, errs)
}

func TestValidator_PasswordRules(t *testing.T) {
	v := newValidator(t)
	cases := map[string]string{
		"T1a":                   "Password must be at least 6 characters",
		"password1":             "Password must contain at least one uppercase letter and one number",
		"Password":              "Password must contain at least one uppercase letter and one number",
		strings.Repeat("Aa1", 30): "Password must be at most 72 bytes",
	}
	for password, want := range cases {
		errs := v.Struct(signup{Username: "validUser", Password: password, Email: "valid@example.com"})
		require.Len(t, errs, 1, password)
		assert.Equal(t, "password", errs[0].Field)
		assert.Equal(t, want, errs[0].Message)
	}
}

func TestValidator_UsernameAndEmail(t *testing.T) {
	v := newValidator(t)

	errs := v.Struct(signup{Username: "abc", Password: "Test1234", Email: "valid@example.com"})
	require.Len(t, errs, 1)
	assert.Equal(t, "Username must have at least 5 characters", errs[0].Message)

	errs = v.Struct(signup{Username: "validUser", Password: "Test1234", Email: "invalid-email"})
	require.Len(t, errs, 1)
	assert.Equal(t, "email", errs[0].Field)
	assert.Equal(t, "Email should be valid", errs[0].Message)
}

func TestValidator_AggregatesViolations(t *testing.T) {
	v := newValidator(t)
	errs := v.Struct(signup{Username: "abc", Password: "T1a", Email: "invalid-email", Nickname: "x"})
	require.Len(t, errs, 4)

	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{"username", "password", "email", "nickname"}, fields)
	// no override registered for nickname, the English translation is used
	assert.Contains(t, errs[3].Message, "nickname")
}

func TestValidator_Field(t *testing.T) {
	v := newValidator(t)

	assert.Nil(t, v.Field("firstname", "Test", "required"))

	fe := v.Field("firstname", "", "required")
	require.NotNil(t, fe)
	assert.Equal(t, "firstname", fe.Field)
	assert.Equal(t, "Firstname is required", fe.Message)
}
