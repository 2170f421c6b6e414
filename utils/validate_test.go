package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidEmail(t *testing.T) {
	cases := map[string]bool{
		"jane@example.com":           true,
		"jane.doe-1@mail.clinic.org": true,
		"a@b.co":                     true,
		"a@b":                        false,
		"a b@c.com":                  false,
		"@example.com":               false,
		"":                           false,
	}
	for email, want := range cases {
		assert.Equal(t, want, IsValidEmail(email), email)
	}
}

func TestPasswordStrength(t *testing.T) {
	cases := []struct {
		password string
		want     string
	}{
		{"", ""},
		{"abc", "Weak"},
		{"abcdefgh", "Weak"},
		{"Abcdefg1", "Medium"},
		{"Abcdef1!", "Strong"},
		{"Ab1!", "Weak"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PasswordStrength(tc.password), tc.password)
	}
}

func TestValidateRegistrationReportsFirstProblem(t *testing.T) {
	cases := []struct {
		name, email, password string
		field, message        string
	}{
		{"", "bad", "weak", "name", MsgNameRequired},
		{"Jane", "bad", "weak", "email", MsgInvalidEmail},
		{"Jane", "jane@example.com", "weak", "password", MsgWeakPassword},
	}
	for _, tc := range cases {
		err := ValidateRegistration(tc.name, tc.email, tc.password)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, tc.field, verr.Field)
		assert.Equal(t, tc.message, err.Error())
	}

	assert.NoError(t, ValidateRegistration("Jane", "jane@example.com", "Secur3!pass"))
}

func TestValidateLogin(t *testing.T) {
	assert.EqualError(t, ValidateLogin(" ", "x"), MsgEmailRequired)
	assert.EqualError(t, ValidateLogin("jane@example.com", ""), MsgPasswordEmpty)
	assert.NoError(t, ValidateLogin("anything", "x"))
}
