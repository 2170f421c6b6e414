package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@([\w-]+\.)+[\w-]{2,}$`)

const passwordSpecials = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

// Validation messages shown next to the signup form
const (
	MsgNameRequired  = "Name is required."
	MsgInvalidEmail  = "Please enter a valid email address."
	MsgWeakPassword  = "Password must be at least 8 characters long and include uppercase, lowercase, number, and special character."
	MsgEmailRequired = "Email is required."
	MsgPasswordEmpty = "Password is required."
)

// ValidationError is a client-side input error; it never reaches the network
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidEmail reports whether email looks like an address the backend accepts
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

type passwordClasses struct {
	upper, lower, digit, special bool
}

func classifyPassword(password string) passwordClasses {
	var c passwordClasses
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			c.upper = true
		case unicode.IsLower(r):
			c.lower = true
		case unicode.IsDigit(r):
			c.digit = true
		case strings.ContainsRune(passwordSpecials, r):
			c.special = true
		}
	}
	return c
}

func (c passwordClasses) count() int {
	n := 0
	for _, ok := range []bool{c.upper, c.lower, c.digit, c.special} {
		if ok {
			n++
		}
	}
	return n
}

// IsStrongPassword requires 8+ characters with upper, lower, digit and special
func IsStrongPassword(password string) bool {
	return len([]rune(password)) >= 8 && classifyPassword(password).count() == 4
}

// PasswordStrength grades a password for the signup meter: "Strong",
// "Medium" (8+ chars and three classes), "Weak", or "" when empty.
func PasswordStrength(password string) string {
	switch {
	case IsStrongPassword(password):
		return "Strong"
	case len([]rune(password)) >= 8 && classifyPassword(password).count() >= 3:
		return "Medium"
	case password != "":
		return "Weak"
	default:
		return ""
	}
}

// ValidateRegistration checks the signup form in display order
func ValidateRegistration(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Message: MsgNameRequired}
	}
	if !IsValidEmail(email) {
		return &ValidationError{Field: "email", Message: MsgInvalidEmail}
	}
	if !IsStrongPassword(password) {
		return &ValidationError{Field: "password", Message: MsgWeakPassword}
	}
	return nil
}

// ValidateLogin only rejects empty fields; the backend judges the rest
func ValidateLogin(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return &ValidationError{Field: "email", Message: MsgEmailRequired}
	}
	if password == "" {
		return &ValidationError{Field: "password", Message: MsgPasswordEmpty}
	}
	return nil
}
