package service

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password the policy accepts.
const MinPasswordLength = 8

const maxNameLength = 120

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether email looks like local@domain.tld.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// CheckPasswordStrength returns a *WeakPasswordError for the first rule the
// password breaks, or nil. Letter rules count ASCII A-Z and a-z only; any
// Unicode decimal digit satisfies the digit rule.
func CheckPasswordStrength(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return &WeakPasswordError{Rule: RuleMinLength, Message: "Password must be at least 8 characters long"}
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case 'A' <= r && r <= 'Z':
			upper = true
		case 'a' <= r && r <= 'z':
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper {
		return &WeakPasswordError{Rule: RuleUpper, Message: "Password must contain at least one uppercase letter"}
	}
	if !lower {
		return &WeakPasswordError{Rule: RuleLower, Message: "Password must contain at least one lowercase letter"}
	}
	if !digit {
		return &WeakPasswordError{Rule: RuleDigit, Message: "Password must contain at least one number"}
	}
	return nil
}

// ValidateRegistration checks registration input in the order the signup
// form reports problems: name, email presence, email syntax, password
// presence, password strength.
func ValidateRegistration(name, email, password string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	switch {
	case name == "":
		return &ValidationError{Field: "name", Message: "Please enter your full name"}
	case utf8.RuneCountInString(name) > maxNameLength:
		return &ValidationError{Field: "name", Message: "Name must be at most 120 characters"}
	case email == "":
		return &ValidationError{Field: "email", Message: "Please enter your email address"}
	case !ValidEmail(email):
		return &ValidationError{Field: "email", Message: "Please enter a valid email address"}
	case password == "":
		return &ValidationError{Field: "password", Message: "Please enter a password"}
	}
	return CheckPasswordStrength(password)
}
