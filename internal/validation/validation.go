package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	PasswordMinLength = 8
	PasswordMaxLength = 128
)

// Error is a client-facing validation failure. Its text is returned verbatim.
type Error string

func (e Error) Error() string {
	return string(e)
}

var (
	phonePattern = regexp.MustCompile(`^\+2567[0-9]{8}$`)
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s\-']{1,100}$`)
)

// SanitizePhone strips whitespace and accepts only Ugandan mobile numbers in
// the +2567XXXXXXXX form.
func SanitizePhone(raw string) (string, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)

	if !phonePattern.MatchString(cleaned) {
		return "", false
	}
	return cleaned, true
}

func SanitizeName(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if !namePattern.MatchString(trimmed) {
		return "", false
	}
	return trimmed, true
}

// ValidatePassword enforces the password policy and names the first rule
// that is violated.
func ValidatePassword(password string) error {
	if password == "" {
		return Error("Password is required")
	}

	length := utf8.RuneCountInString(password)
	if length < PasswordMinLength {
		return Error(fmt.Sprintf("Password must be at least %d characters", PasswordMinLength))
	}
	if length > PasswordMaxLength {
		return Error(fmt.Sprintf("Password must not exceed %d characters", PasswordMaxLength))
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}

	if !upper {
		return Error("Password must contain at least one uppercase letter")
	}
	if !lower {
		return Error("Password must contain at least one lowercase letter")
	}
	if !digit {
		return Error("Password must contain at least one number")
	}
	return nil
}
