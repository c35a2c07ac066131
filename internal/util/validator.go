package util

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/njprem/web-starter-api/internal/domain"
)

const (
	maxEmailLength    = 255
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 8
	maxPasswordLength = 100
	maxNameLength     = 100
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateEmail accepts a bare address (no display name). Case is preserved.
func ValidateEmail(email string) error {
	if email == "" {
		return domain.Invalid("email", "email is required")
	}
	if len(email) > maxEmailLength {
		return domain.Invalid("email", "email must be at most 255 characters")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return domain.Invalid("email", "email must be a valid address")
	}
	return nil
}

func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < minUsernameLength || n > maxUsernameLength {
		return domain.Invalid("username", "username must be between 3 and 50 characters")
	}
	if !usernamePattern.MatchString(username) {
		return domain.Invalid("username", "username may contain only letters, digits, underscores and hyphens")
	}
	return nil
}

func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength {
		return domain.Invalid("password", "password must be at least 8 characters long")
	}
	if n > maxPasswordLength {
		return domain.Invalid("password", "password must be at most 100 characters long")
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return domain.Invalid("password", "password must include uppercase, lowercase and a number")
	}
	return nil
}

func ValidateName(field, value string) error {
	if utf8.RuneCountInString(value) > maxNameLength {
		return domain.Invalid(field, field+" must be at most 100 characters")
	}
	return nil
}

// TrimOptional trims a pointer string. Blank values become nil.
func TrimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
