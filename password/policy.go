package password

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

// MinLength is the minimum number of characters in an accepted password.
const MinLength = 8

var (
	ErrTooShort    = errors.New("password must be at least 8 characters")
	ErrNoUppercase = errors.New("password must contain an uppercase letter")
	ErrNoLowercase = errors.New("password must contain a lowercase letter")
	ErrNoDigit     = errors.New("password must contain a number")
	ErrNoSpecial   = errors.New("password must contain a special character")
	ErrInvalidUTF8 = errors.New("password must be valid UTF-8")
)

// ValidatePolicy reports the first complexity rule password violates.
func ValidatePolicy(password string) error {
	if !utf8.ValidString(password) {
		return ErrInvalidUTF8
	}
	if utf8.RuneCountInString(password) < MinLength {
		return ErrTooShort
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}

	switch {
	case !upper:
		return ErrNoUppercase
	case !lower:
		return ErrNoLowercase
	case !digit:
		return ErrNoDigit
	case !special:
		return ErrNoSpecial
	}
	return nil
}
