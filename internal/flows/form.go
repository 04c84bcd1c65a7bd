package flows

import (
	"errors"
	"net/mail"
	"unicode/utf8"

	"github.com/MrEthical07/authcore/password"
)

const (
	minNameLength     = 2
	maxNameLength     = 100
	maxPasswordLength = 100
)

var (
	errInvalidEmail    = errors.New("please enter a valid email")
	errNameLength      = errors.New("name must be between 2 and 100 characters")
	errPasswordLength  = errors.New("password must be between 8 and 100 characters")
	errMissingPassword = errors.New("password is required")
)

// SignUpInput is the sign-up form.
type SignUpInput struct {
	Name     string
	Email    string
	Password string
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errInvalidEmail
	}
	return nil
}

// validateNewPassword applies the length bounds and the composition policy.
func validateNewPassword(pw string) error {
	if n := utf8.RuneCountInString(pw); n < password.MinLength || n > maxPasswordLength {
		return errPasswordLength
	}
	return password.ValidatePolicy(pw)
}

// validateSignInPassword only bounds the input; accounts created under older
// policies must still be able to sign in.
func validateSignInPassword(pw string) error {
	if pw == "" {
		return errMissingPassword
	}
	if len(pw) > password.MaxPasswordBytes {
		return errPasswordLength
	}
	return nil
}

func validateSignUp(in SignUpInput) error {
	if n := utf8.RuneCountInString(in.Name); n < minNameLength || n > maxNameLength {
		return errNameLength
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	return validateNewPassword(in.Password)
}
