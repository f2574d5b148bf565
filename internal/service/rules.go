package service

import (
	"errors"
	"regexp"
)

// Validation predicates for order form fields. They back the checkout
// validation engine and stay usable on their own.

var (
	ErrEmptyField  = errors.New("must not be empty")
	ErrPhoneFormat = errors.New("needs a valid local phone number")
)

// local mobile numbers: 09 followed by eight digits
var phonePattern = regexp.MustCompile(`^(09)[0-9]{8}$`)

// Required rejects an empty value.
func Required(v string) error {
	if v == "" {
		return ErrEmptyField
	}
	return nil
}

// IsPhoneNumber rejects anything that is not a local mobile number.
func IsPhoneNumber(v string) error {
	if !phonePattern.MatchString(v) {
		return ErrPhoneFormat
	}
	return nil
}
