package utils

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

var (
	ErrAgeNotNumeric = errors.New("age must be a whole number")
	ErrAgeOutOfRange = errors.New("age is out of range")
	ErrBadRating     = errors.New("rating must be between 1 and 5")
)

// IsValidSubjectNumber accepts 1-32 letters, digits, dashes or underscores.
func IsValidSubjectNumber(s string) bool {
	if len(s) == 0 || len(s) > 32 {
		return false
	}
	for _, r := range s {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// ParseAge parses the survey age field.
func ParseAge(s string) (int, error) {
	age, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrAgeNotNumeric
	}
	if age < 1 || age > 120 {
		return 0, ErrAgeOutOfRange
	}
	return age, nil
}

// ParseRating parses a 1-5 agreement rating.
func ParseRating(s string) (int, error) {
	r, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || r < 1 || r > 5 {
		return 0, ErrBadRating
	}
	return r, nil
}

// IsComplexPassword checks if the password meets the complexity requirements.
func IsComplexPassword(password string) bool {
	var (
		hasMinLen  = len(password) >= 8
		hasUpper   = false
		hasLower   = false
		hasNumber  = false
		hasSpecial = false
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	return hasMinLen && hasUpper && hasLower && hasNumber && hasSpecial
}
