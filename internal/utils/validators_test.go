package utils

import (
	"errors"
	"testing"
)

func TestIsValidSubjectNumber(t *testing.T) {
	for s, want := range map[string]bool{
		"P01":                               true,
		"sub_12-a":                          true,
		"":                                  false,
		"P 01":                              false,
		"../etc":                            false,
		"012345678901234567890123456789012": false,
	} {
		if got := IsValidSubjectNumber(s); got != want {
			t.Errorf("IsValidSubjectNumber(%q) = %v", s, got)
		}
	}
}

func TestParseAge(t *testing.T) {
	if age, err := ParseAge(" 34 "); err != nil || age != 34 {
		t.Errorf("ParseAge(34) = %d, %v", age, err)
	}
	if _, err := ParseAge("thirty"); !errors.Is(err, ErrAgeNotNumeric) {
		t.Errorf("non-numeric err = %v", err)
	}
	if _, err := ParseAge("0"); !errors.Is(err, ErrAgeOutOfRange) {
		t.Errorf("zero err = %v", err)
	}
}

func TestParseRating(t *testing.T) {
	for _, ok := range []string{"1", "3", "5"} {
		if _, err := ParseRating(ok); err != nil {
			t.Errorf("ParseRating(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"0", "6", "NR", ""} {
		if _, err := ParseRating(bad); err == nil {
			t.Errorf("ParseRating(%q) accepted", bad)
		}
	}
}

func TestIsComplexPassword(t *testing.T) {
	if IsComplexPassword("short") {
		t.Error("weak password accepted")
	}
	if !IsComplexPassword("Lab-Passc0de") {
		t.Error("strong password rejected")
	}
}

func TestGenerateSecureToken(t *testing.T) {
	a, err := GenerateSecureToken(32)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := GenerateSecureToken(32)
	if a == b || len(a) == 0 {
		t.Error("tokens not random")
	}
}
