package crmauth

import (
	"crypto/rand"
	"unicode"
)

// PasswordSymbols is the approved special character set.
const PasswordSymbols = "!@#$&*"

// PasswordMinLength is the minimum password length the policy accepts.
const PasswordMinLength = 8

// TempPasswordLength is the default length of generated temporary passwords.
const TempPasswordLength = 8

// tempPasswordCharset covers every character class the policy requires.
const tempPasswordCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789" + PasswordSymbols

// ValidatePasswordPolicy enforces the composite strength predicate: length of
// at least 8, 2 uppercase, 3 lowercase, 2 digits, 1 approved symbol, and no
// whitespace anywhere.
func ValidatePasswordPolicy(password string) error {
	if len(password) < PasswordMinLength {
		return ErrPasswordPolicy
	}

	var upper, lower, digits, symbols int
	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			return ErrPasswordPolicy
		case unicode.IsUpper(r):
			upper++
		case unicode.IsLower(r):
			lower++
		case unicode.IsDigit(r):
			digits++
		case isPasswordSymbol(r):
			symbols++
		}
	}

	if upper < 2 || lower < 3 || digits < 2 || symbols < 1 {
		return ErrPasswordPolicy
	}

	return nil
}

func isPasswordSymbol(r rune) bool {
	for _, s := range PasswordSymbols {
		if r == s {
			return true
		}
	}
	return false
}

// GenerateTempPassword returns a random password drawn from the approved
// charset. The default length is 8 unless a positive override is given.
func GenerateTempPassword(length ...int) (string, error) {
	n := TempPasswordLength
	if len(length) > 0 && length[0] > 0 {
		n = length[0]
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	for i, b := range buf {
		buf[i] = tempPasswordCharset[int(b)%len(tempPasswordCharset)]
	}

	return string(buf), nil
}
