// Package security provides passphrase strength analysis for vault passwords.
package security

import (
	"strings"
	"unicode"
)

// PasswordStrength represents the strength level of a passphrase.
type PasswordStrength int

const (
	// PasswordWeak indicates a passphrase below the minimum length.
	PasswordWeak PasswordStrength = iota
	// PasswordFair indicates a minimally acceptable passphrase.
	PasswordFair
	// PasswordGood indicates a good passphrase.
	PasswordGood
	// PasswordStrong indicates a strong passphrase.
	PasswordStrong
)

// String returns a human-readable representation of the strength.
func (s PasswordStrength) String() string {
	switch s {
	case PasswordWeak:
		return "Weak"
	case PasswordFair:
		return "Fair"
	case PasswordGood:
		return "Good"
	case PasswordStrong:
		return "Strong"
	default:
		return "Unknown"
	}
}

// MinPasswordLength is the hard minimum for vault passphrases.
const MinPasswordLength = 8

// ValidationResult is the outcome of validating a candidate passphrase.
// Warnings are advisory; only Valid=false blocks.
type ValidationResult struct {
	Valid    bool
	Strength PasswordStrength
	Warnings []string
}

// commonPasswords are rejected outright regardless of length.
var commonPasswords = map[string]bool{
	"password":   true,
	"password1":  true,
	"passw0rd":   true,
	"12345678":   true,
	"123456789":  true,
	"1234567890": true,
	"qwertyuiop": true,
	"letmein1":   true,
	"iloveyou1":  true,
}

// ValidatePassphrase evaluates a candidate vault passphrase. Length is the
// primary factor per NIST SP 800-63B; composition rules are advisory only.
func ValidatePassphrase(password string) ValidationResult {
	result := ValidationResult{
		Strength: calculateStrength(password),
	}

	if len(password) < MinPasswordLength {
		result.Warnings = append(result.Warnings,
			"passphrase must be at least 8 characters")
		return result
	}
	if commonPasswords[strings.ToLower(password)] {
		result.Warnings = append(result.Warnings,
			"passphrase is a commonly used password")
		return result
	}

	result.Valid = true

	if allDigits(password) {
		result.Warnings = append(result.Warnings,
			"all-digit passphrases are easy to brute-force")
	}
	if len(password) < 14 {
		result.Warnings = append(result.Warnings,
			"consider a longer passphrase (14+ characters)")
	}
	return result
}

// calculateStrength maps passphrase length to a strength level. Length is
// what matters for a KDF-stretched passphrase; character classes barely move
// the entropy for human-chosen strings.
func calculateStrength(password string) PasswordStrength {
	switch length := len(password); {
	case length >= 20:
		return PasswordStrong
	case length >= 14:
		return PasswordGood
	case length >= MinPasswordLength:
		return PasswordFair
	default:
		return PasswordWeak
	}
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}
