package crypto

import (
	"strings"
	"unicode"
)

const (
	uppercaseChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowercaseChars = "abcdefghijklmnopqrstuvwxyz"
	numberChars    = "0123456789"
	symbolChars    = "!@#$%^&*()_+-=[]{}|;:,.<>?"

	MinPasswordLength = 8
	MaxPasswordLength = 128

	// minCharacterClasses is how many of upper/lower/digit/symbol a password must mix.
	minCharacterClasses = 2
	// minSimilarityLength keeps short attributes like "al" from rejecting most passwords.
	minSimilarityLength = 3
)

// Password policy messages, reported verbatim to the client.
const (
	MsgPasswordTooShort   = "This password is too short. It must contain at least 8 characters."
	MsgPasswordTooLong    = "This password is too long. It must contain at most 128 characters."
	MsgPasswordNumeric    = "This password is entirely numeric."
	MsgPasswordCommon     = "This password is too common."
	MsgPasswordSimilar    = "The password is too similar to the username or email."
	MsgPasswordLowVariety = "This password must mix at least two of: uppercase letters, lowercase letters, digits, symbols."
)

var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "passw0rd": {}, "12345678": {},
	"123456789": {}, "1234567890": {}, "qwerty123": {}, "qwertyuiop": {}, "iloveyou": {},
	"sunshine": {}, "princess": {}, "football": {}, "baseball": {}, "welcome1": {},
	"abc12345": {}, "letmein1": {}, "trustno1": {}, "superman": {}, "starwars": {},
	"dragon123": {}, "monkey123": {}, "admin123": {}, "changeme": {}, "11111111": {},
	"00000000": {}, "asdfghjkl": {}, "zaq12wsx": {}, "1q2w3e4r": {}, "qwerty12": {},
}

// CheckPasswordStrength returns every policy rule the password violates,
// or nil when it is acceptable. username and email feed the similarity rule.
func CheckPasswordStrength(password, username, email string) []string {
	var problems []string

	n := len([]rune(password))
	if n < MinPasswordLength {
		problems = append(problems, MsgPasswordTooShort)
	}
	if n > MaxPasswordLength {
		problems = append(problems, MsgPasswordTooLong)
	}
	if n > 0 && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) == -1 {
		problems = append(problems, MsgPasswordNumeric)
	}
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		problems = append(problems, MsgPasswordCommon)
	}
	if similarToAttributes(password, username, email) {
		problems = append(problems, MsgPasswordSimilar)
	}
	if characterClasses(password) < minCharacterClasses {
		problems = append(problems, MsgPasswordLowVariety)
	}

	return problems
}

// characterClasses counts how many of the generator charsets appear in s.
// Runes outside every set (e.g. non-ASCII letters) count as symbols.
func characterClasses(s string) int {
	var upper, lower, digit, symbol bool
	for _, r := range s {
		switch {
		case strings.ContainsRune(uppercaseChars, r):
			upper = true
		case strings.ContainsRune(lowercaseChars, r):
			lower = true
		case strings.ContainsRune(numberChars, r):
			digit = true
		default:
			symbol = true
		}
	}

	count := 0
	for _, present := range []bool{upper, lower, digit, symbol} {
		if present {
			count++
		}
	}
	return count
}

func similarToAttributes(password, username, email string) bool {
	pw := strings.ToLower(password)
	if pw == "" {
		return false
	}

	attrs := []string{username, email}
	if local, _, ok := strings.Cut(email, "@"); ok {
		attrs = append(attrs, local)
	}

	for _, attr := range attrs {
		a := strings.ToLower(strings.TrimSpace(attr))
		if len(a) < minSimilarityLength {
			continue
		}
		if strings.Contains(pw, a) || strings.Contains(a, pw) {
			return true
		}
	}
	return false
}
