// Package validation holds the platform naming rules and the password policy.
package validation

import "regexp"

var usernameRegexp = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,26}$`)

// Username reports whether name is acceptable: 3 to 26 characters from
// [a-zA-Z0-9_-].
func Username(name string) bool {
	return usernameRegexp.MatchString(name)
}

// Password reports whether the password meets the platform policy: 8 to 255
// bytes with at least one letter and one digit.
func Password(password string) bool {
	if len(password) < 8 || len(password) > 255 {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}
