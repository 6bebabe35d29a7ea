package wifi

import (
	"regexp"
	"unicode/utf8"
)

var wepKeyPattern = regexp.MustCompile(`^[0-9A-F]+$`)

// IsValidPassword reports whether password is acceptable key material for a
// network using the given cipher.
//
// WEP keys are 10, 26 or 40 upper case hexadecimal digits. TKIP and CCMP
// passphrases are 8 to 63 characters. Any other cipher accepts anything.
func IsValidPassword(password string, cipher CipherAlgorithm) bool {
	switch {
	case cipher == CipherNone:
		return true
	case cipher.IsWEP():
		switch len(password) {
		case 10, 26, 40:
			return wepKeyPattern.MatchString(password)
		}
		return false
	case cipher == CipherTKIP || cipher == CipherCCMP:
		n := utf8.RuneCountInString(password)
		return n >= 8 && n <= 63
	}
	return true
}
