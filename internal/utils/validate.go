package utils

import "regexp"

// Indian mobile numbers: 10 digits, first digit 6-9.
var mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

// IsValidMobile reports whether s is a valid Indian mobile number.
func IsValidMobile(s string) bool {
	return mobilePattern.MatchString(s)
}
